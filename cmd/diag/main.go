// Command diag runs the classification pipeline end to end against a TLE
// file and prints the results, bypassing the HTTP layer. Useful for
// checking a freshly downloaded element set by hand.
//
// Usage: diag <tle-file> [name-filter]
package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/totoccar/SpaceSituationalAwareness/internal/classify"
	"github.com/totoccar/SpaceSituationalAwareness/internal/propagation"
	"github.com/totoccar/SpaceSituationalAwareness/internal/tle"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: diag <tle-file> [name-filter]")
		os.Exit(2)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Println("ERROR reading TLE file:", err)
		os.Exit(1)
	}

	now := time.Now().UTC()
	records, err := tle.ParseCatalog(bytes.NewReader(data), now, logger)
	if err != nil {
		fmt.Println("ERROR parsing TLE data:", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d TLE entries\n", len(records))

	if len(os.Args) > 2 {
		filter := strings.ToUpper(os.Args[2])
		var kept []tle.Record
		for _, r := range records {
			if strings.Contains(strings.ToUpper(r.Name), filter) {
				kept = append(kept, r)
			}
		}
		records = kept
		fmt.Printf("Filter %q matched %d entries\n", os.Args[2], len(records))
	}

	engine := classify.NewEngine(propagation.NewSGP4(), logger)

	counts := map[classify.Class]int{}
	for _, r := range records {
		id, _ := strconv.ParseInt(r.NoradID, 10, 64)
		res := engine.Evaluate(context.Background(), classify.Request{
			ObjectID: id,
			Line1:    r.Line1,
			Line2:    r.Line2,
			Name:     r.Name,
		})
		counts[res.Class]++

		propagated := "no"
		if res.Propagation != nil {
			propagated = "yes"
		}
		fmt.Printf("  %-24s NORAD %-6s %-11s conf=%.2f alt=%.1fkm region=%s age=%.1fd propagated=%s\n",
			r.Name, r.NoradID, res.Class, res.Confidence, res.AltitudeKm, res.Region, res.Age.Days, propagated)
		if res.Age.Warning != "" {
			fmt.Printf("      %s\n", res.Age.Warning)
		}
	}

	fmt.Println()
	for _, class := range []classify.Class{classify.ClassPayload, classify.ClassRocketBody, classify.ClassDebris, classify.ClassUnknown} {
		fmt.Printf("%-12s %d\n", class, counts[class])
	}
}
