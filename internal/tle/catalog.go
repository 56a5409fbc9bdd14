package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// ParseCatalog reads a 3-line NORAD TLE stream (name, line1, line2
// repeated) and returns the parsed records.
//
// A triple whose second line does not start with "1 " or third line with
// "2 " is skipped by advancing a single line, so one malformed entry does
// not throw the rest of the stream out of alignment.
func ParseCatalog(r io.Reader, now time.Time, logger *slog.Logger) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading catalog stream: %w", err)
	}

	var records []Record
	for i := 0; i+2 < len(lines); {
		name := lines[i]
		line1 := lines[i+1]
		line2 := lines[i+2]

		if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
			// Resync on the next line rather than dropping three.
			logger.Warn("skipping malformed catalog entry", "line_index", i, "name", name)
			i++
			continue
		}

		// NORAD catalog number, line1 cols 3-7 (0-indexed 2..7).
		noradID := strings.TrimSpace(line1[2:7])

		epoch := ParseEpoch(line1, now, logger)

		records = append(records, Record{
			NoradID: noradID,
			Name:    name,
			Epoch:   epoch.Value,
			Line1:   line1,
			Line2:   line2,
		})
		i += 3
	}

	return records, nil
}
