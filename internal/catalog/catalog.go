package catalog

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/totoccar/SpaceSituationalAwareness/internal/metrics"
	"github.com/totoccar/SpaceSituationalAwareness/internal/tle"
)

// maxSnapshotAge is the freshness window after which a listing triggers a
// refetch attempt. Fixed policy.
const maxSnapshotAge = 2 * time.Hour

// DefaultLimit is the listing result cap applied when the caller does not
// supply one.
const DefaultLimit = 100

// Service serves satellite listings from the persisted snapshot,
// refetching the upstream feed when the snapshot has expired.
//
// There is deliberately no lock around the refetch: concurrent misses may
// each fetch and overwrite the snapshot, which is safe because Save is an
// atomic whole-document replace.
type Service struct {
	fetcher *Fetcher
	store   Store
	logger  *slog.Logger
	now     func() time.Time
}

// NewService wires a Service from its fetcher and store capabilities.
func NewService(fetcher *Fetcher, store Store, logger *slog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

// List returns up to limit satellite entries. Freshness state machine:
// snapshot fresh → serve; expired/absent → refetch, replace, serve;
// refetch failed → serve the stale snapshot if one exists, else fail.
func (s *Service) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	now := s.now().UTC()

	snap, loadErr := s.store.Load()
	if loadErr == nil {
		age := now.Sub(snap.CachedAt)
		metrics.SetCatalogSnapshotAge(age.Seconds())
		if age <= maxSnapshotAge {
			return clip(snap.Satellites, limit), nil
		}
		s.logger.Debug("catalog snapshot expired", "age_hours", age.Hours())
	}

	fresh, err := s.refresh(ctx, now)
	if err != nil {
		metrics.IncCatalogFetch("error")
		if loadErr == nil {
			// Stale beats nothing.
			metrics.IncCatalogStaleServe()
			s.logger.Warn("feed fetch failed, serving stale snapshot",
				"cached_at", snap.CachedAt.Format(time.RFC3339),
				"error", err,
			)
			return clip(snap.Satellites, limit), nil
		}
		return nil, fmt.Errorf("catalog unavailable and no cache exists: %w", err)
	}
	metrics.IncCatalogFetch("ok")

	return clip(fresh.Satellites, limit), nil
}

// refresh fetches the feed, parses it, and replaces the snapshot. A save
// failure is logged but does not fail the listing — the fetched data is
// still good.
func (s *Service) refresh(ctx context.Context, now time.Time) (*Snapshot, error) {
	data, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	records, err := tle.ParseCatalog(bytes.NewReader(data), now, s.logger)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		age := tle.ComputeAge(rec.Epoch, now)
		entries = append(entries, Entry{
			NoradID:  rec.NoradID,
			Name:     rec.Name,
			Line1:    rec.Line1,
			Line2:    rec.Line2,
			Epoch:    rec.Epoch.Format(time.RFC3339Nano),
			AgeHours: round2(age.Hours),
			AgeDays:  round2(age.Days),
			IsStale:  age.IsStale,
		})
	}

	snap := &Snapshot{CachedAt: now, Satellites: entries}
	if err := s.store.Save(snap); err != nil {
		s.logger.Warn("failed to persist catalog snapshot", "error", err)
	} else {
		metrics.SetCatalogSnapshotAge(0)
	}

	s.logger.Info("catalog snapshot refreshed",
		"count", len(entries),
		"source", s.fetcher.FeedURL(),
	)
	return snap, nil
}

func clip(entries []Entry, limit int) []Entry {
	if len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
