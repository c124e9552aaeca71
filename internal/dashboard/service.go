package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stockdesk/stockdesk/internal/catalog"
	"github.com/stockdesk/stockdesk/internal/reports"
)

// Catalog supplies the current product snapshot.
type Catalog interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
}

// Reports supplies normalized day reports.
type Reports interface {
	Day(ctx context.Context, date time.Time) (reports.Report, error)
}

// Recorder receives the size of the critical list after each refresh.
type Recorder interface {
	CriticalProducts(count int)
}

// Service refreshes and holds the latest dashboard.
type Service struct {
	catalog  Catalog
	reports  Reports
	recorder Recorder
	logger   *slog.Logger

	mu      sync.RWMutex
	issued  uint64
	applied uint64
	latest  *Stats
}

// NewService wires dashboard dependencies. recorder may be nil.
func NewService(cat Catalog, rep Reports, recorder Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{catalog: cat, reports: rep, recorder: recorder, logger: logger}
}

// Refresh fetches the catalog and the day reports for now and the day before
// concurrently and recomputes the stats. Each refresh takes a sequence number
// when it starts; a refresh that finishes after a later one has been applied
// is discarded and the newer stats are returned. On failure the previously
// applied stats stay in place.
func (s *Service) Refresh(ctx context.Context, now time.Time) (Stats, error) {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	var (
		snapshot         *catalog.Snapshot
		today, yesterday reports.Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snapshot, err = s.catalog.Snapshot(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		today, err = s.reports.Day(gctx, now)
		return err
	})
	g.Go(func() error {
		var err error
		yesterday, err = s.reports.Day(gctx, now.AddDate(0, 0, -1))
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("dashboard refresh failed", slog.Uint64("seq", seq), slog.Any("error", err))
		return Stats{}, err
	}

	stats := Compute(snapshot.Products(), today, yesterday)
	stats.GeneratedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq < s.applied {
		s.logger.Debug("dashboard refresh superseded", slog.Uint64("seq", seq), slog.Uint64("applied", s.applied))
		return *s.latest, nil
	}
	s.applied = seq
	s.latest = &stats
	if s.recorder != nil {
		s.recorder.CriticalProducts(len(stats.CriticalProducts))
	}
	return stats, nil
}

// Latest returns the most recently applied stats.
func (s *Service) Latest() (Stats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return Stats{}, false
	}
	return *s.latest, true
}

// Critical returns the critical stock list straight from the catalog.
func (s *Service) Critical(ctx context.Context) ([]CriticalRow, error) {
	snapshot, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return CriticalProducts(snapshot.Products()), nil
}
