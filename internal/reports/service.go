package reports

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/stockdesk/stockdesk/internal/shared"
)

// sharedLoadTimeout bounds a load that several callers wait on.
const sharedLoadTimeout = 30 * time.Second

// Backend returns raw report payloads.
type Backend interface {
	DayReport(ctx context.Context, date string) ([]byte, error)
	PeriodReport(ctx context.Context, start, end string) ([]byte, error)
	SummaryReport(ctx context.Context, summaryType, date string) ([]byte, error)
}

// Service fetches, normalizes and caches reports. Identical concurrent
// requests share one backend call.
type Service struct {
	backend Backend
	cache   *Cache
	logger  *slog.Logger
	group   singleflight.Group
}

// NewService wires report dependencies. cache may be nil.
func NewService(backend Backend, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, cache: cache, logger: logger}
}

// Day returns the report for a single date.
func (s *Service) Day(ctx context.Context, date time.Time) (Report, error) {
	day := date.Format(DateLayout)
	return s.load(ctx, []string{"day", day}, func(ctx context.Context) (Report, error) {
		raw, err := s.backend.DayReport(ctx, day)
		if err != nil {
			return Report{}, err
		}
		report, err := normalizeFetched(KindDay, "day report", raw)
		if err != nil {
			return Report{}, err
		}
		if report.Date == "" {
			report.Date = day
		}
		return report, nil
	})
}

// Period returns totals between start and end inclusive.
func (s *Service) Period(ctx context.Context, start, end time.Time) (Report, error) {
	from, to := start.Format(DateLayout), end.Format(DateLayout)
	if start.After(end) {
		return Report{}, &shared.ValidationError{
			Code:   shared.CodeInvalidRange,
			Fields: map[string]string{"start": from, "end": to},
		}
	}
	return s.load(ctx, []string{"period", from, to}, func(ctx context.Context) (Report, error) {
		raw, err := s.backend.PeriodReport(ctx, from, to)
		if err != nil {
			return Report{}, err
		}
		report, err := normalizeFetched(KindPeriod, "period report", raw)
		if err != nil {
			return Report{}, err
		}
		if report.Start == "" || report.End == "" {
			report.Start, report.End = from, to
		}
		return report, nil
	})
}

// Summary returns the quick summary of t around date.
func (s *Service) Summary(ctx context.Context, t SummaryType, date time.Time) (Report, error) {
	if _, err := ParseSummaryType(string(t)); err != nil {
		return Report{}, err
	}
	day := date.Format(DateLayout)
	return s.load(ctx, []string{"summary", string(t), day}, func(ctx context.Context) (Report, error) {
		raw, err := s.backend.SummaryReport(ctx, string(t), day)
		if err != nil {
			return Report{}, err
		}
		report, err := normalizeFetched(KindSummary, "summary report", raw)
		if err != nil {
			return Report{}, err
		}
		if report.Type == "" {
			report.Type = t
		}
		if report.Start == "" || report.End == "" {
			from, to := SummaryBounds(t, date)
			report.Start, report.End = from.Format(DateLayout), to.Format(DateLayout)
		}
		return report, nil
	})
}

// Invalidate drops every cached report.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

func (s *Service) load(ctx context.Context, parts []string, loader func(context.Context) (Report, error)) (Report, error) {
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		s.logger.Warn("report cache unavailable", slog.Any("error", err))
		return loader(ctx)
	}
	// The shared load outlives any single caller; each caller still stops
	// waiting when its own ctx ends.
	ch := s.group.DoChan(key, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()
		return s.cache.Fetch(loadCtx, key, loader)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return Report{}, ctx.Err()
	case res = <-ch:
	}
	report, _ := res.Val.(Report)
	var cerr *cacheError
	if errors.As(res.Err, &cerr) {
		s.logger.Warn("report cache unavailable", slog.String("key", key), slog.Any("error", cerr))
		if report.Kind != "" {
			return report, nil
		}
		return loader(ctx)
	}
	if res.Err != nil {
		return Report{}, res.Err
	}
	return report, nil
}

func normalizeFetched(kind Kind, op string, raw []byte) (Report, error) {
	report, err := Normalize(kind, raw)
	if err != nil {
		return Report{}, &shared.FetchError{Op: op, Err: err}
	}
	return report, nil
}
