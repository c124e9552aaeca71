package reports

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockdesk/stockdesk/internal/shared"
)

type mockBackend struct {
	mu          sync.Mutex
	dayRaw      []byte
	dayErr      error
	dayCalls    int
	dayDates    []string
	periodRaw   []byte
	periodCalls int
	summaryRaw  []byte
	summaryArgs []string
}

func (m *mockBackend) DayReport(ctx context.Context, date string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dayCalls++
	m.dayDates = append(m.dayDates, date)
	return m.dayRaw, m.dayErr
}

func (m *mockBackend) PeriodReport(ctx context.Context, start, end string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.periodCalls++
	return m.periodRaw, nil
}

func (m *mockBackend) SummaryReport(ctx context.Context, summaryType, date string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaryArgs = append(m.summaryArgs, summaryType+"@"+date)
	return m.summaryRaw, nil
}

func newTestService(t *testing.T, backend Backend) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(backend, NewCache(client, time.Minute), nil), mr
}

var jan1 = time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

func TestDayCachesNormalizedReport(t *testing.T) {
	backend := &mockBackend{dayRaw: []byte(`{"sales_total":100,"purchases_total":40,"gross_profit_approx":60,"cogs_approx":40,"date":"2024-01-01"}`)}
	svc, _ := newTestService(t, backend)
	ctx := context.Background()

	first, err := svc.Day(ctx, jan1)
	require.NoError(t, err)
	second, err := svc.Day(ctx, jan1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 100.0, first.Sales)
	assert.Equal(t, 1, backend.dayCalls)
	assert.Equal(t, []string{"2024-01-01"}, backend.dayDates)
}

func TestInvalidateForcesRefetch(t *testing.T) {
	backend := &mockBackend{dayRaw: []byte(`{"sales_total":1}`)}
	svc, _ := newTestService(t, backend)
	ctx := context.Background()

	_, err := svc.Day(ctx, jan1)
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(ctx))
	report, err := svc.Day(ctx, jan1)
	require.NoError(t, err)

	assert.Equal(t, 2, backend.dayCalls)
	assert.Equal(t, "2024-01-01", report.Date)
}

func TestFetchErrorsAreNotCached(t *testing.T) {
	backend := &mockBackend{dayErr: &shared.FetchError{Op: "day report", Status: 500}}
	svc, _ := newTestService(t, backend)
	ctx := context.Background()

	_, err := svc.Day(ctx, jan1)
	require.True(t, errors.Is(err, shared.ErrFetch))

	backend.dayErr = nil
	backend.dayRaw = []byte(`{"sales_total":5}`)
	report, err := svc.Day(ctx, jan1)
	require.NoError(t, err)
	assert.Equal(t, 5.0, report.Sales)
}

func TestMalformedReportIsFetchError(t *testing.T) {
	backend := &mockBackend{dayRaw: []byte(`[]`)}
	svc, _ := newTestService(t, backend)

	_, err := svc.Day(context.Background(), jan1)
	assert.True(t, errors.Is(err, shared.ErrFetch))
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestPeriodRejectsInvertedRange(t *testing.T) {
	backend := &mockBackend{}
	svc, _ := newTestService(t, backend)

	_, err := svc.Period(context.Background(), jan1.AddDate(0, 0, 1), jan1)
	assert.True(t, shared.IsValidationCode(err, shared.CodeInvalidRange))
	assert.Zero(t, backend.periodCalls)
}

func TestPeriodFillsMissingBounds(t *testing.T) {
	backend := &mockBackend{periodRaw: []byte(`{"sales_total":10}`)}
	svc, _ := newTestService(t, backend)

	report, err := svc.Period(context.Background(), jan1, jan1.AddDate(0, 0, 9))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", report.Start)
	assert.Equal(t, "2024-01-10", report.End)
	assert.Equal(t, 10, report.Days())
}

func TestSummaryFillsTypeAndBounds(t *testing.T) {
	backend := &mockBackend{summaryRaw: []byte(`{"sales_total":10}`)}
	svc, _ := newTestService(t, backend)

	report, err := svc.Summary(context.Background(), SummaryMonth, time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, SummaryMonth, report.Type)
	assert.Equal(t, "2024-02-01", report.Start)
	assert.Equal(t, "2024-02-29", report.End)
	assert.Equal(t, []string{"month@2024-02-10"}, backend.summaryArgs)

	_, err = svc.Summary(context.Background(), SummaryType("decade"), jan1)
	assert.True(t, shared.IsValidationCode(err, shared.CodeInvalidSummaryType))
}

func TestServiceWithoutCache(t *testing.T) {
	backend := &mockBackend{dayRaw: []byte(`{"sales_total":3}`)}
	svc := NewService(backend, nil, nil)
	ctx := context.Background()

	_, err := svc.Day(ctx, jan1)
	require.NoError(t, err)
	_, err = svc.Day(ctx, jan1)
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(ctx))
	assert.Equal(t, 2, backend.dayCalls)
}

func TestCacheOutageFallsBackToBackend(t *testing.T) {
	backend := &mockBackend{dayRaw: []byte(`{"sales_total":8}`)}
	svc, mr := newTestService(t, backend)
	mr.Close()

	report, err := svc.Day(context.Background(), jan1)
	require.NoError(t, err)
	assert.Equal(t, 8.0, report.Sales)
}

func TestCacheVersionBump(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "day", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "reports:day:2024-01-01:v1", key)

	require.NoError(t, cache.Bump(ctx))
	key, err = cache.BuildKey(ctx, "day", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "reports:day:2024-01-01:v2", key)
}

type blockingBackend struct {
	mockBackend
	started chan struct{}
	release chan struct{}
}

func (b *blockingBackend) DayReport(ctx context.Context, date string) ([]byte, error) {
	b.mu.Lock()
	b.dayCalls++
	b.mu.Unlock()
	select {
	case b.started <- struct{}{}:
	default:
	}
	select {
	case <-b.release:
		return []byte(`{"sales_total":42}`), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestSharedLoadSurvivesFirstCallerCancel(t *testing.T) {
	backend := &blockingBackend{started: make(chan struct{}, 1), release: make(chan struct{})}
	svc, _ := newTestService(t, backend)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := svc.Day(ctxA, jan1)
		errA <- err
	}()
	<-backend.started

	type result struct {
		report Report
		err    error
	}
	resB := make(chan result, 1)
	go func() {
		report, err := svc.Day(context.Background(), jan1)
		resB <- result{report, err}
	}()
	// Let the second caller join the in-flight load.
	time.Sleep(50 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(backend.release)
	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, 42.0, b.report.Sales)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, 1, backend.dayCalls)
}
