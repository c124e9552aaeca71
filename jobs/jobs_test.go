package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockdesk/stockdesk/internal/catalog"
	jobmetrics "github.com/stockdesk/stockdesk/internal/jobs"
	"github.com/stockdesk/stockdesk/internal/reports"
)

type mockWarmer struct {
	days      []string
	summaries []string
	dayErr    error
}

func (m *mockWarmer) Day(ctx context.Context, date time.Time) (reports.Report, error) {
	m.days = append(m.days, date.Format(reports.DateLayout))
	return reports.Report{Kind: reports.KindDay}, m.dayErr
}

func (m *mockWarmer) Summary(ctx context.Context, t reports.SummaryType, date time.Time) (reports.Report, error) {
	m.summaries = append(m.summaries, string(t)+"@"+date.Format(reports.DateLayout))
	return reports.Report{Kind: reports.KindSummary}, nil
}

func TestDashboardWarmupDefaultsToTwoDays(t *testing.T) {
	warmer := &mockWarmer{}
	job := NewDashboardWarmupJob(warmer, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	job.clock = func() time.Time { return time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC) }

	task, err := NewDashboardWarmupTask(0)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, []string{"2024-03-01", "2024-02-29"}, warmer.days)
	assert.Equal(t, []string{"month@2024-03-01"}, warmer.summaries)
}

func TestDashboardWarmupStopsOnError(t *testing.T) {
	warmer := &mockWarmer{dayErr: errors.New("backend down")}
	job := NewDashboardWarmupJob(warmer, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewDashboardWarmupTask(5)
	require.NoError(t, err)
	require.Error(t, job.Handle(context.Background(), task))
	assert.Len(t, warmer.days, 1)
	assert.Empty(t, warmer.summaries)
}

func TestDashboardWarmupRejectsBadPayload(t *testing.T) {
	job := NewDashboardWarmupJob(&mockWarmer{}, nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type mockCatalog struct {
	products []catalog.Product
	err      error
}

func (m *mockCatalog) Snapshot(ctx context.Context) (*catalog.Snapshot, error) {
	if m.err != nil {
		return nil, m.err
	}
	return catalog.NewSnapshot(m.products), nil
}

func TestCriticalStockScan(t *testing.T) {
	cat := &mockCatalog{products: []catalog.Product{
		{ID: 1, Name: "Rice", Stock: decimal.NewFromInt(2), MinStock: decimal.NewFromInt(50)},
		{ID: 2, Name: "Oil", Stock: decimal.NewFromInt(40), MinStock: decimal.NewFromInt(50)},
	}}
	job := NewCriticalStockScanJob(cat, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewCriticalStockScanTask(0)
	require.NoError(t, err)
	assert.NoError(t, job.Handle(context.Background(), task))

	cat.err = errors.New("backend down")
	assert.Error(t, job.Handle(context.Background(), task))
}

func TestNilJobsFail(t *testing.T) {
	var warm *DashboardWarmupJob
	assert.Error(t, warm.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, nil)))
	var scan *CriticalStockScanJob
	assert.Error(t, scan.Handle(context.Background(), asynq.NewTask(TaskCriticalStockScan, nil)))
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestJobsHealth(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 3}}, nil).MountRoutes(r)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":3}`, rr.Body.String())

	r = chi.NewRouter()
	NewHandler(stubInspector{err: errors.New("redis down")}, nil).MountRoutes(r)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
