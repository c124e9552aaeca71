package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/stockdesk/stockdesk/internal/jobs"
	"github.com/stockdesk/stockdesk/internal/reports"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ReportWarmer loads reports through the cache.
type ReportWarmer interface {
	Day(ctx context.Context, date time.Time) (reports.Report, error)
	Summary(ctx context.Context, t reports.SummaryType, date time.Time) (reports.Report, error)
}

// DashboardWarmupJob pre-populates the report cache for the dashboard.
type DashboardWarmupJob struct {
	Reports ReportWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(rep ReportWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{
		Reports: rep,
		Logger:  logger,
		Metrics: metrics,
		clock:   time.Now,
	}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Reports == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Days <= 0 {
		payload.Days = 2
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("days", payload.Days))
	logger.Info("starting dashboard warmup")

	now := j.now()
	for i := 0; i < payload.Days; i++ {
		day := now.AddDate(0, 0, -i)
		dayCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		_, err := j.Reports.Day(dayCtx, day)
		cancel()
		if err != nil {
			logger.Error("warm day report", slog.String("date", day.Format(reports.DateLayout)), slog.Any("error", err))
			return err
		}
	}
	j.metrics().AddWarmed(string(reports.KindDay), payload.Days)

	if _, err := j.Reports.Summary(ctx, reports.SummaryMonth, now); err != nil {
		logger.Error("warm month summary", slog.Any("error", err))
		return err
	}
	j.metrics().AddWarmed(string(reports.KindSummary), 1)

	logger.Info("completed dashboard warmup", slog.Duration("duration", time.Since(now)))
	return nil
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DashboardWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
