package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/stockdesk/stockdesk/internal/catalog"
	"github.com/stockdesk/stockdesk/internal/dashboard"
	jobmetrics "github.com/stockdesk/stockdesk/internal/jobs"
)

const defaultScanLimit = 50

// CatalogReader supplies the product snapshot.
type CatalogReader interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
}

// CriticalStockScanJob logs every product at or below the critical threshold.
type CriticalStockScanJob struct {
	Catalog CatalogReader
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCriticalStockScanJob initialises the scan handler.
func NewCriticalStockScanJob(cat CatalogReader, logger *slog.Logger, metrics *jobmetrics.Metrics) *CriticalStockScanJob {
	return &CriticalStockScanJob{Catalog: cat, Logger: logger, Metrics: metrics}
}

// Handle executes the scan.
func (j *CriticalStockScanJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Catalog == nil {
		return errors.New("critical scan: handler not configured")
	}
	var payload CriticalStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Limit <= 0 {
		payload.Limit = defaultScanLimit
	}

	tracker := j.metrics().Track(TaskCriticalStockScan)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	snapshot, err := j.Catalog.Snapshot(ctx)
	if err != nil {
		logger.Error("load catalog", slog.Any("error", err))
		return err
	}

	rows := dashboard.CriticalProducts(snapshot.Products())
	j.metrics().SetCriticalProducts(len(rows))
	for i, row := range rows {
		if i == payload.Limit {
			logger.Warn("critical stock list truncated", slog.Int("remaining", len(rows)-i))
			break
		}
		logger.Warn("critical stock",
			slog.Int64("product_id", row.ID),
			slog.String("name", row.Name),
			slog.String("stock", row.Stock.String()),
			slog.String("min_stock", row.MinStock.String()),
			slog.Float64("percentage", row.Percentage),
		)
	}
	logger.Info("completed critical stock scan", slog.Int("products", snapshot.Len()), slog.Int("critical", len(rows)))
	return nil
}

func (j *CriticalStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCriticalStockScan))
	}
	return slog.Default().With(slog.String("job", TaskCriticalStockScan))
}

func (j *CriticalStockScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
