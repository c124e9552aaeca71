package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup refreshes cached day reports used by the dashboard.
	TaskDashboardWarmup = "dashboard:warmup"
	// TaskCriticalStockScan lists products at critical stock.
	TaskCriticalStockScan = "inventory:critical_scan"
)

// DashboardWarmupPayload selects how many trailing days of day reports to warm.
type DashboardWarmupPayload struct {
	Days int `json:"days"`
}

// NewDashboardWarmupTask constructs the warmup task. days <= 0 warms today and
// yesterday.
func NewDashboardWarmupTask(days int) (*asynq.Task, error) {
	data, err := json.Marshal(DashboardWarmupPayload{Days: days})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}

// CriticalStockScanPayload optionally overrides the logged row limit.
type CriticalStockScanPayload struct {
	Limit int `json:"limit"`
}

// NewCriticalStockScanTask constructs the scan task.
func NewCriticalStockScanTask(limit int) (*asynq.Task, error) {
	data, err := json.Marshal(CriticalStockScanPayload{Limit: limit})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCriticalStockScan, data), nil
}
