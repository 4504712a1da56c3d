package jobs

import (
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAlertScan runs the notification alert checks.
	TaskAlertScan = "alerts:scan"
)

// NewAlertScanTask constructs the periodic alert-scan task. The scan
// takes no payload; everything it needs lives in SQL.
func NewAlertScanTask() *asynq.Task {
	return asynq.NewTask(TaskAlertScan, nil)
}
