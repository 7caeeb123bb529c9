// Package jobs contains the asynq background tasks and the worker that runs
// them. The tasks are maintenance sweeps over committed documents; none of
// them sit on the request path.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockIntegrityScan recomputes document-implied stock per product.
	TaskStockIntegrityScan = "stock:integrity_scan"
	// TaskSequenceAudit checks allocated numbers against issued documents.
	TaskSequenceAudit = "numbering:sequence_audit"
	// TaskIdempotencyCleanup prunes aged idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// ScanPayload carries scheduling metadata shared by the sweep tasks.
type ScanPayload struct {
	RunID        string    `json:"run_id"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

func newScanPayload(at time.Time) ScanPayload {
	return ScanPayload{RunID: uuid.NewString(), ScheduledFor: at}
}

// NewStockIntegrityScanTask constructs the integrity scan task.
func NewStockIntegrityScanTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(newScanPayload(at))
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockIntegrityScan, body, asynq.Queue(QueueDefault)), nil
}

// NewSequenceAuditTask constructs the sequence audit task.
func NewSequenceAuditTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(newScanPayload(at))
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSequenceAudit, body, asynq.Queue(QueueDefault)), nil
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(newScanPayload(at))
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault)), nil
}
