package model

// ReconciliationJob is the ephemeral unit of work flowing through the
// queue. It carries only identifiers; all state lives in the store.
type ReconciliationJob struct {
	ReportID      string `json:"report_id"`
	Priority      string `json:"priority"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Key returns a stable idempotency key for the job.
func (j ReconciliationJob) Key() string {
	return "rec:" + j.ReportID
}
