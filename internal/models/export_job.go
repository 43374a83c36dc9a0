package models

import "time"

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// Export job statuses, stored in Redis while the worker runs.
const (
	JobQueued     = "queued"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// ExportJob tracks a background export of the cross report.
type ExportJob struct {
	ID        string         `json:"id"`
	Instance  string         `json:"instance"`
	Format    string         `json:"format"`
	Filters   QueryFilterSet `json:"filters"`
	Status    string         `json:"status"`
	Rows      int            `json:"rows"`
	FilePath  string         `json:"file_path,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ExportTaskPayload is the asynq payload for a background export.
type ExportTaskPayload struct {
	JobID    string         `json:"job_id"`
	Instance string         `json:"instance"`
	Format   string         `json:"format"`
	Filters  QueryFilterSet `json:"filters"`
}
