package history

import "time"

// Kind identifies the type of recorded operation.
type Kind string

const (
	KindUpload       Kind = "upload"
	KindSilence      Kind = "silence_removal"
	KindPreview      Kind = "render_preview"
	KindExport       Kind = "render_export"
	KindSessionSweep Kind = "session_sweep"
)

// Status is the lifecycle state of a journal entry.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Operation is one journal row.
type Operation struct {
	ID              int64
	SessionID       string
	Kind            Kind
	Status          Status
	Detail          string
	OutputPath      string
	ProgressStage   string
	ProgressPercent float64
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Stats aggregates journal entries by status.
type Stats struct {
	Running   int
	Completed int
	Failed    int
}

// Total is the number of recorded operations.
func (s Stats) Total() int {
	return s.Running + s.Completed + s.Failed
}
