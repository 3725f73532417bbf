package pipeline

import "time"

// Progress stages
const (
	StageFetching   = "fetching"
	StagePrompting  = "prompting"
	StageGenerating = "generating"
	StageValidating = "validating"
	StageCompleted  = "completed"
	StageFailed     = "failed"
)

// Event is one progress update for a generation job
type Event struct {
	JobID    string    `json:"jobId"`
	Stage    string    `json:"stage"`
	Message  string    `json:"message,omitempty"`
	Category string    `json:"category,omitempty"`
	Time     time.Time `json:"time"`
}

// Reporter receives progress events for jobs that carry a job id
type Reporter interface {
	Publish(jobID string, event Event)
}

type nopReporter struct{}

func (nopReporter) Publish(string, Event) {}
