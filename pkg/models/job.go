package models

import "time"

// JobStatus is the lifecycle state of a resolution job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusError     JobStatus = "error"
)

// JobProgress is what a poller sees for a job id
type JobProgress struct {
	JobID     string    `json:"job_id"`
	Total     int       `json:"total"`
	Processed int       `json:"processed"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Done reports whether the job has finished, successfully or not.
func (p JobProgress) Done() bool {
	return p.Status == JobStatusCompleted || p.Status == JobStatusError
}
