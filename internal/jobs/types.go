// Package jobs defines the poll-job lifecycle used to schedule network
// report pulls. The adapter contract itself carries no retry policy; the
// queue layer here is where retries and backoff live, so the policy
// stays pluggable.
package jobs

import (
	"context"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypePollNetwork represents one report pull from one network.
	JobTypePollNetwork JobType = "poll_network"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// PollNetworkJob represents one transaction-report pull for one network
// over a date range.
type PollNetworkJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// Network is the registry name of the network to poll.
	Network string `json:"network"`

	// Start and End bound the report window. Zero values take the
	// adapter's defaults (one year back, one minute ago).
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// RetryCount is the number of times this job has been retried.
	RetryCount int `json:"retry_count"`

	// MaxRetries is the maximum number of retries allowed.
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *PollNetworkJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *PollNetworkJob) GetType() JobType {
	return JobTypePollNetwork
}

// GetStatus implements the Job interface.
func (j *PollNetworkJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
// The abstraction allows different queue implementations (in-memory,
// Cloud Tasks, Pub/Sub).
type Publisher interface {
	// PublishPoll publishes a network poll job.
	PublishPoll(ctx context.Context, job *PollNetworkJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job. It returns an error if
// the job failed and should be retried.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	SaveJob(ctx context.Context, job *PollNetworkJob) error
	GetJob(ctx context.Context, jobID string) (*PollNetworkJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*PollNetworkJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// Network filters jobs by network name.
	Network string

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
