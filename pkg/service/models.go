package service

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/gilchrisn/bisbm-service/pkg/bisbm"
)

var requestValidate = validator.New()

// JobStatus is the lifecycle state of an optimization job
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Finished reports whether the job has reached a terminal state
func (s JobStatus) Finished() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// JobRequest is the body of a job submission. Graph holds the graph file
// content in the named format. A missing or negative seed is drawn from the
// clock.
type JobRequest struct {
	Format        string `json:"format" validate:"required"`
	Graph         string `json:"graph" validate:"required"`
	GroupsA       int    `json:"groups_a" validate:"gt=0"`
	GroupsB       int    `json:"groups_b" validate:"gt=0"`
	MaxIterations int    `json:"max_iterations" validate:"gte=0"`
	RandomSeed    *int64 `json:"random_seed,omitempty"`
	Scoring       string `json:"scoring,omitempty" validate:"omitempty,oneof=full incremental"`
}

// Validate checks the request fields that do not depend on the graph content
func (r *JobRequest) Validate() error {
	return requestValidate.Struct(r)
}

// JobParameters are the resolved run parameters of a job
type JobParameters struct {
	Format        string        `json:"format"`
	GroupsA       int           `json:"groups_a"`
	GroupsB       int           `json:"groups_b"`
	MaxIterations int           `json:"max_iterations"`
	RandomSeed    int64         `json:"random_seed"`
	Scoring       bisbm.Scoring `json:"scoring"`
}

// GraphInfo describes the submitted graph
type GraphInfo struct {
	NumNodes int `json:"num_nodes"`
	NumEdges int `json:"num_edges"`
	TypeZero int `json:"type_zero"`
	TypeOne  int `json:"type_one"`
}

// Job represents an optimization job
type Job struct {
	ID          string        `json:"id"`
	Status      JobStatus     `json:"status"`
	Parameters  JobParameters `json:"parameters"`
	Graph       GraphInfo     `json:"graph"`
	Message     string        `json:"message"`
	Summary     *JobSummary   `json:"summary,omitempty"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// JobSummary is the headline outcome of a completed job. The full
// partition is served separately.
type JobSummary struct {
	Score     bisbm.LogLikelihood `json:"score"`
	Rounds    int                 `json:"rounds"`
	Converged bool                `json:"converged"`
	RuntimeMS int64               `json:"runtime_ms"`
}
