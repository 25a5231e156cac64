package service

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/bisbm-service/pkg/graph"
	"github.com/gilchrisn/bisbm-service/pkg/parser"
)

// plantedEdgeList is two 3x3 complete bipartite blocks joined by one edge
func plantedEdgeList() string {
	var sb strings.Builder
	for u := 0; u < 3; u++ {
		for v := 6; v < 9; v++ {
			fmt.Fprintf(&sb, "%d %d\n", u, v)
		}
	}
	for u := 3; u < 6; u++ {
		for v := 9; v < 12; v++ {
			fmt.Fprintf(&sb, "%d %d\n", u, v)
		}
	}
	sb.WriteString("2 9\n")
	return sb.String()
}

func seed(v int64) *int64 { return &v }

func testJobConfig() JobConfig {
	cfg := DefaultJobConfig()
	cfg.CleanupInterval = 0
	cfg.LogLevel = "disabled"
	return cfg
}

func validRequest() JobRequest {
	return JobRequest{
		Format:        "edgelist",
		Graph:         plantedEdgeList(),
		GroupsA:       2,
		GroupsB:       2,
		MaxIterations: 10,
		RandomSeed:    seed(7),
	}
}

func waitFinished(t *testing.T, s *JobService, jobID string) *Job {
	t.Helper()
	var job *Job
	require.Eventually(t, func() bool {
		got, err := s.Get(jobID)
		if err != nil {
			return false
		}
		job = got
		return job.Status.Finished()
	}, 5*time.Second, 5*time.Millisecond)
	return job
}

func TestSubmitRunsToCompletion(t *testing.T) {
	s := NewJobService(testJobConfig())
	defer s.Close()

	job, err := s.Submit(validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, 12, job.Graph.NumNodes)
	assert.Equal(t, 19, job.Graph.NumEdges)
	assert.Equal(t, 6, job.Graph.TypeZero)
	assert.Equal(t, int64(7), job.Parameters.RandomSeed)

	done := waitFinished(t, s, job.ID)
	require.Equal(t, JobStatusCompleted, done.Status, done.Error)
	require.NotNil(t, done.Summary)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)

	result, err := s.GetResult(job.ID)
	require.NoError(t, err)
	assert.Len(t, result.Partition, 12)
	assert.Equal(t, done.Summary.Score, result.Score)
	assert.Equal(t, 0, s.ActiveJobs())

	// Same seed, same partition
	again, err := s.Submit(validRequest())
	require.NoError(t, err)
	waitFinished(t, s, again.ID)
	second, err := s.GetResult(again.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Partition, second.Partition)

	assert.Len(t, s.List(), 2)
}

func TestSubmitRejectsInvalidRequests(t *testing.T) {
	s := NewJobService(testJobConfig())
	defer s.Close()

	tests := []struct {
		name   string
		modify func(*JobRequest)
		cause  error
	}{
		{"zero groups", func(r *JobRequest) { r.GroupsA = 0 }, nil},
		{"missing graph", func(r *JobRequest) { r.Graph = "" }, nil},
		{"missing format", func(r *JobRequest) { r.Format = "" }, nil},
		{"negative iterations", func(r *JobRequest) { r.MaxIterations = -1 }, nil},
		{"unknown scoring", func(r *JobRequest) { r.Scoring = "greedy" }, nil},
		{"unknown format", func(r *JobRequest) { r.Format = "csv" }, parser.ErrUnknownFormat},
		{"malformed graph", func(r *JobRequest) { r.Graph = "0\n" }, parser.ErrReadFailed},
		{"odd cycle", func(r *JobRequest) { r.Graph = "0 1\n1 2\n2 0\n" }, graph.ErrNotBipartite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.modify(&req)
			_, err := s.Submit(req)
			require.ErrorIs(t, err, ErrInvalidRequest)
			if tt.cause != nil {
				assert.ErrorIs(t, err, tt.cause)
			}
		})
	}

	assert.Empty(t, s.List())
}

func TestCancelQueuedJob(t *testing.T) {
	cfg := testJobConfig()
	cfg.MaxWorkers = 1
	s := NewJobService(cfg)
	defer s.Close()

	// Occupy the only worker slot
	s.workers <- struct{}{}

	job, err := s.Submit(validRequest())
	require.NoError(t, err)
	assert.Equal(t, JobStatusQueued, job.Status)
	assert.Equal(t, 1, s.ActiveJobs())

	cancelled, err := s.Cancel(job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCancelled, cancelled.Status)

	<-s.workers

	// Give the worker a chance to observe the cancellation; the status must stick
	time.Sleep(20 * time.Millisecond)
	got, err := s.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCancelled, got.Status)

	_, err = s.GetResult(job.ID)
	assert.ErrorIs(t, err, ErrResultNotReady)
}

func TestQueuedJobTimesOut(t *testing.T) {
	cfg := testJobConfig()
	cfg.MaxWorkers = 1
	cfg.JobTimeout = time.Millisecond
	s := NewJobService(cfg)
	defer s.Close()

	s.workers <- struct{}{}
	defer func() { <-s.workers }()

	job, err := s.Submit(validRequest())
	require.NoError(t, err)

	done := waitFinished(t, s, job.ID)
	assert.Equal(t, JobStatusFailed, done.Status)
	assert.Equal(t, "Timed out", done.Message)
}

func TestCancelFinishedJobIsNoop(t *testing.T) {
	s := NewJobService(testJobConfig())
	defer s.Close()

	job, err := s.Submit(validRequest())
	require.NoError(t, err)
	waitFinished(t, s, job.ID)

	got, err := s.Cancel(job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCompleted, got.Status)
}

func TestUnknownJob(t *testing.T) {
	s := NewJobService(testJobConfig())
	defer s.Close()

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = s.GetResult("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = s.Cancel("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestCleanupEvictsFinishedJobs(t *testing.T) {
	cfg := testJobConfig()
	cfg.ResultTTL = time.Nanosecond
	s := NewJobService(cfg)
	defer s.Close()

	job, err := s.Submit(validRequest())
	require.NoError(t, err)
	waitFinished(t, s, job.ID)

	time.Sleep(time.Millisecond)
	s.cleanup()

	_, err = s.Get(job.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = s.GetResult(job.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("BISBM_JOBS_MAX_WORKERS", "2")
	t.Setenv("BISBM_SERVER_ADDRESS", ":9090")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 2, cfg.Jobs.MaxWorkers)
	assert.Equal(t, time.Hour, cfg.Jobs.ResultTTL)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Zero(t, cfg.Server.SubmitRate)
	assert.Equal(t, 10, cfg.Server.SubmitBurst)

	_, err = LoadConfig("/nonexistent/bisbm.yaml")
	assert.Error(t, err)
}
