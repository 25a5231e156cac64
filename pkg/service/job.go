package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/bisbm-service/pkg/bisbm"
	"github.com/gilchrisn/bisbm-service/pkg/graph"
	"github.com/gilchrisn/bisbm-service/pkg/parser"
)

var (
	// ErrInvalidRequest is returned when a submission cannot be turned into a job
	ErrInvalidRequest = errors.New("invalid job request")
	// ErrJobNotFound is returned for unknown or evicted job IDs
	ErrJobNotFound = errors.New("job not found")
	// ErrResultNotReady is returned when a job has no result (yet)
	ErrResultNotReady = errors.New("job result not available")
)

type jobEntry struct {
	job    Job
	graph  *graph.Bipartite
	config *bisbm.Config
	ctx    context.Context
	cancel context.CancelFunc
}

// JobService runs optimization jobs in the background. At most
// MaxWorkers jobs run at once; the rest wait in the queued state.
type JobService struct {
	jobs      map[string]*jobEntry
	results   map[string]*bisbm.Result
	workers   chan struct{}
	mutex     sync.RWMutex
	cfg       JobConfig
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewJobService creates a job service and starts its cleanup loop
func NewJobService(cfg JobConfig) *JobService {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}
	service := &JobService{
		jobs:    make(map[string]*jobEntry),
		results: make(map[string]*bisbm.Result),
		workers: make(chan struct{}, cfg.MaxWorkers),
		cfg:     cfg,
		done:    make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		go service.cleanupLoop()
	}

	return service
}

// Submit validates the request, parses its graph and queues a new job
func (s *JobService) Submit(req JobRequest) (*Job, error) {
	params, bg, err := prepare(req)
	if err != nil {
		jobsRejected.Inc()
		return nil, err
	}

	config := bisbm.NewConfig()
	config.Set("algorithm.groups_a", params.GroupsA)
	config.Set("algorithm.groups_b", params.GroupsB)
	config.Set("algorithm.max_iterations", params.MaxIterations)
	config.Set("algorithm.random_seed", params.RandomSeed)
	config.Set("algorithm.scoring", string(params.Scoring))
	config.Set("logging.level", s.cfg.LogLevel)
	config.Set("analysis.track_moves", false)

	var ctx context.Context
	var cancel context.CancelFunc
	if s.cfg.JobTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), s.cfg.JobTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	zeros, ones := bg.CountTypes()
	now := time.Now()
	entry := &jobEntry{
		job: Job{
			ID:         uuid.New().String(),
			Status:     JobStatusQueued,
			Parameters: params,
			Graph: GraphInfo{
				NumNodes: bg.NumNodes(),
				NumEdges: bg.NumEdges,
				TypeZero: zeros,
				TypeOne:  ones,
			},
			Message:   "Queued",
			CreatedAt: now,
			UpdatedAt: now,
		},
		graph:  bg,
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}

	s.mutex.Lock()
	s.jobs[entry.job.ID] = entry
	job := entry.job
	s.mutex.Unlock()

	log.Info().
		Str("job_id", job.ID).
		Str("format", params.Format).
		Int("nodes", job.Graph.NumNodes).
		Int("groups_a", params.GroupsA).
		Int("groups_b", params.GroupsB).
		Msg("Job submitted")

	jobsSubmitted.Inc()
	s.wg.Add(1)
	go s.processJob(entry)

	return &job, nil
}

// prepare checks the request fields before touching the graph text so
// cheap mistakes fail fast
func prepare(req JobRequest) (JobParameters, *graph.Bipartite, error) {
	if err := req.Validate(); err != nil {
		return JobParameters{}, nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	scoring, err := bisbm.ParseScoring(req.Scoring)
	if err != nil {
		return JobParameters{}, nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	g, err := parser.Parse(req.Format, strings.NewReader(req.Graph))
	if err != nil {
		return JobParameters{}, nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	bg, err := graph.NewBipartite(g)
	if err != nil {
		return JobParameters{}, nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	seed := time.Now().UnixNano()
	if req.RandomSeed != nil && *req.RandomSeed >= 0 {
		seed = *req.RandomSeed
	}

	return JobParameters{
		Format:        req.Format,
		GroupsA:       req.GroupsA,
		GroupsB:       req.GroupsB,
		MaxIterations: req.MaxIterations,
		RandomSeed:    seed,
		Scoring:       scoring,
	}, bg, nil
}

// Get returns a snapshot of a job
func (s *JobService) Get(jobID string) (*Job, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	job := entry.job
	return &job, nil
}

// GetResult retrieves the optimization result of a completed job
func (s *JobService) GetResult(jobID string) (*bisbm.Result, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entry, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	result, exists := s.results[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: job %s is %s", ErrResultNotReady, jobID, entry.job.Status)
	}

	return result, nil
}

// List returns snapshots of all jobs, oldest first
func (s *JobService) List() []Job {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	jobs := make([]Job, 0, len(s.jobs))
	for _, entry := range s.jobs {
		jobs = append(jobs, entry.job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})

	return jobs
}

// ActiveJobs counts queued and running jobs
func (s *JobService) ActiveJobs() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	active := 0
	for _, entry := range s.jobs {
		if !entry.job.Status.Finished() {
			active++
		}
	}
	return active
}

// Cancel stops a queued or running job. A running optimization notices the
// cancellation at its next round boundary. Finished jobs are left as they are.
func (s *JobService) Cancel(jobID string) (*Job, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}

	if !entry.job.Status.Finished() {
		now := time.Now()
		entry.job.Status = JobStatusCancelled
		entry.job.Message = "Cancelled"
		entry.job.CompletedAt = &now
		entry.job.UpdatedAt = now
		entry.cancel()
		jobsFinished.WithLabelValues(string(JobStatusCancelled)).Inc()

		log.Info().
			Str("job_id", jobID).
			Msg("Job cancelled")
	}

	job := entry.job
	return &job, nil
}

// Close cancels all unfinished jobs and waits for their goroutines
func (s *JobService) Close() {
	s.closeOnce.Do(func() {
		close(s.done)

		s.mutex.Lock()
		for _, entry := range s.jobs {
			entry.cancel()
		}
		s.mutex.Unlock()

		s.wg.Wait()
	})
}

// processJob processes a job in the background
func (s *JobService) processJob(entry *jobEntry) {
	defer s.wg.Done()
	defer entry.cancel()

	jobID := entry.job.ID

	// Acquire worker slot
	select {
	case s.workers <- struct{}{}:
	case <-entry.ctx.Done():
		s.failJob(jobID, entry.ctx.Err())
		return
	}
	defer func() { <-s.workers }()

	if !s.startJob(jobID) {
		return
	}
	jobsRunning.Inc()
	defer jobsRunning.Dec()

	log.Info().
		Str("job_id", jobID).
		Msg("Job processing started")

	result, err := bisbm.Run(entry.ctx, entry.graph, entry.config)
	if err != nil {
		s.failJob(jobID, err)
		return
	}

	s.completeJob(jobID, result)
}

// startJob moves a queued job to running. It returns false when the job was
// cancelled while it waited for a worker.
func (s *JobService) startJob(jobID string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, exists := s.jobs[jobID]
	if !exists || entry.job.Status != JobStatusQueued {
		return false
	}

	now := time.Now()
	entry.job.Status = JobStatusRunning
	entry.job.Message = "Running"
	entry.job.StartedAt = &now
	entry.job.UpdatedAt = now
	return true
}

// completeJob marks a job as completed with results
func (s *JobService) completeJob(jobID string, result *bisbm.Result) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, exists := s.jobs[jobID]
	if !exists || entry.job.Status != JobStatusRunning {
		return
	}

	now := time.Now()
	entry.job.Status = JobStatusCompleted
	entry.job.Message = "Complete"
	entry.job.CompletedAt = &now
	entry.job.UpdatedAt = now
	entry.job.Summary = &JobSummary{
		Score:     result.Score,
		Rounds:    result.Statistics.Rounds,
		Converged: result.Converged,
		RuntimeMS: result.Statistics.RuntimeMS,
	}

	s.results[jobID] = result
	jobsFinished.WithLabelValues(string(JobStatusCompleted)).Inc()
	jobDuration.Observe(float64(result.Statistics.RuntimeMS) / 1000)
	jobRounds.Observe(float64(result.Statistics.Rounds))

	log.Info().
		Str("job_id", jobID).
		Float64("score", float64(result.Score)).
		Int("rounds", result.Statistics.Rounds).
		Int64("runtime_ms", result.Statistics.RuntimeMS).
		Msg("Job completed successfully")
}

// failJob marks a job as failed unless it was already cancelled
func (s *JobService) failJob(jobID string, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	entry, exists := s.jobs[jobID]
	if !exists || entry.job.Status.Finished() {
		return
	}

	now := time.Now()
	entry.job.Status = JobStatusFailed
	entry.job.Error = err.Error()
	entry.job.Message = "Failed"
	if errors.Is(err, context.DeadlineExceeded) {
		entry.job.Message = "Timed out"
	}
	entry.job.CompletedAt = &now
	entry.job.UpdatedAt = now
	jobsFinished.WithLabelValues(string(JobStatusFailed)).Inc()

	log.Error().
		Str("job_id", jobID).
		Err(err).
		Msg("Job failed")
}

// cleanupLoop periodically cleans up old jobs and results
func (s *JobService) cleanupLoop() {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.done:
			return
		}
	}
}

// cleanup evicts finished jobs whose last update is older than the result TTL
func (s *JobService) cleanup() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	cleaned := 0

	for jobID, entry := range s.jobs {
		if entry.job.Status.Finished() && entry.job.UpdatedAt.Before(cutoff) {
			delete(s.jobs, jobID)
			delete(s.results, jobID)
			cleaned++
		}
	}

	if cleaned > 0 {
		log.Info().
			Int("cleaned_jobs", cleaned).
			Msg("Job cleanup completed")
	}
}
