package bisbm

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/bisbm-service/pkg/utils"
)

// Refine runs sweeps starting from p until a sweep fails to beat the best
// score so far or maxIters sweeps have run. It returns the best partition
// and its score; the score never falls below Score(p). p is not modified.
func Refine(p Partition, a, b int, g Graph, maxIters int) (Partition, float64) {
	r, _ := refine(context.Background(), p, a, b, g, maxIters, refineOptions{
		scoring: ScoringFull,
		logger:  zerolog.Nop(),
	})
	return r.partition, r.score
}

type refineOptions struct {
	scoring  Scoring
	logger   zerolog.Logger
	progress bool
	tracker  *utils.MoveTracker
}

type refinement struct {
	partition    Partition
	score        float64
	initialScore float64
	converged    bool
	rounds       []RoundStats
	moves        int
	evaluations  int64
}

// refine is the convergence loop. The context is only checked between
// sweeps; a sweep in progress always runs to completion.
func refine(ctx context.Context, p Partition, a, b int, g Graph, maxIters int, opts refineOptions) (refinement, error) {
	best := p.Clone()
	score := Score(best, g, a, b)
	res := refinement{
		partition:    best,
		score:        score,
		initialScore: score,
		rounds:       make([]RoundStats, 0),
	}

	trackerFailed := false
	for round := 0; round < maxIters; round++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		roundStart := time.Now()
		if opts.progress {
			opts.logger.Info().
				Int("round", round).
				Float64("best_score", score).
				Msg("Starting sweep")
		}

		commits := 0
		sr := sweep(best, a, b, g, opts.scoring, func(s Step) {
			if s.ToGroup != s.FromGroup {
				commits++
			}
			if err := opts.tracker.LogMove(round, s.Step, s.Vertex, s.FromGroup, s.ToGroup, float64(s.Score)); err != nil && !trackerFailed {
				trackerFailed = true
				opts.logger.Warn().Err(err).Msg("Move tracking failed, further errors suppressed")
			}
		})

		accepted := float64(sr.Score) > score
		res.moves += commits
		res.evaluations += sr.Evaluations
		res.rounds = append(res.rounds, RoundStats{
			Round:        round,
			InitialScore: LogLikelihood(score),
			SweepScore:   sr.Score,
			BestStep:     sr.BestStep,
			Accepted:     accepted,
			Evaluations:  sr.Evaluations,
			RuntimeMS:    time.Since(roundStart).Milliseconds(),
		})

		opts.logger.Debug().
			Int("round", round).
			Float64("sweep_score", float64(sr.Score)).
			Int("best_step", sr.BestStep).
			Int("commits", commits).
			Int64("evaluations", sr.Evaluations).
			Msg("Sweep finished")

		if !accepted {
			opts.logger.Info().
				Int("round", round).
				Float64("score", score).
				Msg("Score has not improved, converged")
			res.converged = true
			return res, nil
		}

		best = sr.Partition
		score = float64(sr.Score)
		res.partition = best
		res.score = score
	}

	opts.logger.Info().
		Int("max_iterations", maxIters).
		Float64("score", score).
		Msg("Iteration limit reached")
	return res, nil
}

// labeler is implemented by graphs that remember source node identifiers
type labeler interface {
	Label(v int) string
}

// Run initializes a random partition from the configured seed and refines it.
// A negative seed is rejected: callers resolve time-based seeds themselves.
func Run(ctx context.Context, g Graph, config *Config) (*Result, error) {
	a, b := config.GroupsA(), config.GroupsB()
	if a <= 0 || b <= 0 {
		return nil, fmt.Errorf("%w: a=%d, b=%d", ErrInvalidGroupCount, a, b)
	}

	seed := config.RandomSeed()
	if seed < 0 {
		return nil, fmt.Errorf("%w: random seed %d is not resolved", ErrInvalidConfig, seed)
	}

	rng := rand.New(rand.NewSource(seed))
	p, err := NewRandomPartition(Types(g), a, b, rng)
	if err != nil {
		return nil, err
	}
	return RunFrom(ctx, g, p, config)
}

// RunFrom refines the given initial partition according to config
func RunFrom(ctx context.Context, g Graph, initial Partition, config *Config) (*Result, error) {
	startTime := time.Now()
	a, b := config.GroupsA(), config.GroupsB()

	if err := initial.Validate(g, a, b); err != nil {
		return nil, err
	}
	if config.MaxIterations() < 0 {
		return nil, fmt.Errorf("%w: max iterations %d is negative", ErrInvalidConfig, config.MaxIterations())
	}
	scoring, err := ParseScoring(config.Scoring())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	runID := uuid.NewString()
	logger := config.CreateLogger().With().Str("run_id", runID).Logger()

	var tracker *utils.MoveTracker
	if config.EnableMoveTracking() {
		tracker, err = utils.NewMoveTracker(config.TrackingOutputFile(), "bisbm")
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := tracker.Close(); err != nil {
				logger.Warn().Err(err).Msg("Failed to close move tracker")
			}
		}()
	}

	logger.Info().
		Int("nodes", g.NumNodes()).
		Int("groups_a", a).
		Int("groups_b", b).
		Int("max_iterations", config.MaxIterations()).
		Str("scoring", string(scoring)).
		Msg("Starting biSBM optimization")

	r, err := refine(ctx, initial, a, b, g, config.MaxIterations(), refineOptions{
		scoring:  scoring,
		logger:   logger,
		progress: config.EnableProgress(),
		tracker:  tracker,
	})
	if err != nil {
		return nil, fmt.Errorf("optimization interrupted after %d rounds: %w", len(r.rounds), err)
	}

	result := &Result{
		RunID:        runID,
		Partition:    r.partition,
		Score:        LogLikelihood(r.score),
		InitialScore: LogLikelihood(r.initialScore),
		GroupsA:      a,
		GroupsB:      b,
		Converged:    r.converged,
		Blocks:       Blocks(r.partition, g, a, b),
		Statistics: Statistics{
			Rounds:      len(r.rounds),
			TotalMoves:  r.moves,
			Evaluations: r.evaluations,
			RuntimeMS:   time.Since(startTime).Milliseconds(),
			RoundStats:  r.rounds,
		},
	}
	if l, ok := g.(labeler); ok {
		result.Labels = make([]string, g.NumNodes())
		for v := range result.Labels {
			result.Labels[v] = l.Label(v)
		}
	}

	logger.Info().
		Float64("initial_score", r.initialScore).
		Float64("score", r.score).
		Int("rounds", len(r.rounds)).
		Bool("converged", r.converged).
		Int64("runtime_ms", result.Statistics.RuntimeMS).
		Msg("biSBM optimization completed")

	return result, nil
}
