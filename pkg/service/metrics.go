package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bisbm_jobs_submitted_total",
		Help: "Jobs accepted for processing",
	})

	jobsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bisbm_jobs_rejected_total",
		Help: "Submissions rejected before queueing",
	})

	jobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bisbm_jobs_finished_total",
		Help: "Jobs that reached a terminal state",
	}, []string{"status"})

	jobsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bisbm_jobs_running",
		Help: "Jobs currently holding a worker slot",
	})

	jobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bisbm_job_duration_seconds",
		Help:    "Optimization time of completed jobs",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	jobRounds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bisbm_job_rounds",
		Help:    "Refinement sweeps run by completed jobs",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
	})
)
