package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poster_jobs_submitted_total",
		Help: "Poster jobs accepted for processing.",
	}, []string{"level"})

	jobsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "poster_jobs_finished_total",
		Help: "Poster jobs that reached a terminal status.",
	}, []string{"status"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poster_job_stage_duration_seconds",
		Help:    "Duration of each poster pipeline stage.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
)
