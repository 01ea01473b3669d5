package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	TournamentsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "tournaments_created_total", Help: "Total tournaments created"},
	)
	VotesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "votes_recorded_total", Help: "Total votes appended, by kind"},
		[]string{"kind"},
	)
	RankingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ranking_runs_total", Help: "Total ranking runs, by outcome"},
		[]string{"outcome"},
	)
	SentimentFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "sentiment_fallbacks_total", Help: "Total ranking runs that used fallback sentiment"},
	)
	SnapshotSaveFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ranking_snapshot_save_failures_total", Help: "Total ranking snapshots that failed to persist"},
	)
)

func Register() {
	prometheus.MustRegister(TournamentsCreated, VotesRecorded, RankingRuns, SentimentFallbacks, SnapshotSaveFailures)
}
