package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tripbites/tournament-ranking/repositories"
)

// minRankableEntries is the smallest trip the batch job bothers ranking.
const minRankableEntries = 2

// JobReport summarizes one batch run. Failed maps trip id to its error.
type JobReport struct {
	Total     int
	Succeeded int
	Failed    map[string]error
	Duration  time.Duration
}

// RankingJob ranks every public trip in small concurrent batches.
type RankingJob struct {
	tripRepo  repositories.TripRepository
	ranking   TripRanker
	batchSize int
	logger    *slog.Logger
}

func NewRankingJob(tripRepo repositories.TripRepository, ranking TripRanker, batchSize int, logger *slog.Logger) *RankingJob {
	if batchSize <= 0 {
		batchSize = 3
	}
	return &RankingJob{
		tripRepo:  tripRepo,
		ranking:   ranking,
		batchSize: batchSize,
		logger:    orDiscard(logger),
	}
}

// RunAll ranks trips batchSize at a time. A trip that fails is recorded in
// the report and never cancels its siblings.
func (j *RankingJob) RunAll(ctx context.Context) (*JobReport, error) {
	start := time.Now()
	trips, err := j.tripRepo.ListRankable(ctx, minRankableEntries)
	if err != nil {
		return nil, dependencyError("list rankable trips", err)
	}

	report := &JobReport{Total: len(trips), Failed: make(map[string]error)}
	var mu sync.Mutex

	for i := 0; i < len(trips); i += j.batchSize {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		batch := trips[i:min(i+j.batchSize, len(trips))]

		var g errgroup.Group
		for _, trip := range batch {
			g.Go(func() error {
				_, err := j.ranking.GenerateForTrip(ctx, trip.ID)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					report.Failed[trip.ID] = err
					j.logger.WarnContext(ctx, "ranking failed for trip",
						slog.String("trip_id", trip.ID),
						slog.Any("error", err))
					return nil
				}
				report.Succeeded++
				return nil
			})
		}
		_ = g.Wait()
	}

	report.Duration = time.Since(start)
	j.logger.InfoContext(ctx, "ranking batch finished",
		slog.Int("trips", report.Total),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", len(report.Failed)),
		slog.Duration("duration", report.Duration))
	return report, nil
}
