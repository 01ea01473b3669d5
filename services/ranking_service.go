package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tripbites/tournament-ranking/cache"
	"github.com/tripbites/tournament-ranking/metrics"
	"github.com/tripbites/tournament-ranking/models"
	"github.com/tripbites/tournament-ranking/repositories"
	"github.com/tripbites/tournament-ranking/scoring"
	"github.com/tripbites/tournament-ranking/sentiment"
)

// SnapshotPublisher exposes a ranking outside the service.
// *storage.SnapshotPublisher implements it.
type SnapshotPublisher interface {
	Publish(ctx context.Context, s *models.RankingSnapshot) (string, error)
}

// RankingResult is a freshly computed ranking. Saved is false when the
// snapshot could not be persisted; the ranking itself is still valid.
type RankingResult struct {
	Snapshot          models.RankingSnapshot `json:"snapshot"`
	Saved             bool                   `json:"saved"`
	SentimentFallback bool                   `json:"sentiment_fallback"`
	PublicURL         string                 `json:"public_url,omitempty"`
}

// TripRanker generates a trip's ranking without a caller to authorize.
// RankingJob depends on it.
type TripRanker interface {
	GenerateForTrip(ctx context.Context, tripID string) (*RankingResult, error)
}

type RankingService interface {
	TripRanker
	// Generate and Latest require userID to be a member of the trip.
	Generate(ctx context.Context, tripID, userID string) (*RankingResult, error)
	Latest(ctx context.Context, tripID, userID string) (*models.RankingSnapshot, error)
}

type RankingOptions struct {
	CountByeWins bool
	Cache        cache.RankingCache
	Publisher    SnapshotPublisher
	Now          func() time.Time
}

type rankingService struct {
	tripRepo       repositories.TripRepository
	entryRepo      repositories.EntryRepository
	tournamentRepo repositories.TournamentRepository
	voteRepo       repositories.VoteRepository
	answerRepo     repositories.AnswerRepository
	rankingRepo    repositories.RankingRepository
	analyzer       sentiment.Analyzer
	opts           RankingOptions
	logger         *slog.Logger
}

func NewRankingService(
	tripRepo repositories.TripRepository,
	entryRepo repositories.EntryRepository,
	tournamentRepo repositories.TournamentRepository,
	voteRepo repositories.VoteRepository,
	answerRepo repositories.AnswerRepository,
	rankingRepo repositories.RankingRepository,
	analyzer sentiment.Analyzer,
	opts RankingOptions,
	logger *slog.Logger,
) RankingService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &rankingService{
		tripRepo:       tripRepo,
		entryRepo:      entryRepo,
		tournamentRepo: tournamentRepo,
		voteRepo:       voteRepo,
		answerRepo:     answerRepo,
		rankingRepo:    rankingRepo,
		analyzer:       analyzer,
		opts:           opts,
		logger:         orDiscard(logger),
	}
}

// FallbackComment is the comment given to an entry without sentiment.
func FallbackComment(title string) string {
	return title + " — composite ranking based on available scores."
}

type entrySignals struct {
	numeric []float64
	answers []string
	reviews []string
}

func (s *rankingService) Generate(ctx context.Context, tripID, userID string) (*RankingResult, error) {
	if tripID == "" {
		return nil, fmt.Errorf("%w: trip id is required", ErrValidationFailed)
	}
	if err := requireMember(ctx, s.tripRepo, tripID, userID); err != nil {
		return nil, err
	}
	return s.GenerateForTrip(ctx, tripID)
}

func (s *rankingService) GenerateForTrip(ctx context.Context, tripID string) (*RankingResult, error) {
	if tripID == "" {
		return nil, fmt.Errorf("%w: trip id is required", ErrValidationFailed)
	}

	entries, err := s.entryRepo.ListByTrip(ctx, tripID)
	if err != nil {
		metrics.RankingRuns.WithLabelValues("failed").Inc()
		return nil, dependencyError("list entries", err)
	}
	scorable := 0
	for _, e := range entries {
		if e.AvgScore != nil {
			scorable++
		}
	}
	if scorable < 2 {
		return nil, fmt.Errorf("%w to generate a ranking, trip has %d rated", ErrNotEnoughEntries, scorable)
	}

	var (
		tournaments []models.Tournament
		votes       []models.Vote
		answers     []models.AIAnswer
		reviews     []models.Review
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if tournaments, err = s.tournamentRepo.ListByTrip(gctx, tripID); err != nil {
			return dependencyError("list tournaments", err)
		}
		ids := make([]string, len(tournaments))
		for i, t := range tournaments {
			ids[i] = t.ID
		}
		if votes, err = s.voteRepo.ListByTournaments(gctx, ids); err != nil {
			return dependencyError("list votes", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if answers, err = s.answerRepo.ListByTrip(gctx, tripID); err != nil {
			return dependencyError("list ai answers", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if reviews, err = s.entryRepo.ListReviewsByTrip(gctx, tripID); err != nil {
			return dependencyError("list reviews", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		metrics.RankingRuns.WithLabelValues("failed").Inc()
		return nil, err
	}

	wins := tallyWins(tournaments, votes, s.opts.CountByeWins, s.logger)
	maxWins := 0
	for _, e := range entries {
		maxWins = max(maxWins, wins[e.ID])
	}

	signals := make(map[string]*entrySignals, len(entries))
	for _, e := range entries {
		signals[e.ID] = &entrySignals{}
	}
	for _, a := range answers {
		sig, ok := signals[a.EntryID]
		if !ok {
			continue
		}
		if a.NumericValue != nil {
			sig.numeric = append(sig.numeric, *a.NumericValue)
		}
		if a.TextValue != nil && *a.TextValue != "" {
			sig.answers = append(sig.answers, *a.TextValue)
		}
	}
	for _, r := range reviews {
		if sig, ok := signals[r.EntryID]; ok {
			sig.reviews = append(sig.reviews, r.Body)
		}
	}

	sentiments, fallback := s.analyze(ctx, tripID, entries, signals)

	rankings := make([]models.RankingEntry, 0, len(entries))
	for _, e := range entries {
		sig := signals[e.ID]
		aiAvg, ok := scoring.Mean(sig.numeric)
		if !ok {
			aiAvg = scoring.NeutralAIAverage
		}

		res, ok := sentiments[e.ID]
		if !ok {
			res = sentiment.Result{Score: scoring.NeutralSentiment, Comment: FallbackComment(e.Title)}
		}
		if res.Comment == "" {
			res.Comment = FallbackComment(e.Title)
		}

		var userScore float64
		if e.AvgScore != nil {
			userScore = *e.AvgScore
		}
		b := models.ScoreBreakdown{
			UserScore:   userScore,
			Tournament:  scoring.NormalizeWinRate(wins[e.ID], maxWins),
			AIQuestions: scoring.NormalizeAIResponseAvg(aiAvg),
			Sentiment:   scoring.Clamp(res.Score),
		}
		rankings = append(rankings, models.RankingEntry{
			EntryID:        e.ID,
			Title:          e.Title,
			RestaurantName: e.RestaurantName,
			CompositeScore: scoring.ComputeCompositeScore(b, scoring.DefaultWeights),
			Breakdown:      b,
			Comment:        res.Comment,
		})
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].CompositeScore > rankings[j].CompositeScore
	})
	for i := range rankings {
		rankings[i].Rank = i + 1
	}

	result := &RankingResult{
		Snapshot: models.RankingSnapshot{
			TripID:      tripID,
			Rankings:    rankings,
			Weights:     scoring.DefaultWeights,
			GeneratedAt: s.opts.Now().UTC(),
		},
		SentimentFallback: fallback,
	}

	if err := s.rankingRepo.ReplaceSnapshot(ctx, &result.Snapshot); err != nil {
		metrics.SnapshotSaveFailures.Inc()
		s.logger.WarnContext(ctx, "ranking snapshot not saved",
			slog.String("trip_id", tripID),
			slog.Any("error", err))
	} else {
		result.Saved = true
		s.afterSave(ctx, result)
	}

	metrics.RankingRuns.WithLabelValues("succeeded").Inc()
	s.logger.InfoContext(ctx, "ranking generated",
		slog.String("trip_id", tripID),
		slog.Int("entries", len(rankings)),
		slog.Int("max_wins", maxWins),
		slog.Bool("saved", result.Saved),
		slog.Bool("sentiment_fallback", fallback))
	return result, nil
}

// analyze makes one sentiment call for the whole trip. Any failure yields an
// empty map and fallback=true; callers fill in neutral values per entry.
func (s *rankingService) analyze(ctx context.Context, tripID string, entries []models.Entry, signals map[string]*entrySignals) (map[string]sentiment.Result, bool) {
	if s.analyzer == nil {
		metrics.SentimentFallbacks.Inc()
		return nil, true
	}

	items := make([]sentiment.Item, 0, len(entries))
	for _, e := range entries {
		sig := signals[e.ID]
		items = append(items, sentiment.Item{
			ID:         e.ID,
			Title:      e.Title,
			Restaurant: e.RestaurantName,
			Reviews:    nonNil(sig.reviews),
			Answers:    nonNil(sig.answers),
		})
	}

	results, err := s.analyzer.Analyze(ctx, items)
	if err != nil {
		metrics.SentimentFallbacks.Inc()
		level := slog.LevelWarn
		if errors.Is(err, sentiment.ErrDisabled) {
			level = slog.LevelDebug
		}
		s.logger.Log(ctx, level, "sentiment unavailable, using fallback",
			slog.String("trip_id", tripID),
			slog.Any("error", err))
		return nil, true
	}
	return results, false
}

func (s *rankingService) afterSave(ctx context.Context, result *RankingResult) {
	snap := &result.Snapshot
	if s.opts.Cache != nil {
		if err := s.opts.Cache.Set(ctx, snap); err != nil {
			s.logger.WarnContext(ctx, "failed to cache ranking snapshot",
				slog.String("trip_id", snap.TripID),
				slog.Any("error", err))
			// The previous snapshot must not outlive the one just saved.
			if err := s.opts.Cache.Invalidate(ctx, snap.TripID); err != nil {
				s.logger.WarnContext(ctx, "failed to invalidate cached ranking",
					slog.String("trip_id", snap.TripID),
					slog.Any("error", err))
			}
		}
	}
	if s.opts.Publisher != nil {
		url, err := s.opts.Publisher.Publish(ctx, snap)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to publish ranking snapshot",
				slog.String("trip_id", snap.TripID),
				slog.Any("error", err))
			return
		}
		result.PublicURL = url
	}
}

// Latest returns the stored snapshot, preferring the cache.
func (s *rankingService) Latest(ctx context.Context, tripID, userID string) (*models.RankingSnapshot, error) {
	if err := requireMember(ctx, s.tripRepo, tripID, userID); err != nil {
		return nil, err
	}
	if s.opts.Cache != nil {
		snap, err := s.opts.Cache.Get(ctx, tripID)
		if err != nil {
			s.logger.WarnContext(ctx, "ranking cache read failed",
				slog.String("trip_id", tripID),
				slog.Any("error", err))
		} else if snap != nil {
			return snap, nil
		}
	}

	snap, err := s.rankingRepo.GetLatest(ctx, tripID)
	if err != nil {
		if errors.Is(err, repositories.ErrSnapshotNotFound) {
			return nil, ErrRankingNotFound
		}
		return nil, dependencyError("get ranking snapshot", err)
	}
	if s.opts.Cache != nil {
		if err := s.opts.Cache.Set(ctx, snap); err != nil {
			s.logger.WarnContext(ctx, "failed to cache ranking snapshot",
				slog.String("trip_id", tripID),
				slog.Any("error", err))
		}
	}
	return snap, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
