package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tripbites/tournament-ranking/brackets"
	"github.com/tripbites/tournament-ranking/metrics"
	"github.com/tripbites/tournament-ranking/models"
	"github.com/tripbites/tournament-ranking/repositories"
)

type TournamentService interface {
	Create(ctx context.Context, tripID, userID string) (*models.Tournament, error)
	// Get and GetActive only return tournaments of trips userID belongs to.
	Get(ctx context.Context, id, userID string) (*models.Tournament, error)
	GetActive(ctx context.Context, tripID, userID string) (*models.Tournament, error)
}

type tournamentService struct {
	tripRepo       repositories.TripRepository
	entryRepo      repositories.EntryRepository
	tournamentRepo repositories.TournamentRepository
	logger         *slog.Logger
}

func NewTournamentService(
	tripRepo repositories.TripRepository,
	entryRepo repositories.EntryRepository,
	tournamentRepo repositories.TournamentRepository,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		tripRepo:       tripRepo,
		entryRepo:      entryRepo,
		tournamentRepo: tournamentRepo,
		logger:         orDiscard(logger),
	}
}

// Create seeds a new single-elimination tournament over the trip's entries.
// Only trip members may create one, and a trip has at most one active
// tournament at a time.
func (s *tournamentService) Create(ctx context.Context, tripID, userID string) (*models.Tournament, error) {
	if userID == "" {
		return nil, ErrAuthenticationFailed
	}
	if tripID == "" {
		return nil, fmt.Errorf("%w: trip id is required", ErrValidationFailed)
	}

	if err := requireMember(ctx, s.tripRepo, tripID, userID); err != nil {
		return nil, err
	}

	entries, err := s.entryRepo.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, dependencyError("list entries", err)
	}
	if len(entries) < 2 {
		return nil, fmt.Errorf("%w to start a tournament, trip has %d", ErrNotEnoughEntries, len(entries))
	}

	if _, err := s.tournamentRepo.GetActiveByTrip(ctx, tripID); err == nil {
		return nil, ErrTournamentConflict
	} else if !errors.Is(err, repositories.ErrTournamentNotFound) {
		return nil, dependencyError("get active tournament", err)
	}

	seeded := brackets.SeededIDs(brackets.SeedEntries(entries))
	size, err := brackets.CalculateBracketSize(len(seeded))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	rounds, err := brackets.CalculateRounds(size)
	if err != nil {
		return nil, err
	}
	if _, err := brackets.GenerateRound1(seeded, size); err != nil {
		return nil, fmt.Errorf("build first round: %w", err)
	}
	if len(seeded) > brackets.MaxBracketSize {
		s.logger.WarnContext(ctx, "entries beyond bracket capacity excluded",
			slog.String("trip_id", tripID),
			slog.Int("entries", len(seeded)),
			slog.Int("bracket_size", size))
	}

	t := &models.Tournament{
		ID:           uuid.NewString(),
		TripID:       tripID,
		CreatedBy:    userID,
		Status:       models.StatusActive,
		TotalRounds:  rounds,
		TotalEntries: len(seeded),
		BracketSize:  size,
		SeededOrder:  seeded,
	}
	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrActiveTournamentExists) {
			return nil, ErrTournamentConflict
		}
		return nil, dependencyError("create tournament", err)
	}

	metrics.TournamentsCreated.Inc()
	s.logger.InfoContext(ctx, "tournament created",
		slog.String("tournament_id", t.ID),
		slog.String("trip_id", tripID),
		slog.Int("entries", t.TotalEntries),
		slog.Int("bracket_size", size),
		slog.Int("rounds", rounds))
	return t, nil
}

func (s *tournamentService) GetActive(ctx context.Context, tripID, userID string) (*models.Tournament, error) {
	if err := requireMember(ctx, s.tripRepo, tripID, userID); err != nil {
		return nil, err
	}
	t, err := s.tournamentRepo.GetActiveByTrip(ctx, tripID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, dependencyError("get active tournament", err)
	}
	return t, nil
}

func (s *tournamentService) Get(ctx context.Context, id, userID string) (*models.Tournament, error) {
	if userID == "" {
		return nil, ErrAuthenticationFailed
	}
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, dependencyError("get tournament", err)
	}
	if err := requireMember(ctx, s.tripRepo, t.TripID, userID); err != nil {
		return nil, err
	}
	return t, nil
}
