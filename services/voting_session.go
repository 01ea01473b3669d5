package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tripbites/tournament-ranking/brackets"
	"github.com/tripbites/tournament-ranking/metrics"
	"github.com/tripbites/tournament-ranking/models"
	"github.com/tripbites/tournament-ranking/repositories"
)

// Broadcaster pushes live events to websocket rooms. *brackets.Hub
// implements it.
type Broadcaster interface {
	BroadcastToRoom(roomID string, ev brackets.Event)
}

type VoteRecordedPayload struct {
	TournamentID string `json:"tournament_id"`
	VoterID      string `json:"voter_id"`
	Round        int    `json:"round"`
	MatchOrder   int    `json:"match_order"`
	WinnerID     string `json:"winner_id"`
	VoterDone    bool   `json:"voter_done"`
}

// Session is one voter's walk through a tournament. The current match is
// always recomputed from the seeded order and the voter's votes; nothing
// else is remembered between calls.
type Session struct {
	tournament *models.Tournament
	voterID    string
	votes      []models.Vote
	state      brackets.State

	store       repositories.VoteRepository
	broadcaster Broadcaster
	logger      *slog.Logger

	// mu is held for the duration of a write; TryLock failing means a vote
	// is in flight.
	mu sync.Mutex
}

func newSession(t *models.Tournament, voterID string, votes []models.Vote, store repositories.VoteRepository, b Broadcaster, logger *slog.Logger) (*Session, error) {
	state, err := brackets.ComputeCurrentState(t, votes)
	if err != nil {
		return nil, err
	}
	return &Session{
		tournament:  t,
		voterID:     voterID,
		votes:       votes,
		state:       state,
		store:       store,
		broadcaster: b,
		logger:      logger,
	}, nil
}

// State returns the voter's current position.
func (s *Session) State() brackets.State {
	return s.state
}

func (s *Session) Votes() []models.Vote {
	out := make([]models.Vote, len(s.votes))
	copy(out, s.votes)
	return out
}

// Vote records winnerID for the current contested match, then skips any
// byes that follow it.
func (s *Session) Vote(ctx context.Context, winnerID string) (brackets.State, error) {
	if !s.mu.TryLock() {
		return s.state, ErrVoteInFlight
	}
	defer s.mu.Unlock()

	m := s.state.Match
	switch {
	case m == nil:
		return s.state, ErrNoCurrentMatch
	case m.IsBye():
		return s.state, ErrMatchIsBye
	case !m.Has(winnerID):
		return s.state, fmt.Errorf("%w: %q", ErrInvalidWinner, winnerID)
	}

	v := models.Vote{
		Kind:     models.VoteDecided,
		EntryB:   m.EntryB,
		WinnerID: winnerID,
	}
	if err := s.record(ctx, *m, v); err != nil {
		return s.state, err
	}

	// The decided vote is durable even when a following bye fails.
	advErr := s.advanceByes(ctx)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToRoom(brackets.RoomForTournament(s.tournament.ID), brackets.Event{
			Type: brackets.EventVoteRecorded,
			Payload: VoteRecordedPayload{
				TournamentID: s.tournament.ID,
				VoterID:      s.voterID,
				Round:        m.Round,
				MatchOrder:   m.MatchOrder,
				WinnerID:     winnerID,
				VoterDone:    s.state.IsComplete,
			},
		})
	}
	return s.state, advErr
}

// VoteBye records the pending bye of the current match.
func (s *Session) VoteBye(ctx context.Context) (brackets.State, error) {
	if !s.mu.TryLock() {
		return s.state, ErrVoteInFlight
	}
	defer s.mu.Unlock()

	if err := s.voteBye(ctx); err != nil {
		return s.state, err
	}
	return s.state, nil
}

// AdvanceByes records byes until the current match is contested or the
// voter is done.
func (s *Session) AdvanceByes(ctx context.Context) (brackets.State, error) {
	if !s.mu.TryLock() {
		return s.state, ErrVoteInFlight
	}
	defer s.mu.Unlock()

	if err := s.advanceByes(ctx); err != nil {
		return s.state, err
	}
	return s.state, nil
}

func (s *Session) advanceByes(ctx context.Context) error {
	for s.state.Match != nil && s.state.Match.IsBye() {
		if err := s.voteBye(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) voteBye(ctx context.Context) error {
	m := s.state.Match
	if m == nil {
		return ErrNoCurrentMatch
	}
	if !m.IsBye() {
		return ErrMatchNotBye
	}
	return s.record(ctx, *m, models.Vote{Kind: models.VoteBye, WinnerID: m.EntryA})
}

// record appends v against m and replays. s.votes and s.state only change
// once the store accepted the row.
func (s *Session) record(ctx context.Context, m models.Match, v models.Vote) error {
	v.ID = uuid.NewString()
	v.TournamentID = s.tournament.ID
	v.VoterID = s.voterID
	v.Round = m.Round
	v.MatchOrder = m.MatchOrder
	v.EntryA = m.EntryA

	if err := s.store.Append(ctx, &v); err != nil {
		// Another writer answered this match first.
		if errors.Is(err, repositories.ErrDuplicateVote) {
			return fmt.Errorf("%w: round %d match %d already answered", ErrVoteInFlight, v.Round, v.MatchOrder)
		}
		return dependencyError("append vote", err)
	}

	votes := make([]models.Vote, len(s.votes), len(s.votes)+1)
	copy(votes, s.votes)
	votes = append(votes, v)

	state, err := brackets.ComputeCurrentState(s.tournament, votes)
	if err != nil {
		return fmt.Errorf("replay after vote %s: %w", v.ID, err)
	}
	s.votes = votes
	s.state = state

	metrics.VotesRecorded.WithLabelValues(string(v.Kind)).Inc()
	s.logger.DebugContext(ctx, "vote recorded",
		slog.String("tournament_id", v.TournamentID),
		slog.String("voter_id", v.VoterID),
		slog.String("kind", string(v.Kind)),
		slog.Int("round", v.Round),
		slog.Int("match_order", v.MatchOrder))
	return nil
}

type VotingService interface {
	// Load opens the voter's session and records any pending byes.
	Load(ctx context.Context, tournamentID, voterID string) (*Session, error)
	CastVote(ctx context.Context, tournamentID, voterID, winnerID string) (brackets.State, error)
	Results(ctx context.Context, tournamentID, userID string) ([]models.EntrantResult, error)
}

type votingService struct {
	tournamentRepo repositories.TournamentRepository
	tripRepo       repositories.TripRepository
	voteRepo       repositories.VoteRepository
	broadcaster    Broadcaster
	countByeWins   bool
	logger         *slog.Logger

	// inflight holds one key per (tournament, voter) with a write running.
	inflight sync.Map
}

func NewVotingService(
	tournamentRepo repositories.TournamentRepository,
	tripRepo repositories.TripRepository,
	voteRepo repositories.VoteRepository,
	broadcaster Broadcaster,
	countByeWins bool,
	logger *slog.Logger,
) VotingService {
	return &votingService{
		tournamentRepo: tournamentRepo,
		tripRepo:       tripRepo,
		voteRepo:       voteRepo,
		broadcaster:    broadcaster,
		countByeWins:   countByeWins,
		logger:         orDiscard(logger),
	}
}

func (s *votingService) getTournament(ctx context.Context, id string) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, dependencyError("get tournament", err)
	}
	return t, nil
}

func (s *votingService) Load(ctx context.Context, tournamentID, voterID string) (*Session, error) {
	if voterID == "" {
		return nil, ErrAuthenticationFailed
	}
	key := tournamentID + ":" + voterID
	if _, busy := s.inflight.LoadOrStore(key, struct{}{}); busy {
		return nil, ErrVoteInFlight
	}
	defer s.inflight.Delete(key)

	sess, err := s.open(ctx, tournamentID, voterID)
	if err != nil {
		return nil, err
	}
	if sess.tournament.Status == models.StatusActive {
		if _, err := sess.AdvanceByes(ctx); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func (s *votingService) open(ctx context.Context, tournamentID, voterID string) (*Session, error) {
	t, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(ctx, s.tripRepo, t.TripID, voterID); err != nil {
		return nil, err
	}

	votes, err := s.voteRepo.ListByVoter(ctx, t.ID, voterID)
	if err != nil {
		return nil, dependencyError("list votes", err)
	}
	sess, err := newSession(t, voterID, votes, s.voteRepo, s.broadcaster, s.logger)
	if err != nil {
		return nil, fmt.Errorf("tournament %s is corrupt: %w", t.ID, err)
	}
	return sess, nil
}

func (s *votingService) CastVote(ctx context.Context, tournamentID, voterID, winnerID string) (brackets.State, error) {
	if voterID == "" {
		return brackets.State{}, ErrAuthenticationFailed
	}
	if winnerID == "" {
		return brackets.State{}, fmt.Errorf("%w: winner_id is required", ErrValidationFailed)
	}
	key := tournamentID + ":" + voterID
	if _, busy := s.inflight.LoadOrStore(key, struct{}{}); busy {
		return brackets.State{}, ErrVoteInFlight
	}
	defer s.inflight.Delete(key)

	sess, err := s.open(ctx, tournamentID, voterID)
	if err != nil {
		return brackets.State{}, err
	}
	if sess.tournament.Status != models.StatusActive {
		return sess.State(), ErrTournamentClosed
	}
	if _, err := sess.AdvanceByes(ctx); err != nil {
		return sess.State(), err
	}
	return sess.Vote(ctx, winnerID)
}

// Results tallies every voter's accepted winners. Entrants with more wins
// come first; ties keep seeded order.
func (s *votingService) Results(ctx context.Context, tournamentID, userID string) ([]models.EntrantResult, error) {
	if userID == "" {
		return nil, ErrAuthenticationFailed
	}
	t, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(ctx, s.tripRepo, t.TripID, userID); err != nil {
		return nil, err
	}
	votes, err := s.voteRepo.ListByTournaments(ctx, []string{t.ID})
	if err != nil {
		return nil, dependencyError("list votes", err)
	}

	wins := tallyWins([]models.Tournament{*t}, votes, s.countByeWins, s.logger)
	results := make([]models.EntrantResult, 0, len(t.SeededOrder))
	for _, id := range t.SeededOrder {
		results = append(results, models.EntrantResult{EntryID: id, Wins: wins[id]})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Wins > results[j].Wins
	})
	return results, nil
}

// tallyWins counts the winners of the votes each voter's replay accepts, so
// duplicate rows and votes for pairings the bracket never produced score
// nothing. votes must be in append order.
func tallyWins(tournaments []models.Tournament, votes []models.Vote, countByes bool, logger *slog.Logger) map[string]int {
	type ballot struct {
		voters []string
		votes  map[string][]models.Vote
	}
	ballots := make(map[string]*ballot, len(tournaments))
	for _, v := range votes {
		b, ok := ballots[v.TournamentID]
		if !ok {
			b = &ballot{votes: make(map[string][]models.Vote)}
			ballots[v.TournamentID] = b
		}
		if _, seen := b.votes[v.VoterID]; !seen {
			b.voters = append(b.voters, v.VoterID)
		}
		b.votes[v.VoterID] = append(b.votes[v.VoterID], v)
	}

	wins := make(map[string]int)
	for i := range tournaments {
		t := &tournaments[i]
		b, ok := ballots[t.ID]
		if !ok {
			continue
		}
		for _, voter := range b.voters {
			accepted, err := brackets.AcceptedVotes(t, b.votes[voter])
			if err != nil {
				logger.Warn("skipping votes of unreadable tournament",
					slog.String("tournament_id", t.ID),
					slog.Any("error", err))
				break
			}
			for _, v := range accepted {
				if v.IsBye() && !countByes {
					continue
				}
				wins[v.WinnerID]++
			}
		}
	}
	return wins
}
