package services

import (
	"context"
	"sync"

	"github.com/tripbites/tournament-ranking/brackets"
	"github.com/tripbites/tournament-ranking/models"
	"github.com/tripbites/tournament-ranking/repositories"
	"github.com/tripbites/tournament-ranking/sentiment"
)

// ------------------------
// Fake Trip Repository
// ------------------------

type FakeTripRepo struct {
	trace []string

	IsMemberFunc     func(ctx context.Context, tripID, userID string) (bool, error)
	ListRankableFunc func(ctx context.Context, minEntries int) ([]models.Trip, error)
}

func (f *FakeTripRepo) record(step string) { f.trace = append(f.trace, step) }
func (f *FakeTripRepo) Trace() []string    { return f.trace }

func (f *FakeTripRepo) IsMember(ctx context.Context, tripID, userID string) (bool, error) {
	f.record("IsMember")
	if f.IsMemberFunc != nil {
		return f.IsMemberFunc(ctx, tripID, userID)
	}
	return true, nil
}

func (f *FakeTripRepo) ListRankable(ctx context.Context, minEntries int) ([]models.Trip, error) {
	f.record("ListRankable")
	if f.ListRankableFunc != nil {
		return f.ListRankableFunc(ctx, minEntries)
	}
	return nil, nil
}

// ------------------------
// Fake Entry Repository
// ------------------------

type FakeEntryRepo struct {
	Entries []models.Entry
	Reviews []models.Review

	ListByTripFunc        func(ctx context.Context, tripID string) ([]models.Entry, error)
	ListReviewsByTripFunc func(ctx context.Context, tripID string) ([]models.Review, error)
}

func (f *FakeEntryRepo) ListByTrip(ctx context.Context, tripID string) ([]models.Entry, error) {
	if f.ListByTripFunc != nil {
		return f.ListByTripFunc(ctx, tripID)
	}
	return f.Entries, nil
}

func (f *FakeEntryRepo) ListReviewsByTrip(ctx context.Context, tripID string) ([]models.Review, error) {
	if f.ListReviewsByTripFunc != nil {
		return f.ListReviewsByTripFunc(ctx, tripID)
	}
	return f.Reviews, nil
}

// ------------------------
// Fake Tournament Repository
// ------------------------

type FakeTournamentRepo struct {
	mu          sync.Mutex
	trace       []string
	Tournaments map[string]*models.Tournament

	CreateFunc          func(ctx context.Context, t *models.Tournament) error
	GetActiveByTripFunc func(ctx context.Context, tripID string) (*models.Tournament, error)
}

func NewFakeTournamentRepo(ts ...*models.Tournament) *FakeTournamentRepo {
	f := &FakeTournamentRepo{Tournaments: make(map[string]*models.Tournament)}
	for _, t := range ts {
		f.Tournaments[t.ID] = t
	}
	return f
}

func (f *FakeTournamentRepo) record(step string) { f.trace = append(f.trace, step) }
func (f *FakeTournamentRepo) Trace() []string    { return f.trace }

func (f *FakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, t)
	}
	f.Tournaments[t.ID] = t
	return nil
}

func (f *FakeTournamentRepo) GetByID(_ context.Context, id string) (*models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetByID")
	t, ok := f.Tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	return t, nil
}

func (f *FakeTournamentRepo) GetActiveByTrip(ctx context.Context, tripID string) (*models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetActiveByTrip")
	if f.GetActiveByTripFunc != nil {
		return f.GetActiveByTripFunc(ctx, tripID)
	}
	for _, t := range f.Tournaments {
		if t.TripID == tripID && t.Status == models.StatusActive {
			return t, nil
		}
	}
	return nil, repositories.ErrTournamentNotFound
}

func (f *FakeTournamentRepo) ListByTrip(_ context.Context, tripID string) ([]models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListByTrip")
	var out []models.Tournament
	for _, t := range f.Tournaments {
		if t.TripID == tripID {
			out = append(out, *t)
		}
	}
	return out, nil
}

// ------------------------
// Fake Vote Repository
// ------------------------

type FakeVoteRepo struct {
	mu    sync.Mutex
	Votes []models.Vote

	AppendFunc            func(ctx context.Context, v *models.Vote) error
	ListByTournamentsFunc func(ctx context.Context, ids []string) ([]models.Vote, error)
}

func (f *FakeVoteRepo) Append(ctx context.Context, v *models.Vote) error {
	if f.AppendFunc != nil {
		if err := f.AppendFunc(ctx, v); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, prev := range f.Votes {
		if prev.TournamentID == v.TournamentID && prev.VoterID == v.VoterID &&
			prev.Round == v.Round && prev.MatchOrder == v.MatchOrder {
			return repositories.ErrDuplicateVote
		}
	}
	f.Votes = append(f.Votes, *v)
	return nil
}

func (f *FakeVoteRepo) ListByVoter(_ context.Context, tournamentID, voterID string) ([]models.Vote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Vote
	for _, v := range f.Votes {
		if v.TournamentID == tournamentID && v.VoterID == voterID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *FakeVoteRepo) ListByTournaments(ctx context.Context, ids []string) ([]models.Vote, error) {
	if f.ListByTournamentsFunc != nil {
		return f.ListByTournamentsFunc(ctx, ids)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Vote
	for _, v := range f.Votes {
		if want[v.TournamentID] {
			out = append(out, v)
		}
	}
	return out, nil
}

// ------------------------
// Fake Answer Repository
// ------------------------

type FakeAnswerRepo struct {
	Answers []models.AIAnswer

	ListByTripFunc func(ctx context.Context, tripID string) ([]models.AIAnswer, error)
}

func (f *FakeAnswerRepo) ListByTrip(ctx context.Context, tripID string) ([]models.AIAnswer, error) {
	if f.ListByTripFunc != nil {
		return f.ListByTripFunc(ctx, tripID)
	}
	return f.Answers, nil
}

// ------------------------
// Fake Ranking Repository
// ------------------------

type FakeRankingRepo struct {
	mu        sync.Mutex
	Snapshots map[string]*models.RankingSnapshot
	Replaced  int

	ReplaceSnapshotFunc func(ctx context.Context, s *models.RankingSnapshot) error
}

func (f *FakeRankingRepo) ReplaceSnapshot(ctx context.Context, s *models.RankingSnapshot) error {
	if f.ReplaceSnapshotFunc != nil {
		if err := f.ReplaceSnapshotFunc(ctx, s); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Snapshots == nil {
		f.Snapshots = make(map[string]*models.RankingSnapshot)
	}
	cp := *s
	f.Snapshots[s.TripID] = &cp
	f.Replaced++
	return nil
}

func (f *FakeRankingRepo) GetLatest(_ context.Context, tripID string) (*models.RankingSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.Snapshots[tripID]
	if !ok {
		return nil, repositories.ErrSnapshotNotFound
	}
	return s, nil
}

// ------------------------
// Fake collaborators
// ------------------------

type FakeAnalyzer struct {
	Calls int
	Items []sentiment.Item

	AnalyzeFunc func(ctx context.Context, items []sentiment.Item) (map[string]sentiment.Result, error)
}

func (f *FakeAnalyzer) Analyze(ctx context.Context, items []sentiment.Item) (map[string]sentiment.Result, error) {
	f.Calls++
	f.Items = items
	if f.AnalyzeFunc != nil {
		return f.AnalyzeFunc(ctx, items)
	}
	return map[string]sentiment.Result{}, nil
}

type FakeBroadcaster struct {
	mu     sync.Mutex
	Events []brackets.Event
	Rooms  []string
}

func (f *FakeBroadcaster) BroadcastToRoom(roomID string, ev brackets.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Rooms = append(f.Rooms, roomID)
	f.Events = append(f.Events, ev)
}

type FakeCache struct {
	Data        map[string]*models.RankingSnapshot
	Gets        int
	Sets        int
	Invalidated []string
	SetErr      error

	GetFunc func(ctx context.Context, tripID string) (*models.RankingSnapshot, error)
}

func (f *FakeCache) Get(ctx context.Context, tripID string) (*models.RankingSnapshot, error) {
	f.Gets++
	if f.GetFunc != nil {
		return f.GetFunc(ctx, tripID)
	}
	return f.Data[tripID], nil
}

func (f *FakeCache) Set(_ context.Context, s *models.RankingSnapshot) error {
	f.Sets++
	if f.SetErr != nil {
		return f.SetErr
	}
	if f.Data == nil {
		f.Data = make(map[string]*models.RankingSnapshot)
	}
	f.Data[s.TripID] = s
	return nil
}

func (f *FakeCache) Invalidate(_ context.Context, tripID string) error {
	f.Invalidated = append(f.Invalidated, tripID)
	delete(f.Data, tripID)
	return nil
}

type FakePublisher struct {
	Published []string
	Err       error
}

func (f *FakePublisher) Publish(_ context.Context, s *models.RankingSnapshot) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	f.Published = append(f.Published, s.TripID)
	return "https://cdn.example.com/rankings/" + s.TripID + ".json", nil
}

type FakeRankingService struct {
	mu    sync.Mutex
	Calls []string

	GenerateFunc func(ctx context.Context, tripID string) (*RankingResult, error)
}

func (f *FakeRankingService) Generate(ctx context.Context, tripID, _ string) (*RankingResult, error) {
	return f.GenerateForTrip(ctx, tripID)
}

func (f *FakeRankingService) GenerateForTrip(ctx context.Context, tripID string) (*RankingResult, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, tripID)
	f.mu.Unlock()
	if f.GenerateFunc != nil {
		return f.GenerateFunc(ctx, tripID)
	}
	return &RankingResult{Saved: true}, nil
}

func (f *FakeRankingService) Latest(context.Context, string, string) (*models.RankingSnapshot, error) {
	return nil, ErrRankingNotFound
}
