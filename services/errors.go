package services

import (
	"errors"

	"github.com/tripbites/tournament-ranking/brackets"
)

// Errors shared by the services and mapped to HTTP statuses by handlers.
var (
	// Invalid input
	ErrValidationFailed   = errors.New("validation failed")
	ErrNotEnoughEntries   = errors.New("need at least 2 entries")
	ErrEntrantCountTooLow = brackets.ErrEntrantCountTooLow
	ErrInvalidWinner      = errors.New("winner is not an entrant of the current match")

	// Conflicts
	ErrTournamentConflict = errors.New("an active tournament is already running for this trip")
	ErrTournamentClosed   = errors.New("tournament is no longer accepting votes")
	ErrVoteInFlight       = errors.New("a vote is already being recorded")
	ErrNoCurrentMatch     = errors.New("bracket is complete, no match to vote on")
	ErrMatchIsBye         = errors.New("current match is a bye")
	ErrMatchNotBye        = errors.New("current match is not a bye")

	// Authentication and authorization
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Not found
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrRankingNotFound    = errors.New("no ranking has been generated for this trip")

	// Storage, network and other collaborator failures
	ErrDependencyFailed = errors.New("dependency failed")
)
