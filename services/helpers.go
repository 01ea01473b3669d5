package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/tripbites/tournament-ranking/repositories"
)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// dependencyError classifies err as a collaborator failure while keeping it
// reachable through errors.Is.
func dependencyError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDependencyFailed, op, err)
}

// requireMember fails unless userID belongs to tripID.
func requireMember(ctx context.Context, trips repositories.TripRepository, tripID, userID string) error {
	if userID == "" {
		return ErrAuthenticationFailed
	}
	member, err := trips.IsMember(ctx, tripID, userID)
	if err != nil {
		return dependencyError("check trip membership", err)
	}
	if !member {
		return fmt.Errorf("%w: user %s is not a member of trip %s", ErrForbiddenOperation, userID, tripID)
	}
	return nil
}
