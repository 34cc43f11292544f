package auth

import (
	"context"
	"errors"
	"fmt"
)

var ErrAccountSuspended = errors.New("account suspended")

// ActorStore looks up the stored account behind a token subject.
type ActorStore interface {
	FindUserByID(ctx context.Context, id string) (User, error)
}

// ResolveActor replaces the role and username carried by a token with the
// stored ones. Tokens outlive role changes and suspensions, so privilege is
// always taken from the account row.
func ResolveActor(ctx context.Context, users ActorStore, claimed Actor) (Actor, error) {
	u, err := users.FindUserByID(ctx, claimed.ID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return Actor{}, ErrUserNotFound
		}
		return Actor{}, fmt.Errorf("resolve actor: %w", err)
	}
	if !u.IsActive {
		return Actor{}, ErrAccountSuspended
	}
	if !u.Role.Valid() {
		return Actor{}, ErrInvalidToken
	}
	return Actor{ID: u.ID, Username: u.Username, Role: u.Role}, nil
}
