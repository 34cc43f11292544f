package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type BootstrapStore interface {
	UserStore
	CreateUser(ctx context.Context, u User) error
	SetUserRole(ctx context.Context, email string, role Role) error
}

// BootstrapRequest names the first admin master account.
type BootstrapRequest struct {
	Email    string
	Username string
	Password string
}

// BootstrapMaster makes sure the configured account exists with the admin
// master role. An existing account keeps its password and is only promoted.
// It reports whether anything changed.
func BootstrapMaster(ctx context.Context, users BootstrapStore, req BootstrapRequest) (bool, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return false, errors.New("bootstrap email required")
	}

	existing, err := users.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == RoleAdminMaster {
			return false, nil
		}
		if err := users.SetUserRole(ctx, email, RoleAdminMaster); err != nil {
			return false, fmt.Errorf("promote %s: %w", email, err)
		}
		return true, nil
	case !errors.Is(err, ErrUserNotFound):
		return false, fmt.Errorf("look up %s: %w", email, err)
	}

	if len(req.Password) < 12 {
		return false, errors.New("bootstrap password must be at least 12 characters")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		username = strings.SplitN(email, "@", 2)[0]
	}
	err = users.CreateUser(ctx, User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         RoleAdminMaster,
		IsActive:     true,
	})
	if err != nil {
		return false, fmt.Errorf("create %s: %w", email, err)
	}
	return true, nil
}
