package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sudo-init-do/gamemarket/internal/auth"
)

var ErrEmailTaken = errors.New("email already registered")

// UserSummary is the admin view of an account.
type UserSummary struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *Repository) FindUserByEmail(ctx context.Context, email string) (auth.User, error) {
	const query = `SELECT id, username, email, password, role, is_active FROM users WHERE lower(email) = lower($1)`

	var (
		u    auth.User
		role string
	)
	err := r.queryRow(ctx, query, email).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.User{}, auth.ErrUserNotFound
		}
		return auth.User{}, fmt.Errorf("find user: %w", err)
	}
	u.Role = auth.Role(role)
	return u, nil
}

func (r *Repository) FindUserByID(ctx context.Context, id string) (auth.User, error) {
	const query = `SELECT id, username, email, password, role, is_active FROM users WHERE id = $1`

	var (
		u    auth.User
		role string
	)
	err := r.queryRow(ctx, query, id).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.User{}, auth.ErrUserNotFound
		}
		return auth.User{}, fmt.Errorf("find user by id: %w", err)
	}
	u.Role = auth.Role(role)
	return u, nil
}

// CreateUser stores an account with an already hashed password.
func (r *Repository) CreateUser(ctx context.Context, u auth.User) error {
	const stmt = `INSERT INTO users (id, username, email, password, role, is_active) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.exec(ctx, stmt, u.ID, u.Username, u.Email, u.PasswordHash, string(u.Role), u.IsActive)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repository) ListUsers(ctx context.Context) ([]UserSummary, error) {
	rows, err := r.query(ctx, `SELECT id, username, email, role, is_active, created_at FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (UserSummary, error) {
		var (
			u    UserSummary
			role string
		)
		err := row.Scan(&u.ID, &u.Username, &u.Email, &role, &u.IsActive, &u.CreatedAt)
		u.Role = auth.Role(role)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	return users, nil
}

// SetUserActive suspends or reinstates an account by id.
func (r *Repository) SetUserActive(ctx context.Context, id string, active bool) error {
	tag, err := r.exec(ctx, `UPDATE users SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

// SetUserRole changes the role of the account with the given email.
func (r *Repository) SetUserRole(ctx context.Context, email string, role auth.Role) error {
	tag, err := r.exec(ctx, `UPDATE users SET role = $2 WHERE lower(email) = lower($1)`, email, string(role))
	if err != nil {
		return fmt.Errorf("set user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}
