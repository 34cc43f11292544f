package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Tokens issues and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) Issue(a Actor) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  a.ID,
		"username": a.Username,
		"role":     string(a.Role),
		"exp":      t.now().Add(t.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

func (t *Tokens) Parse(raw string) (Actor, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return Actor{}, ErrInvalidToken
	}

	id, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	username, _ := claims["username"].(string)
	if id == "" || !Role(role).Valid() {
		return Actor{}, ErrInvalidToken
	}
	return Actor{ID: id, Username: username, Role: Role(role)}, nil
}
