package auth

import "context"

type Role string

const (
	RoleBuyer       Role = "buyer"
	RoleSeller      Role = "seller"
	RoleAdmin       Role = "admin"
	RoleAdminMaster Role = "admin_master"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin, RoleAdminMaster:
		return true
	default:
		return false
	}
}

// IsStaff reports whether the role may open the admin console.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleAdminMaster
}

// Actor is the authenticated caller, built only from verified token claims.
type Actor struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (a Actor) ActorID() string     { return a.ID }
func (a Actor) DisplayName() string { return a.Username }

// IsAdminMaster is the only privilege check security actions need.
func (a Actor) IsAdminMaster() bool { return a.Role == RoleAdminMaster }

type actorKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}
