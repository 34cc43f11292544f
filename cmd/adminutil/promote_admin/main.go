package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/sudo-init-do/gamemarket/internal/auth"
	"github.com/sudo-init-do/gamemarket/internal/config"
	"github.com/sudo-init-do/gamemarket/internal/db"
	"github.com/sudo-init-do/gamemarket/internal/logging"
	"github.com/sudo-init-do/gamemarket/internal/store"
)

// promote_admin grants a staff role by email.
// Usage:
//
//	go run ./cmd/adminutil/promote_admin -email user@example.com [-role admin_master]
func main() {
	email := flag.String("email", "", "Email of the user to promote")
	role := flag.String("role", string(auth.RoleAdmin), "admin or admin_master")
	flag.Parse()

	if *email == "" {
		log.Fatalf("usage: go run ./cmd/adminutil/promote_admin -email user@example.com [-role admin_master]")
	}
	target := auth.Role(*role)
	if !target.IsStaff() {
		log.Fatalf("role must be admin or admin_master, got %q", *role)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DSN())
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer pool.Close()

	// Ensure tables are in place (idempotent)
	if err := db.EnsureSchema(ctx, pool, logging.Discard()); err != nil {
		log.Fatalf("%v", err)
	}

	if err := store.NewRepository(pool).SetUserRole(ctx, *email, target); err != nil {
		log.Fatalf("failed to promote %s: %v", *email, err)
	}
	fmt.Printf("User %s promoted to %s.\n", *email, target)
}
