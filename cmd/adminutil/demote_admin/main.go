package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/sudo-init-do/gamemarket/internal/auth"
	"github.com/sudo-init-do/gamemarket/internal/config"
	"github.com/sudo-init-do/gamemarket/internal/db"
	"github.com/sudo-init-do/gamemarket/internal/store"
)

// demote_admin removes staff rights from a user by email.
// Usage:
//
//	go run ./cmd/adminutil/demote_admin -email user@example.com [-role seller]
func main() {
	email := flag.String("email", "", "Email of the user to demote")
	role := flag.String("role", string(auth.RoleBuyer), "buyer or seller")
	flag.Parse()

	if *email == "" {
		log.Fatalf("usage: go run ./cmd/adminutil/demote_admin -email user@example.com [-role seller]")
	}
	target := auth.Role(*role)
	if !target.Valid() || target.IsStaff() {
		log.Fatalf("role must be buyer or seller, got %q", *role)
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

	if err := store.NewRepository(pool).SetUserRole(ctx, *email, target); err != nil {
		log.Fatalf("failed to demote %s: %v", *email, err)
	}
	fmt.Printf("User %s demoted to %s.\n", *email, target)
}
