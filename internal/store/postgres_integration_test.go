//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"fleet-backend/internal/config"
	"fleet-backend/internal/store"
)

func pgStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	s, err := store.New(ctx, config.DatabaseConfig{
		Driver:   "postgres",
		Host:     "localhost",
		Port:     5433,
		User:     "fleet",
		Password: "fleet",
		Name:     "fleet",
		PoolSize: 2,
	})
	if err != nil {
		t.Fatalf("connect to test db: %v", err)
	}
	t.Cleanup(s.Close)
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return s
}

func TestPostgres_UniqueViolationMapped(t *testing.T) {
	ctx := context.Background()
	s := pgStore(t)

	email := uuid.New().String() + "@example.com"
	u, err := s.CreateUser(ctx, email, "hash", "Guest")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() {
		_, _ = store.Exec(context.Background(), s.DB, "DELETE FROM _users WHERE id = $1", u.ID)
	})

	if _, err := s.CreateUser(ctx, email, "hash", "Guest"); !errors.Is(err, store.ErrUniqueViolation) {
		t.Fatalf("expected ErrUniqueViolation, got %v", err)
	}
}

func TestPostgres_SetUserRoleRevokesTokens(t *testing.T) {
	ctx := context.Background()
	s := pgStore(t)

	u, err := s.CreateUser(ctx, uuid.New().String()+"@example.com", "hash", "User")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() {
		_, _ = store.Exec(context.Background(), s.DB, "DELETE FROM _users WHERE id = $1", u.ID)
	})

	token := uuid.New().String()
	if err := s.CreateRefreshToken(ctx, u.ID, token, time.Now().Add(24*time.Hour)); err != nil {
		t.Fatalf("create token: %v", err)
	}
	if err := s.SetUserRole(ctx, u.ID, "Plant Manager"); err != nil {
		t.Fatalf("set role: %v", err)
	}
	if _, err := s.FindRefreshToken(ctx, token); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected token revoked, got %v", err)
	}
}
