package store

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"

	"fleet-backend/internal/policy"
)

const (
	defaultAdminEmail    = "admin@localhost"
	defaultAdminPassword = "changeme"
)

// Bootstrap creates the service tables and seeds a full-access user when the
// user table is empty.
func (s *Store) Bootstrap(ctx context.Context) error {
	if err := execScript(ctx, s.DB, s.Dialect.SystemTablesSQL()); err != nil {
		return fmt.Errorf("bootstrap system tables: %w", err)
	}
	if err := s.seedAdminUser(ctx); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	return nil
}

func (s *Store) seedAdminUser(ctx context.Context) error {
	count, err := s.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(defaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if _, err := s.CreateUser(ctx, defaultAdminEmail, string(hash), string(policy.FullAccess)); err != nil {
		return err
	}

	log.Printf("WARNING: Default admin user created (%s / %s) - change the password immediately.", defaultAdminEmail, defaultAdminPassword)
	return nil
}
