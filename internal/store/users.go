package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User is a row of _users. Role is stored as the raw label; it is not
// validated on read so a stale label simply grants nothing.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// RefreshToken is a row of _refresh_tokens joined with its user.
type RefreshToken struct {
	ID         string
	UserID     string
	ExpiresAt  time.Time
	UserRole   string
	UserActive bool
}

const userColumns = "id, email, password_hash, role, active, created_at"

func userFromRow(row map[string]any) *User {
	return &User{
		ID:           ToString(row["id"]),
		Email:        ToString(row["email"]),
		PasswordHash: ToString(row["password_hash"]),
		Role:         ToString(row["role"]),
		Active:       ToBool(row["active"]),
		CreatedAt:    ToTime(row["created_at"]),
	}
}

// CountUsers returns the number of users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM _users").Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

// CreateUser inserts an active user.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash, role string) (*User, error) {
	id := uuid.New().String()
	_, err := Exec(ctx, s.DB,
		fmt.Sprintf("INSERT INTO _users (id, email, password_hash, role) VALUES (%s, %s, %s, %s)",
			s.ph(1), s.ph(2), s.ph(3), s.ph(4)),
		id, email, passwordHash, role)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", MapError(s.Dialect, err))
	}
	return s.FindUserByID(ctx, id)
}

// FindUserByEmail returns ErrNotFound when no user matches.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	row, err := QueryRow(ctx, s.DB,
		fmt.Sprintf("SELECT %s FROM _users WHERE email = %s", userColumns, s.ph(1)), email)
	if err != nil {
		return nil, err
	}
	return userFromRow(row), nil
}

// FindUserByID returns ErrNotFound when no user matches.
func (s *Store) FindUserByID(ctx context.Context, id string) (*User, error) {
	row, err := QueryRow(ctx, s.DB,
		fmt.Sprintf("SELECT %s FROM _users WHERE id = %s", userColumns, s.ph(1)), id)
	if err != nil {
		return nil, err
	}
	return userFromRow(row), nil
}

// ListUsers returns every user ordered by email.
func (s *Store) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := QueryRows(ctx, s.DB,
		fmt.Sprintf("SELECT %s FROM _users ORDER BY email", userColumns))
	if err != nil {
		return nil, err
	}
	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, userFromRow(row))
	}
	return users, nil
}

// SetUserRole stores role for the user and revokes the user's refresh
// tokens so the next refresh cannot carry the old role.
func (s *Store) SetUserRole(ctx context.Context, id, role string) error {
	tx, err := s.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	n, err := Exec(ctx, tx,
		fmt.Sprintf("UPDATE _users SET role = %s, updated_at = %s WHERE id = %s", s.ph(1), s.ph(2), s.ph(3)),
		role, s.Dialect.TimeParam(time.Now()), id)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	if _, err := Exec(ctx, tx,
		fmt.Sprintf("DELETE FROM _refresh_tokens WHERE user_id = %s", s.ph(1)), id); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return tx.Commit()
}

// SetUserPassword replaces the password hash.
func (s *Store) SetUserPassword(ctx context.Context, id, passwordHash string) error {
	n, err := Exec(ctx, s.DB,
		fmt.Sprintf("UPDATE _users SET password_hash = %s, updated_at = %s WHERE id = %s", s.ph(1), s.ph(2), s.ph(3)),
		passwordHash, s.Dialect.TimeParam(time.Now()), id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateRefreshToken stores an opaque refresh token for userID.
func (s *Store) CreateRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := Exec(ctx, s.DB,
		fmt.Sprintf("INSERT INTO _refresh_tokens (id, user_id, token, expires_at) VALUES (%s, %s, %s, %s)",
			s.ph(1), s.ph(2), s.ph(3), s.ph(4)),
		uuid.New().String(), userID, token, s.Dialect.TimeParam(expiresAt))
	if err != nil {
		return fmt.Errorf("create refresh token: %w", MapError(s.Dialect, err))
	}
	return nil
}

// FindRefreshToken returns the token with its user's current role.
func (s *Store) FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	row, err := QueryRow(ctx, s.DB,
		fmt.Sprintf(`SELECT rt.id, rt.user_id, rt.expires_at, u.role, u.active
		 FROM _refresh_tokens rt
		 JOIN _users u ON u.id = rt.user_id
		 WHERE rt.token = %s`, s.ph(1)), token)
	if err != nil {
		return nil, err
	}
	return &RefreshToken{
		ID:         ToString(row["id"]),
		UserID:     ToString(row["user_id"]),
		ExpiresAt:  ToTime(row["expires_at"]),
		UserRole:   ToString(row["role"]),
		UserActive: ToBool(row["active"]),
	}, nil
}

// DeleteRefreshToken removes a token by its value. Missing tokens are not an error.
func (s *Store) DeleteRefreshToken(ctx context.Context, token string) error {
	_, err := Exec(ctx, s.DB,
		fmt.Sprintf("DELETE FROM _refresh_tokens WHERE token = %s", s.ph(1)), token)
	return err
}

// MapError maps a database error to a well-known sentinel error using the store's dialect.
func MapError(dialect Dialect, err error) error {
	if err == nil {
		return nil
	}
	return dialect.MapError(err)
}
