// Package store provides PrincipalStore implementations: PostgreSQL for
// production and an in-memory variant for tests and single-process runs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/garmlabs/garm/adapters/store/migrations"
	"github.com/garmlabs/garm/core"
	"github.com/garmlabs/garm/ports"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint hits.
const pgUniqueViolation = "23505"

// PostgresStore persists principals and their single stored refresh token.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a pgx-backed pool and applies the embedded
// migrations before returning.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

var _ ports.PrincipalStore = (*PostgresStore)(nil)

// Create inserts a new principal. A username collision maps to
// core.ErrUsernameTaken; any other failure is a store error.
func (s *PostgresStore) Create(ctx context.Context, username, passwordHash string) (int64, error) {
	query := `
		INSERT INTO principals (username, password_hash)
		VALUES ($1, $2)
		RETURNING id
	`

	var id int64
	if err := s.db.QueryRowContext(ctx, query, username, passwordHash).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return 0, core.ErrUsernameTaken
		}
		return 0, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}

	return id, nil
}

// FindByUsername returns (nil, nil) when no principal matches.
func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*core.PrincipalRecord, error) {
	query := `
		SELECT id, username, password_hash, COALESCE(refresh_token, '')
		FROM principals
		WHERE username = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, username))
}

// FindByID returns (nil, nil) when no principal matches.
func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*core.PrincipalRecord, error) {
	query := `
		SELECT id, username, password_hash, COALESCE(refresh_token, '')
		FROM principals
		WHERE id = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

// SetRefreshToken overwrites the stored refresh token unconditionally.
func (s *PostgresStore) SetRefreshToken(ctx context.Context, id int64, token string) error {
	query := `
		UPDATE principals
		SET refresh_token = $1
		WHERE id = $2
	`
	if _, err := s.db.ExecContext(ctx, query, token, id); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// RotateRefreshToken swaps old for new only while old is still the stored
// value. The conditional UPDATE is the atomic compare-and-swap that makes
// exactly one of two concurrent rotations win.
func (s *PostgresStore) RotateRefreshToken(ctx context.Context, id int64, old, new string) (bool, error) {
	query := `
		UPDATE principals
		SET refresh_token = $1
		WHERE id = $2 AND refresh_token = $3
	`

	result, err := s.db.ExecContext(ctx, query, new, id, old)
	if err != nil {
		return false, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}

	return affected > 0, nil
}

// ClearRefreshToken nulls out the token wherever it is stored and reports
// whether a row matched.
func (s *PostgresStore) ClearRefreshToken(ctx context.Context, token string) (bool, error) {
	query := `
		UPDATE principals
		SET refresh_token = NULL
		WHERE refresh_token = $1
	`

	result, err := s.db.ExecContext(ctx, query, token)
	if err != nil {
		return false, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}

	return affected > 0, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) scanOne(row *sql.Row) (*core.PrincipalRecord, error) {
	record := &core.PrincipalRecord{}
	err := row.Scan(&record.ID, &record.Username, &record.PasswordHash, &record.RefreshToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return record, nil
}
