package ports

import (
	"context"

	"github.com/garmlabs/garm/core"
)

// PrincipalStore persists user records and the single stored refresh token
// per principal. Lookups return (nil, nil) when no record matches.
type PrincipalStore interface {
	// Create inserts a new principal and returns its id. A username
	// uniqueness violation yields core.ErrUsernameTaken.
	Create(ctx context.Context, username, passwordHash string) (int64, error)

	FindByUsername(ctx context.Context, username string) (*core.PrincipalRecord, error)
	FindByID(ctx context.Context, id int64) (*core.PrincipalRecord, error)

	// SetRefreshToken unconditionally overwrites the stored refresh token for
	// the principal (login and signup issuance).
	SetRefreshToken(ctx context.Context, id int64, token string) error

	// RotateRefreshToken atomically replaces old with new, but only while old
	// is still the stored value. It reports false when the stored token no
	// longer matches, which is how reuse of a rotated-out token and the loser
	// of two concurrent refreshes are both rejected.
	RotateRefreshToken(ctx context.Context, id int64, old, new string) (bool, error)

	// ClearRefreshToken removes the stored refresh token matching the given
	// value and reports whether a record matched. A second logout with the
	// same token therefore reports false.
	ClearRefreshToken(ctx context.Context, token string) (bool, error)
}
