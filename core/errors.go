package core

import "errors"

var (
	// ErrInvalidInput is returned when required fields are missing or malformed,
	// before any component is touched.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCredentials is returned for both an unknown username and a wrong
	// password, so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUsernameTaken is returned when signup hits the username uniqueness
	// constraint.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidRefreshToken is returned for a bad signature, a token that no
	// longer matches the stored value, or an unknown principal.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrStoreUnavailable is returned when the persistence backend fails.
	ErrStoreUnavailable = errors.New("store unavailable")
)
