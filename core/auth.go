package core

// TokenClass selects which signing secret a token is bound to.
type TokenClass int

const (
	// ClassAccess marks short-lived tokens presented on every request.
	ClassAccess TokenClass = iota

	// ClassRefresh marks long-lived tokens used only to mint new pairs.
	ClassRefresh
)

// TokenStatus is the revocation state recorded for a token key.
type TokenStatus string

const (
	// StatusValid is written at issuance time.
	StatusValid TokenStatus = "valid"

	// StatusBlacklisted overrides signature validity after logout.
	StatusBlacklisted TokenStatus = "blacklisted"
)

// TokenPayload is the signed body of an access or refresh token.
// Exp is always populated by the codec at signing time.
type TokenPayload struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
	Exp      int64  `json:"exp"`
}

// TokenPair bundles a freshly issued access and refresh token.
// ID carries the new principal id on signup responses.
type TokenPair struct {
	ID           int64  `json:"id,omitempty"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Principal is the authenticated identity resolved from an access token.
type Principal struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// PrincipalRecord is the persisted user row owned by the PrincipalStore.
// RefreshToken holds at most one live refresh token per principal; issuing
// a new one overwrites it, which is what makes a rotated-out token
// rejectable even while its signature still verifies.
type PrincipalRecord struct {
	ID           int64
	Username     string
	PasswordHash string
	RefreshToken string
}
