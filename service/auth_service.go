// Package service implements the token lifecycle orchestrator: signup,
// login, refresh rotation, logout, and access-token verification.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/garmlabs/garm/core"
	"github.com/garmlabs/garm/ports"
)

const (
	// DefaultAccessTTL is the signed lifetime of access tokens.
	DefaultAccessTTL = time.Hour

	// DefaultRefreshTTL is the signed lifetime of refresh tokens.
	DefaultRefreshTTL = 7 * 24 * time.Hour

	// DefaultCacheValidTTL is how long an issued access token is remembered
	// as Valid in the revocation cache.
	DefaultCacheValidTTL = 10 * time.Minute

	// DefaultBlacklistTTL covers the maximum remaining lifetime of a
	// blacklisted access token. Must be >= DefaultAccessTTL.
	DefaultBlacklistTTL = time.Hour
)

// AuthService composes the hasher, codec, revocation cache, and principal
// store. All operations are safe for concurrent use; rotation correctness
// rests on the store's compare-and-swap.
type AuthService struct {
	hasher   ports.Hasher
	codec    ports.Codec
	cache    ports.RevocationCache
	store    ports.PrincipalStore
	eventPub ports.EventPublisher
	logger   *slog.Logger

	accessTTL     time.Duration
	refreshTTL    time.Duration
	cacheValidTTL time.Duration
	blacklistTTL  time.Duration
}

// NewAuthService creates the orchestrator with default TTLs. The event
// publisher may be nil when no broker is configured.
func NewAuthService(
	hasher ports.Hasher,
	codec ports.Codec,
	cache ports.RevocationCache,
	store ports.PrincipalStore,
	eventPub ports.EventPublisher,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		hasher:        hasher,
		codec:         codec,
		cache:         cache,
		store:         store,
		eventPub:      eventPub,
		logger:        logger,
		accessTTL:     DefaultAccessTTL,
		refreshTTL:    DefaultRefreshTTL,
		cacheValidTTL: DefaultCacheValidTTL,
		blacklistTTL:  DefaultBlacklistTTL,
	}
}

// SignUp creates a new principal and issues its first token pair. A taken
// username yields core.ErrUsernameTaken rather than a generic failure.
func (s *AuthService) SignUp(ctx context.Context, username, password string) (*core.TokenPair, error) {
	if username == "" || password == "" {
		return nil, core.ErrInvalidInput
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	id, err := s.store.Create(ctx, username, hash)
	if err != nil {
		return nil, err
	}

	pair, err := s.issueTokens(ctx, id, username)
	if err != nil {
		return nil, err
	}

	pair.ID = id
	return pair, nil
}

// Login authenticates by username and password. An unknown user and a wrong
// password return the identical failure, so usernames cannot be enumerated.
func (s *AuthService) Login(ctx context.Context, username, password string) (*core.TokenPair, error) {
	if username == "" || password == "" {
		return nil, core.ErrInvalidInput
	}

	record, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if record == nil || !s.hasher.Verify(password, record.PasswordHash) {
		return nil, core.ErrInvalidCredentials
	}

	return s.issueTokens(ctx, record.ID, record.Username)
}

// Refresh rotates a refresh token into a brand-new pair. The presented token
// must verify against the refresh secret, decode to a numeric id, and still
// be the stored value for that principal; a rotated-out token keeps a valid
// signature but fails the stored-value check forever.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*core.TokenPair, error) {
	if refreshToken == "" {
		return nil, core.ErrInvalidInput
	}

	if !s.codec.Verify(refreshToken, core.ClassRefresh) {
		return nil, core.ErrInvalidRefreshToken
	}

	payload := s.codec.Decode(refreshToken)
	if payload == nil || payload.ID == 0 {
		return nil, core.ErrInvalidRefreshToken
	}
	if payload.Exp < time.Now().Unix() {
		return nil, core.ErrInvalidRefreshToken
	}

	record, err := s.store.FindByID(ctx, payload.ID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, core.ErrInvalidRefreshToken
	}

	newRefresh, err := s.codec.Sign(core.TokenPayload{ID: record.ID}, core.ClassRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	// exp has second resolution, so a rotation landing in the same second as
	// issuance can mint the identical token, and swapping a token for itself
	// would leave the presented one usable. One extra second of lifetime
	// guarantees a strictly later exp.
	if newRefresh == refreshToken {
		newRefresh, err = s.codec.Sign(core.TokenPayload{ID: record.ID}, core.ClassRefresh, s.refreshTTL+time.Second)
		if err != nil {
			return nil, err
		}
	}

	// The conditional swap is what serializes concurrent refreshes: of two
	// racing calls, exactly one still matches the stored token.
	rotated, err := s.store.RotateRefreshToken(ctx, record.ID, refreshToken, newRefresh)
	if err != nil {
		return nil, err
	}
	if !rotated {
		return nil, core.ErrInvalidRefreshToken
	}

	accessToken, err := s.codec.Sign(
		core.TokenPayload{ID: record.ID, Username: record.Username},
		core.ClassAccess,
		s.accessTTL,
	)
	if err != nil {
		return nil, err
	}

	s.registerIssued(ctx, accessToken)

	return &core.TokenPair{AccessToken: accessToken, RefreshToken: newRefresh}, nil
}

// Logout blacklists the access token and clears the stored refresh token.
// It reports true only when a stored refresh token actually matched, so a
// second logout with the same pair reports false.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) (bool, error) {
	if accessToken == "" || refreshToken == "" {
		return false, core.ErrInvalidInput
	}

	// Blacklisting must cover the access token's maximum remaining lifetime.
	// A cache failure here degrades revocation, not the logout itself.
	if err := s.cache.Set(ctx, accessToken, core.StatusBlacklisted, s.blacklistTTL); err != nil {
		s.logger.Warn("failed to blacklist access token", "error", err)
	}

	cleared, err := s.store.ClearRefreshToken(ctx, refreshToken)
	if err != nil {
		return false, err
	}

	if cleared && s.eventPub != nil {
		payload := s.codec.Decode(refreshToken)
		var id int64
		var username string
		if payload != nil {
			id = payload.ID
			username = payload.Username
		}
		if err := s.eventPub.PublishLogout(ctx, id, username); err != nil {
			// The tokens are already dead; the event is best effort.
			s.logger.Warn("failed to publish logout event", "error", err)
		}
	}

	return cleared, nil
}

// VerifyAccessToken resolves the principal behind an access token, or nil
// when the token is not acceptable. Revocation always wins over signature
// validity: a Blacklisted cache entry rejects immediately. A Valid entry
// attests authenticity established at issuance, so the payload is trusted
// without re-verifying the signature. On a cache miss or cache failure the
// stateless path (verify + decode) keeps tokens usable.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*core.Principal, error) {
	if token == "" {
		return nil, nil
	}

	status, found, err := s.cache.Get(ctx, token)
	if err != nil {
		s.logger.Warn("revocation cache unavailable, falling back to signature check", "error", err)
		found = false
	}

	if found {
		switch status {
		case core.StatusBlacklisted:
			return nil, nil
		case core.StatusValid:
			return s.resolvePrincipal(ctx, s.codec.Decode(token))
		}
	}

	if !s.codec.Verify(token, core.ClassAccess) {
		return nil, nil
	}

	payload := s.codec.Decode(token)
	if payload == nil || payload.Exp < time.Now().Unix() {
		return nil, nil
	}

	return s.resolvePrincipal(ctx, payload)
}

// issueTokens signs a fresh pair, persists the refresh token as the single
// stored value for the principal, and registers the access token as Valid.
func (s *AuthService) issueTokens(ctx context.Context, id int64, username string) (*core.TokenPair, error) {
	accessToken, err := s.codec.Sign(core.TokenPayload{ID: id, Username: username}, core.ClassAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.codec.Sign(core.TokenPayload{ID: id}, core.ClassRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetRefreshToken(ctx, id, refreshToken); err != nil {
		return nil, err
	}

	s.registerIssued(ctx, accessToken)

	return &core.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// registerIssued records the access token as Valid. Verification falls back
// to the signature path on a miss, so a cache failure is non-fatal.
func (s *AuthService) registerIssued(ctx context.Context, accessToken string) {
	if err := s.cache.Set(ctx, accessToken, core.StatusValid, s.cacheValidTTL); err != nil {
		s.logger.Warn("failed to register issued access token", "error", err)
	}
}

func (s *AuthService) resolvePrincipal(ctx context.Context, payload *core.TokenPayload) (*core.Principal, error) {
	if payload == nil || payload.ID == 0 {
		return nil, nil
	}

	record, err := s.store.FindByID(ctx, payload.ID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}

	return &core.Principal{ID: record.ID, Username: record.Username}, nil
}
