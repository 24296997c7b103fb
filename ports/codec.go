package ports

import (
	"time"

	"github.com/garmlabs/garm/core"
)

// Codec produces and validates compact signed tokens. Implementations are
// pure and stateless; the token class selects which secret signs the token.
type Codec interface {
	// Sign encodes the payload with an exp of now+ttl and signs it with the
	// class-appropriate secret.
	Sign(payload core.TokenPayload, class core.TokenClass, ttl time.Duration) (string, error)

	// Verify checks the token's signature against the class secret. It does
	// NOT evaluate exp; expiry is the caller's policy, applied to the decoded
	// payload where needed.
	Verify(token string, class core.TokenClass) bool

	// Decode extracts the payload without checking the signature. Returns nil
	// on any malformed input. Call sites must establish authenticity first,
	// either via Verify or via a trusted revocation-cache hit.
	Decode(token string) *core.TokenPayload
}
