package ports

// Hasher performs one-way password hashing and verification.
type Hasher interface {
	// Hash derives a salted hash from the password. Every call generates a
	// fresh random salt, so two hashes of the same password differ.
	Hash(password string) (string, error)

	// Verify reports whether the password matches the stored hash. Malformed
	// hashes verify as false rather than erroring.
	Verify(password, hash string) bool
}
