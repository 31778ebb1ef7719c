package ports

// PasswordHasher is a one-way, salted password digest function.
type PasswordHasher interface {
	// Hash derives a digest from plaintext. A fresh random salt is used per
	// call, so two digests of the same plaintext differ.
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches digest. A malformed or
	// unrecognised digest yields false, never an error.
	Verify(plaintext, digest string) bool
}
