package hash

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMismatch is returned when plaintext does not match the stored hash.
	ErrMismatch = errors.New("hash: plaintext does not match")
	// ErrMalformedHash is returned when the stored hash cannot be parsed. It
	// points at corrupted data or a misconfigured algorithm, never at the user.
	ErrMalformedHash = errors.New("hash: malformed stored hash")
	// ErrPasswordTooLong is returned by Hash when plaintext plus pepper does
	// not fit the algorithm's input limit.
	ErrPasswordTooLong = errors.New("hash: password too long")
	// ErrUnknownAlgorithm is returned by NewPassword for an unsupported name.
	ErrUnknownAlgorithm = errors.New("hash: unknown password algorithm")
)

const (
	// AlgorithmBcrypt selects Bcrypt in NewPassword.
	AlgorithmBcrypt = "bcrypt"
	// AlgorithmArgon2id selects Argon2id in NewPassword.
	AlgorithmArgon2id = "argon2id"
)

// Hash produces and checks digests.
type Hash interface {
	// Hash returns the encoded digest of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether str produces hashed. It runs in constant time
	// with respect to the digest contents.
	Verify(hashed, str string) bool
}

// Password is a Hash that can tell a mismatch apart from a corrupt digest.
type Password interface {
	Hash
	// Compare returns nil on match, ErrMismatch on a wrong plaintext and
	// ErrMalformedHash when hashed is not a digest this algorithm produced.
	Compare(hashed, plaintext string) error
}

// PasswordConfig selects and tunes the password algorithm.
type PasswordConfig struct {
	Algorithm  string
	BcryptCost int
	Pepper     string
}

// NewPassword returns the Password implementation named by cfg.Algorithm.
// An empty name selects bcrypt.
func NewPassword(cfg PasswordConfig) (Password, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Algorithm)) {
	case "", AlgorithmBcrypt:
		return NewBcrypt(cfg.BcryptCost, cfg.Pepper), nil
	case AlgorithmArgon2id:
		return NewArgon2id(cfg.Pepper), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, cfg.Algorithm)
	}
}
