package hash

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptMaxBytes is the longest input bcrypt accepts.
const bcryptMaxBytes = 72

// Bcrypt implements Password using bcrypt.
//
// Pepper is appended to the plaintext before hashing and verifying. It lives
// in configuration, never in the database.
type Bcrypt struct {
	cost   int
	pepper string
}

// NewBcrypt returns a bcrypt hasher. A cost outside bcrypt's range falls back
// to bcrypt.DefaultCost.
func NewBcrypt(cost int, pepper string) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &Bcrypt{cost: cost, pepper: pepper}
}

// Hash hashes plaintext using bcrypt. Inputs longer than 72 bytes once the
// pepper is appended fail with ErrPasswordTooLong.
func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	if len(plaintext)+len(h.pepper) > bcryptMaxBytes {
		return nil, ErrPasswordTooLong
	}

	return bcrypt.GenerateFromPassword([]byte(plaintext+h.pepper), h.cost)
}

// Verify returns true when plaintext matches the hashed value.
func (h *Bcrypt) Verify(hashed, plaintext string) bool {
	return h.Compare(hashed, plaintext) == nil
}

// Compare checks plaintext against hashed.
func (h *Bcrypt) Compare(hashed, plaintext string) error {
	if len(plaintext)+len(h.pepper) > bcryptMaxBytes {
		// Hash never stores such input, so it cannot match.
		if _, err := bcrypt.Cost([]byte(hashed)); err != nil {
			return ErrMalformedHash
		}
		return ErrMismatch
	}

	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext+h.pepper))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrMismatch
	default:
		return ErrMalformedHash
	}
}
