package otp

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// OTP defines the contract for TOTP operations.
type OTP interface {
	// Generate creates a secret and provisioning URI for an account name.
	Generate(accountName string) (secret string, uri string, err error)
	// Validate checks whether a code is valid at the given time.
	Validate(code, secret string, at time.Time) bool
	// ValidateStep is Validate that also returns the matched time step.
	ValidateStep(code, secret string, at time.Time) (step int64, ok bool)
	// GenerateCode creates a TOTP code for the given secret and time.
	GenerateCode(secret string, at time.Time) (string, error)
}

// TOTP implements OTP with SHA1, the algorithm every authenticator app supports.
type TOTP struct {
	issuer string
	period uint
	skew   uint
	digits otp.Digits
}

// NewTOTP constructs a TOTP instance.
//
// Digits other than 6 or 8 fall back to 6, a zero period to 30 seconds and a
// zero skew to one step on either side.
func NewTOTP(issuer string, period, skew uint, digits otp.Digits) *TOTP {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	if period == 0 {
		period = 30
	}

	if skew == 0 {
		skew = 1
	}

	return &TOTP{
		issuer: issuer,
		period: period,
		skew:   skew,
		digits: digits,
	}
}

// Generate creates a 160-bit secret and its otpauth:// URI.
func (o *TOTP) Generate(accountName string) (secret string, uri string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: accountName,
		Period:      o.period,
		SecretSize:  20,
		Digits:      o.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", err
	}

	return key.Secret(), key.URL(), nil
}

// Validate checks whether a code is valid at the given time.
func (o *TOTP) Validate(code, secret string, at time.Time) bool {
	_, ok := o.ValidateStep(code, secret, at)
	return ok
}

// ValidateStep compares code against every step inside the skew window,
// always walking the whole window so timing does not reveal which step hit.
func (o *TOTP) ValidateStep(code, secret string, at time.Time) (int64, bool) {
	code = strings.TrimSpace(code)
	if len(code) != o.digits.Length() {
		return 0, false
	}

	current := at.Unix() / int64(o.period)
	skew := int64(o.skew)

	var (
		matched int64
		found   int
	)
	for step := current - skew; step <= current+skew; step++ {
		want, err := o.codeAt(secret, step)
		if err != nil {
			return 0, false
		}

		hit := subtle.ConstantTimeCompare([]byte(want), []byte(code))
		if hit == 1 && found == 0 {
			matched = step
		}
		found |= hit
	}

	return matched, found == 1
}

// GenerateCode creates a TOTP code for the given secret and time.
func (o *TOTP) GenerateCode(secret string, at time.Time) (string, error) {
	return o.codeAt(secret, at.Unix()/int64(o.period))
}

func (o *TOTP) codeAt(secret string, step int64) (string, error) {
	return totp.GenerateCodeCustom(secret, time.Unix(step*int64(o.period), 0).UTC(), totp.ValidateOpts{
		Period:    o.period,
		Digits:    o.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
}
