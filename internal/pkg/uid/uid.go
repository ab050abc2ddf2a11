// Package uid generates identifiers: snowflake numbers for rows and UUIDv7
// strings for token ids and correlation ids.
package uid

// NumberID generates unique, roughly time-ordered 64-bit identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}
