// Package config exposes typed, read-only access to service configuration.
package config

import (
	"io"
	"time"
)

// DurationConfig reads integer keys and scales them into durations.
type DurationConfig interface {
	// GetSecond interprets the value at key as a number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute interprets the value at key as a number of minutes.
	GetMinute(key string) time.Duration
	// GetDay interprets the value at key as a number of 24h days.
	GetDay(key string) time.Duration
}

// Config is the read-only view of configuration consumed by the application.
//
// Missing keys resolve to the zero value of the requested type. Callers that
// need a non-zero default apply it themselves.
type Config interface {
	io.Closer
	DurationConfig

	GetBool(key string) bool
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetUint64(key string) uint64
	GetFloat64(key string) float64
	GetString(key string) string

	// GetBinary decodes a base64 value. Invalid input yields nil.
	GetBinary(key string) []byte

	// GetArray splits a comma separated value, trimming blanks and dropping
	// empty elements. A YAML sequence is accepted as well.
	GetArray(key string) []string
}
