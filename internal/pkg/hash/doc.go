// Package hash provides one-way hashing for stored secrets.
//
// Passwords go through a slow, salted Password implementation (bcrypt or
// argon2id). Refresh tokens are high-entropy already, so they are keyed with
// HMAC-SHA256 which keeps lookups by digest possible.
package hash
