// Package mfa seals second-factor material at rest.
//
// TOTP seeds are encrypted with AES-256-GCM before they reach the database.
// The owning user id and the purpose are bound in as additional data, so a
// ciphertext copied onto another user's row fails to open.
package mfa
