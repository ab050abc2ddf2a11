// Package jwt issues and verifies the HS512 tokens handed to clients.
//
// A Codec holds two independent signers: short-lived access tokens sent on
// every request, and long-lived refresh tokens used only to mint a new pair.
// The classes use different secrets and carry a token_class claim, so one can
// never be accepted as the other.
package jwt
