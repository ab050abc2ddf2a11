// Package otp generates and checks RFC 6238 time-based one-time passwords.
//
// ValidateStep reports which time step a code matched so callers can refuse
// a code whose step was already consumed.
package otp
