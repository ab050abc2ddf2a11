// Package clock provides a tiny time abstraction.
//
// Token expiry and TOTP windows are evaluated against a Clocker instead of
// time.Now so that tests can pin or advance time with Manual.
package clock
