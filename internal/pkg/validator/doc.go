// Package validator checks request structs against their `validate` tags and
// reports failures as a field-to-message map keyed by JSON field name.
//
// Beyond the go-playground/validator built-ins it registers "password"
// (8 to 72 characters) and "totp" (exactly six digits).
package validator
