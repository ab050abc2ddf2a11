package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/authgate/internal/pkg/goerror"
)

// maxBodyBytes caps decoded request bodies; every payload here is a few fields.
const maxBodyBytes = 64 << 10

// Request wraps http.Request with helpers for inbound handlers.
type Request struct {
	*http.Request
	w http.ResponseWriter
}

// GetParam reads a path parameter from the request context (as stored by httprouter).
func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

// DecodeBody decodes exactly one JSON value into dst, rejecting unknown fields.
func (r *Request) DecodeBody(dst any) error {
	return r.decode(dst, false)
}

// DecodeOptionalBody is DecodeBody that accepts an empty body and leaves dst untouched.
func (r *Request) DecodeOptionalBody(dst any) error {
	return r.decode(dst, true)
}

func (r *Request) decode(dst any, optional bool) error {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		if optional {
			return nil
		}
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return goerror.NewInvalidFormat()
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}

	return nil
}

// CookieValue returns the named cookie's value, or "" when absent.
func (r *Request) CookieValue(name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}

	return c.Value
}

// SetCookie adds a Set-Cookie header to the response.
func (r *Request) SetCookie(c *http.Cookie) {
	if r.w != nil {
		http.SetCookie(r.w, c)
	}
}
