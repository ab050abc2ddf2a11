package instrument

import "context"

// HeaderCorrelationID is the HTTP and message header carrying the correlation id.
const HeaderCorrelationID = "X-Correlation-ID"

type correlationIDKey struct{}

// SetCorrelationID returns a copy of ctx carrying cid.
func SetCorrelationID(ctx context.Context, cid string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, cid)
}

// GetCorrelationID returns the correlation id in ctx, or "" when absent.
func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	cid, _ := ctx.Value(correlationIDKey{}).(string)
	return cid
}
