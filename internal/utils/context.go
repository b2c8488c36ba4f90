package utils

// contextKey is a type used for context keys to avoid conflicts with other
// packages' context keys.
type contextKey struct {
	name string
}

// String returns the string representation of the context key.
func (c *contextKey) String() string {
	return c.name
}

// UserKey is the context key under which the authenticated user's snapshot is
// stored in a request context.
var UserKey = &contextKey{"currentUser"}

// TraceIdKey is the context key for the per-request trace id.
var TraceIdKey = &contextKey{"traceId"}

// SanitizedPayloadKey is the context key for the validated request body.
var SanitizedPayloadKey = &contextKey{"sanitizedPayload"}
