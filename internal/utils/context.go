// Package utils provides general-purpose helpers used across the
// application: typed context keys, JWT generation and validation, JSON
// response writing, the shared resty HTTP client and UUID generation.
package utils

import (
	"context"

	"github.com/MKhiriev/go-doc-locker/models"
)

// contextKey is a private type for context keys.
// Using a dedicated type instead of a plain string prevents key collisions
// with other packages that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
func (c contextKey) String() string {
	return string(c)
}

// RequestorCtxKey is the key under which the auth middleware stores the
// authenticated [models.Requestor].
var RequestorCtxKey = contextKey("requestor")

// WithRequestor returns a copy of ctx carrying requestor.
func WithRequestor(ctx context.Context, requestor models.Requestor) context.Context {
	return context.WithValue(ctx, RequestorCtxKey, requestor)
}

// GetRequestorFromContext retrieves the authenticated caller from ctx.
// ok is false when no requestor was stored or the value has another type.
//
//	requestor, ok := utils.GetRequestorFromContext(ctx)
//	if !ok {
//	    // handle unauthenticated request
//	}
func GetRequestorFromContext(ctx context.Context) (models.Requestor, bool) {
	requestor, ok := ctx.Value(RequestorCtxKey).(models.Requestor)
	return requestor, ok
}
