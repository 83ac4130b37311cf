// Package identity carries the verified caller through a request context. The only writer
// is the authentication middleware; everything downstream reads the owner from here and
// never from request payloads.
package identity

import (
	"context"
	"errors"
	"strings"
)

// ErrUnauthenticated is returned when no verified identity is bound to the context.
var ErrUnauthenticated = errors.New("unauthenticated")

// Identity is a verified caller.
type Identity struct {
	ID    string
	Email string
}

type ctxKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity bound to ctx, or ErrUnauthenticated if there is none
// or its ID is blank.
func FromContext(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	if !ok || strings.TrimSpace(id.ID) == "" {
		return Identity{}, ErrUnauthenticated
	}
	return id, nil
}
