// ABOUTME: Context injection for the Core
// ABOUTME: Provides WithContext/FromContext so handlers receive the core without globals

package core

import "context"

// coreContextKey is the key type for storing a Core in context.Context.
type coreContextKey struct{}

// WithContext returns a new context with c attached.
func WithContext(ctx context.Context, c *Core) context.Context {
	return context.WithValue(ctx, coreContextKey{}, c)
}

// FromContext retrieves the Core from the context, returning nil if not present.
func FromContext(ctx context.Context) *Core {
	c, _ := ctx.Value(coreContextKey{}).(*Core)
	return c
}
