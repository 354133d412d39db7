// Package kit holds the small transport-agnostic plumbing shared by the
// filepipe surfaces: a typed endpoint shape, middleware chaining, and
// request-scoped context values.
package kit

import "context"

// Endpoint is a transport-agnostic request handler. Surfaces (MCP, HTTP)
// decode their wire format into a typed request, then call an Endpoint.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behaviour.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares so the first argument is the outermost wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
