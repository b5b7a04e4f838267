// Package requestid propagates request IDs through contexts and fiber handlers.
package requestid

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Header is the HTTP header carrying the request ID.
const Header = "X-Request-ID"

// LocalsKey is the fiber locals key under which the request ID is stored.
const LocalsKey = "request_id"

type ctxKey struct{}

// WithRequestID returns a context with the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the request ID from context, or generates a new one.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

// New generates a new request ID and returns the enriched context and ID.
func New(ctx context.Context) (context.Context, string) {
	id := uuid.New().String()
	return WithRequestID(ctx, id), id
}

// Middleware reuses an inbound X-Request-ID or mints a new one, echoes it on
// the response, and stores it in both fiber locals and the user context.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(Header)
		if len(id) > 128 {
			id = ""
		}
		var ctx context.Context
		if id != "" {
			ctx = WithRequestID(c.UserContext(), id)
		} else {
			ctx, id = New(c.UserContext())
		}
		c.SetUserContext(ctx)
		c.Set(Header, id)
		c.Locals(LocalsKey, id)
		return c.Next()
	}
}

// FromFiber returns the request ID stored by Middleware, or "".
func FromFiber(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalsKey).(string)
	return id
}
