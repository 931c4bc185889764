package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/planmeet/internal/auth"
	"github.com/spec-kit/planmeet/internal/events"
	apperrors "github.com/spec-kit/planmeet/pkg/util/errorutil"
)

// requestContext returns the request-scoped context carrying the caller as event actor.
func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if principal, ok := auth.PrincipalFromContext(c); ok {
		ctx = events.ContextWithActor(ctx, events.Actor{
			Subject:  principal.Claims.Subject,
			Username: principal.Claims.PreferredUsername,
			Team:     principal.Claims.Team(),
		})
	}
	return ctx
}

// parseBody decodes a JSON body. An empty body leaves out untouched so that
// field validation reports what is missing.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}
