package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/planmeet/internal/api/dto"
	"github.com/spec-kit/planmeet/internal/auth"
	"github.com/spec-kit/planmeet/internal/service"
	apperrors "github.com/spec-kit/planmeet/pkg/util/errorutil"
)

// SessionHandler exposes login and the current identity.
type SessionHandler struct {
	auth *service.AuthService
}

// NewSessionHandler constructs handler.
func NewSessionHandler(authService *service.AuthService) *SessionHandler {
	return &SessionHandler{auth: authService}
}

// Login handles POST /auth/login.
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	tokens, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewLoginResponse(tokens))
}

// CurrentUser handles GET /user and echoes the decoded token claims.
func (h *SessionHandler) CurrentUser(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(dto.SessionResponse{Message: "User Authenticated", User: principal.Claims.Raw})
}
