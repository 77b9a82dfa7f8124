package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/municipal-booking/internal/api/dto"
	"github.com/civicdesk/municipal-booking/internal/service"
	apperrors "github.com/civicdesk/municipal-booking/pkg/util/errorutil"
)

// AuthHandler issues staff tokens.
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// StaffLogin POST /api/auth/staff/login.
func (h *AuthHandler) StaffLogin(c *fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	token, expiresAt, err := h.authService.LoginStaff(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenResponse{Token: token, ExpiresAt: expiresAt})
}
