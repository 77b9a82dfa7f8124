package service

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/civicdesk/municipal-booking/internal/auth"
	"github.com/civicdesk/municipal-booking/internal/config"
	apperrors "github.com/civicdesk/municipal-booking/pkg/util/errorutil"
)

// AuthService issues staff access tokens against the configured operator credential.
type AuthService struct {
	cfg      config.AuthConfig
	tokenMgr *auth.TokenManager
	logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, tokenMgr *auth.TokenManager, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{cfg: cfg, tokenMgr: tokenMgr, logger: logger}
}

// Enabled reports whether staff login is available.
func (s *AuthService) Enabled() bool {
	return s.cfg.Enabled
}

// LoginStaff verifies email and password and returns a signed token.
func (s *AuthService) LoginStaff(ctx context.Context, email, password string) (string, time.Time, error) {
	if !s.cfg.Enabled {
		return "", time.Time{}, apperrors.NewNotFound("staff login", nil)
	}
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", time.Time{}, apperrors.NewValidationError("email and password required", nil)
	}

	emailMatch := subtle.ConstantTimeCompare([]byte(strings.ToLower(email)), []byte(strings.ToLower(s.cfg.StaffEmail))) == 1
	passwordErr := auth.ComparePassword(s.cfg.StaffPasswordHash, password)
	if !emailMatch || passwordErr != nil {
		s.logger.Warn("staff login rejected", zap.String("email", email))
		return "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(s.cfg.StaffEmail, auth.RoleStaff)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	return token, expiresAt, nil
}
