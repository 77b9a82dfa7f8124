package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/civicdesk/municipal-booking/internal/auth"
	"github.com/civicdesk/municipal-booking/internal/config"
	apperrors "github.com/civicdesk/municipal-booking/pkg/util/errorutil"
)

func TestLoginStaff(t *testing.T) {
	hash, err := auth.HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	tm := auth.NewTokenManager("secret", 60)
	svc := NewAuthService(config.AuthConfig{
		Enabled:           true,
		StaffEmail:        "staff@porto.pt",
		StaffPasswordHash: hash,
	}, tm, nil)
	ctx := context.Background()

	token, expiresAt, err := svc.LoginStaff(ctx, " Staff@Porto.pt ", "s3cret")
	require.NoError(t, err)
	assert.False(t, expiresAt.IsZero())
	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleStaff, claims.Role)

	_, _, err = svc.LoginStaff(ctx, "staff@porto.pt", "wrong")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, _, err = svc.LoginStaff(ctx, "other@porto.pt", "s3cret")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, _, err = svc.LoginStaff(ctx, "", "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestLoginStaffDisabled(t *testing.T) {
	svc := NewAuthService(config.AuthConfig{}, auth.NewTokenManager("secret", 60), nil)
	_, _, err := svc.LoginStaff(context.Background(), "staff@porto.pt", "s3cret")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
