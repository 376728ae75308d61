package helper

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zipline_manager/config"
	"zipline_manager/constants"
	"zipline_manager/model"
)

func testAccounts(t *testing.T) *config.AppConfig {
	t.Helper()
	adminHash, err := HashPassword("admin-secret")
	require.NoError(t, err)
	staffHash, err := HashPassword("gate-secret")
	require.NoError(t, err)
	return &config.AppConfig{
		AdminUsername:     "admin",
		AdminPasswordHash: adminHash,
		StaffUsername:     "accueil",
		StaffPasswordHash: staffHash,
	}
}

func TestAuthenticate(t *testing.T) {
	cfg := testAccounts(t)

	claim, ok := Authenticate(cfg, "admin", "admin-secret")
	require.True(t, ok)
	assert.Equal(t, model.TokenClaim{Username: "admin", Role: constants.ROLE_ADMIN}, claim)

	claim, ok = Authenticate(cfg, "accueil", "gate-secret")
	require.True(t, ok)
	assert.Equal(t, constants.ROLE_STAFF, claim.Role)

	_, ok = Authenticate(cfg, "accueil", "admin-secret")
	assert.False(t, ok)
	_, ok = Authenticate(cfg, "nobody", "gate-secret")
	assert.False(t, ok)

	cfg.StaffPasswordHash = ""
	_, ok = Authenticate(cfg, "accueil", "")
	assert.False(t, ok)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	data, err := GenerateAccessToken(model.TokenClaim{Username: "accueil", Role: constants.ROLE_STAFF}, "jwt-secret", time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, data.AccessToken)

	token, err := ParseToken(data.AccessToken, "jwt-secret")
	require.NoError(t, err)
	claim, err := ClaimFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, "accueil", claim.Username)
	assert.Equal(t, constants.ROLE_STAFF, claim.Role)

	_, err = ParseToken(data.AccessToken, "other-secret")
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	data, err := GenerateAccessToken(model.TokenClaim{Username: "admin", Role: constants.ROLE_ADMIN}, "jwt-secret", time.Now().Add(-24*time.Hour))
	require.NoError(t, err)

	_, err = ParseToken(data.AccessToken, "jwt-secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}
