package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nerdintosubs/hiring-agent/internal/config"
	"github.com/nerdintosubs/hiring-agent/internal/server/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jwtTestSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func setupTestJWTService(_ *testing.T, expirationHours int) *JWTService {
	return NewJWTService(&config.JWTConfig{
		Secret:          jwtTestSecret,
		Algorithm:       "HS256",
		ExpirationHours: expirationHours,
	})
}

// signRaw signs arbitrary claims with the test secret.
func signRaw(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(jwtTestSecret))
	require.NoError(t, err)
	return token
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	service := setupTestJWTService(t, 24)

	token, err := service.GenerateToken("recruiter-1", []string{"recruiter", " admin ", "recruiter", ""})
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3, "JWT should have 3 parts separated by dots")

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "recruiter-1", claims.Subject)
	assert.Equal(t, []string{"recruiter", "admin"}, claims.Roles)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestJWTService_ConfiguredAlgorithm(t *testing.T) {
	service := NewJWTService(&config.JWTConfig{Secret: jwtTestSecret, Algorithm: "HS512", ExpirationHours: 1})

	token, err := service.GenerateToken("svc", []string{"service"})
	require.NoError(t, err)
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	require.NoError(t, err)
	assert.Equal(t, "HS512", parsed.Method.Alg())

	_, err = setupTestJWTService(t, 1).ValidateToken(token)
	assert.Error(t, err, "HS256 service must reject an HS512 token")
}

func TestJWTService_ValidateToken_Failures(t *testing.T) {
	service := setupTestJWTService(t, 24)
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name    string
		token   string
		wantIs  error
		wantMsg string
	}{
		{name: "empty", token: "", wantMsg: "token string is empty"},
		{name: "malformed", token: "not.a.jwt", wantMsg: "malformed token"},
		{
			name:    "wrong secret",
			token:   func() string { s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("other")); return s }(),
			wantMsg: "invalid token signature",
		},
		{
			name:    "expired",
			token:   signRaw(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x", "roles": []string{"admin"}, "exp": time.Now().Add(-time.Hour).Unix()}),
			wantMsg: "token expired",
		},
		{
			name:   "missing subject",
			token:  signRaw(t, jwt.SigningMethodHS256, jwt.MapClaims{"roles": []string{"admin"}, "exp": future}),
			wantIs: middleware.ErrMissingSubject,
		},
		{
			name:   "blank subject",
			token:  signRaw(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "  ", "roles": []string{"admin"}}),
			wantIs: middleware.ErrMissingSubject,
		},
		{
			name:   "roles as string",
			token:  signRaw(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x", "roles": "admin"}),
			wantIs: middleware.ErrRolesNotList,
		},
		{
			name:   "roles null",
			token:  signRaw(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x", "roles": nil}),
			wantIs: middleware.ErrRolesNotList,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateToken(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestJWTService_MissingRolesClaimYieldsNoRoles(t *testing.T) {
	service := setupTestJWTService(t, 24)
	claims, err := service.ValidateToken(signRaw(t, jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}))
	require.NoError(t, err)
	assert.Empty(t, claims.Roles)
}

func TestJWTService_AsTokenValidator(t *testing.T) {
	service := setupTestJWTService(t, 24)
	token, err := service.GenerateToken("ops", []string{"service"})
	require.NoError(t, err)

	p, err := service.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, middleware.Principal{Subject: "ops", Roles: []string{"service"}}, p)
}
