package server

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nerdintosubs/hiring-agent/internal/config"
	"github.com/nerdintosubs/hiring-agent/internal/server/middleware"
)

// Claims represents JWT claims with the caller's roles.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// AsTokenValidator returns a TokenValidator adapter for this JWTService.
// This allows the JWTService to be used with middleware without creating import cycles.
func (s *JWTService) AsTokenValidator() middleware.TokenValidator {
	return &jwtServiceValidator{service: s}
}

// jwtServiceValidator adapts JWTService to middleware.TokenValidator interface.
type jwtServiceValidator struct {
	service *JWTService
}

func (v *jwtServiceValidator) ValidateToken(tokenString string) (middleware.Principal, error) {
	claims, err := v.service.ValidateToken(tokenString)
	if err != nil {
		return middleware.Principal{}, err
	}
	return middleware.Principal{Subject: claims.Subject, Roles: claims.Roles}, nil
}

// JWTService provides JWT token generation and validation functionality.
type JWTService struct {
	config *config.JWTConfig
	now    func() time.Time
}

// NewJWTService creates a new JWT service with the given configuration.
func NewJWTService(cfg *config.JWTConfig) *JWTService {
	return &JWTService{
		config: cfg,
		now:    time.Now,
	}
}

// GenerateToken generates a JWT for subject carrying roles.
func (s *JWTService) GenerateToken(subject string, roles []string) (string, error) {
	now := s.now()
	expiresAt := now.Add(time.Duration(s.config.ExpirationHours) * time.Hour)

	claims := &Claims{
		Roles: normalizeRoles(roles),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	method := jwt.GetSigningMethod(s.config.Algorithm)
	if method == nil {
		return "", fmt.Errorf("unsupported signing algorithm: %s", s.config.Algorithm)
	}
	tokenString, err := jwt.NewWithClaims(method, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken validates a JWT and returns its claims. Only the configured
// algorithm is accepted. A token without a subject fails with
// middleware.ErrMissingSubject; a roles claim that is not a list fails with
// middleware.ErrRolesNotList. A missing roles claim yields no roles.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}

	raw := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, raw, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	}, jwt.WithValidMethods([]string{s.config.Algorithm}), jwt.WithTimeFunc(s.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("invalid token signature: %w", err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("token expired: %w", err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("malformed token: %w", err)
		default:
			return nil, fmt.Errorf("failed to parse token: %w", err)
		}
	}

	subject, _ := raw["sub"].(string)
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, middleware.ErrMissingSubject
	}

	var roles []string
	if value, ok := raw["roles"]; ok {
		list, isList := value.([]any)
		if !isList {
			return nil, middleware.ErrRolesNotList
		}
		for _, role := range list {
			roles = append(roles, fmt.Sprint(role))
		}
	}

	claims := &Claims{
		Roles:            normalizeRoles(roles),
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	}
	if exp, err := raw.GetExpirationTime(); err == nil {
		claims.ExpiresAt = exp
	}
	return claims, nil
}

// normalizeRoles trims, drops blanks and removes duplicates, keeping order.
func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		role = strings.TrimSpace(role)
		if role != "" && !slices.Contains(out, role) {
			out = append(out, role)
		}
	}
	return out
}
