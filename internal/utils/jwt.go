package utils

import (
	"fmt"
	"time"

	"hospital-management-server/internal/config"
	"hospital-management-server/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims represents the JWT claims.
type Claims struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// GenerateTokens generates both access and refresh tokens for a user.
func GenerateTokens(user *models.User, cfg *config.Config) (accessToken string, refreshToken string, err error) {
	now := time.Now()

	accessToken, err = signToken(user, now, now.Add(time.Duration(cfg.JWTExpirationMinutes)*time.Minute), cfg.JWTSecret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err = signToken(user, now, now.Add(time.Duration(cfg.JWTRefreshExpirationHours)*time.Hour), cfg.JWTRefreshSecret)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

func signToken(user *models.User, issuedAt, expiresAt time.Time, secret string) (string, error) {
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Subject:   user.ID,
			// Tokens issued within the same second must still differ.
			ID: uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken validates a JWT token.
func ValidateToken(tokenString string, secretKey string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

// TokenIssuer signs session tokens with the configured secrets.
type TokenIssuer struct {
	cfg *config.Config
}

// NewTokenIssuer creates a new TokenIssuer.
func NewTokenIssuer(cfg *config.Config) *TokenIssuer {
	return &TokenIssuer{cfg: cfg}
}

func (t *TokenIssuer) Issue(user *models.User) (string, string, error) {
	return GenerateTokens(user, t.cfg)
}

// ParseRefresh returns the user id of a valid refresh token.
func (t *TokenIssuer) ParseRefresh(token string) (string, error) {
	claims, err := ValidateToken(token, t.cfg.JWTRefreshSecret)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (t *TokenIssuer) RefreshTTL() time.Duration {
	return time.Duration(t.cfg.JWTRefreshExpirationHours) * time.Hour
}
