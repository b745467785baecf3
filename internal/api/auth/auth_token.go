package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/talkio/go-user-accounts/config"
	"github.com/talkio/go-user-accounts/internal/api"
)

const defaultTokenTTL = 365 * 24 * time.Hour

// Claims is the identity subset embedded in every authentication token.
type Claims struct {
	UserID      string `json:"user_id"`
	AccountType string `json:"account_type"`
	Status      string `json:"status"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed, expiring identity tokens.
type TokenService struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenService{
		secretKey: []byte(cfg.SecretKey),
		issuer:    cfg.Issuer,
		ttl:       ttl,
	}
}

// Issue signs a token carrying the user's id, account type and status.
func (s *TokenService) Issue(userID, accountType, status string) (string, error) {
	if len(s.secretKey) == 0 {
		return "", fmt.Errorf("token signing key is not configured: %w", api.ErrUpstream)
	}

	now := time.Now()
	claims := Claims{
		UserID:      userID,
		AccountType: accountType,
		Status:      status,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("could not generate the user token: %w", api.ErrUpstream)
	}
	return signed, nil
}

// Verify validates signature and expiry and returns the embedded claims.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid or expired token: %w", api.ErrUnauthenticated)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", api.ErrUnauthenticated)
	}
	return claims, nil
}
