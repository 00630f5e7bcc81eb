package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// TokenManager issues and verifies HMAC signed JWTs whose subject is a
// username. Rotating the secret invalidates every outstanding token.
type TokenManager struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

func NewTokenManager(secret []byte, algorithm string, now func() time.Time) (*TokenManager, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret is required")
	}
	var method jwt.SigningMethod
	switch algorithm {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if now == nil {
		now = time.Now
	}
	return &TokenManager{secret: secret, method: method, now: now}, nil
}

// Issue signs a token for subject that expires ttl from now.
func (m *TokenManager) Issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is required")
	}
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the token subject. The signature is checked before expiry,
// so a forged expired token is ErrInvalidToken, not ErrExpiredToken.
func (m *TokenManager) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ExpiresAt == nil {
		return "", fmt.Errorf("%w: exp claim is required", ErrInvalidToken)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: sub claim is required", ErrInvalidToken)
	}
	if !claims.ExpiresAt.Time.After(m.now()) {
		return "", ErrExpiredToken
	}
	return claims.Subject, nil
}
