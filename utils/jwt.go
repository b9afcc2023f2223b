package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenIssuer signs and verifies HS256 admin access tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

func NewTokenIssuer(secret string, ttl time.Duration, issuer string) *TokenIssuer {
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, issuer: issuer}
}

// Enabled reports whether a secret is configured.
func (t *TokenIssuer) Enabled() bool {
	return t != nil && len(t.secret) > 0
}

// GenerateJWT issues a token for the given admin.
func (t *TokenIssuer) GenerateJWT(adminID, username string) (string, time.Time, error) {
	if !t.Enabled() {
		return "", time.Time{}, errors.New("jwt secret is not set")
	}
	jti, err := generateJTI(16)
	if err != nil {
		return "", time.Time{}, err
	}
	now := time.Now()
	exp := now.Add(t.ttl)
	claims := jwt.MapClaims{
		"id":       adminID,
		"username": username,
		"role":     "admin",
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      jti,
		"iss":      t.issuer,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ValidateAccessToken parses tokenStr and checks signature, expiry, issuer
// and the admin role. It returns the admin id.
func (t *TokenIssuer) ValidateAccessToken(tokenStr string) (string, error) {
	if !t.Enabled() {
		return "", errors.New("jwt secret is not set")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if role, _ := claims["role"].(string); role != "admin" {
		return "", ErrInvalidToken
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return "", ErrInvalidToken
	}
	return id, nil
}

func generateJTI(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
