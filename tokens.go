package taskvault

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL matches the original seven-day token lifetime.
const DefaultTokenTTL = 7 * 24 * time.Hour

// TokenCodec signs and verifies the compact bearer tokens issued at
// registration and login. The secret is fixed at construction; rotating
// it invalidates every outstanding token.
type TokenCodec struct {
	SecretKey string
	Issuer    string
	TTL       time.Duration
}

// NewTokenCodec creates a codec with the given process-wide secret.
func NewTokenCodec(secretKey, issuer string, ttl time.Duration) *TokenCodec {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenCodec{SecretKey: secretKey, Issuer: issuer, TTL: ttl}
}

// IssueToken creates a signed token naming userID as its subject.
func (c *TokenCodec) IssueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(c.TTL).Unix(),
	}
	if c.Issuer != "" {
		claims["iss"] = c.Issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(c.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// VerifyToken checks the signature and expiry and returns the user id
// the token names. Expiry of an otherwise valid token fails with
// ErrExpiredToken; every other failure maps to ErrInvalidToken so a
// decode error can never fall through as an identity.
func (c *TokenCodec) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(c.SecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if c.Issuer != "" {
		if iss, ok := claims["iss"].(string); !ok || iss != c.Issuer {
			return "", ErrInvalidToken
		}
	}

	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidToken
	}
	return userID, nil
}
