package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionIssuer = "account-hub"

// SessionCodec signs and verifies session tokens.
type SessionCodec struct {
	secret []byte
	maxAge time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

func NewSessionCodec(secret string, maxAge time.Duration) *SessionCodec {
	return &SessionCodec{
		secret: []byte(secret),
		maxAge: maxAge,
		parser: jwt.NewParser(
			jwt.WithIssuer(sessionIssuer),
			jwt.WithExpirationRequired(),
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		),
		now: time.Now,
	}
}

// Encode signs tok with a fresh expiry and returns it together with that expiry.
func (c *SessionCodec) Encode(tok Token) (string, time.Time, error) {
	now := c.now()
	expiresAt := now.Add(c.maxAge)

	tok.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   tok.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &tok).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return signed, expiresAt, nil
}

func (c *SessionCodec) Decode(raw string) (Token, error) {
	var tok Token
	_, err := c.parser.ParseWithClaims(raw, &tok, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Token{}, errors.Join(ErrInvalidSession, err)
		}
		return Token{}, ErrInvalidSession
	}
	return tok, nil
}

// GenerateRandomToken generates a cryptographically secure random token
func GenerateRandomToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
