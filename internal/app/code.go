package app

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const codeIssuer = "account-hub"

type CodeClaims struct {
	AppID string `json:"app_id"`
	jwt.RegisteredClaims
}

// CodeSigner issues and parses the authorization codes applications present
// to the permission manager.
type CodeSigner struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

func NewCodeSigner(secret string, ttl time.Duration) *CodeSigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CodeSigner{
		secret: []byte(secret),
		ttl:    ttl,
		parser: jwt.NewParser(
			jwt.WithIssuer(codeIssuer),
			jwt.WithExpirationRequired(),
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		),
		now: time.Now,
	}
}

func (s *CodeSigner) Issue(appID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := CodeClaims{
		AppID: appID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    codeIssuer,
			Subject:   appID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	code, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return code, expiresAt, nil
}

// Parse returns the application id carried by code. Any signature, issuer or
// expiry problem is reported as ErrInvalidAuthorization.
func (s *CodeSigner) Parse(code string) (string, error) {
	var claims CodeClaims
	_, err := s.parser.ParseWithClaims(code, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.Join(ErrInvalidAuthorization, err)
		}
		return "", ErrInvalidAuthorization
	}
	if claims.AppID == "" {
		return "", ErrInvalidAuthorization
	}
	return claims.AppID, nil
}
