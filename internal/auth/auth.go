package auth

import (
	"crypto/rsa"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey int

// ClaimsKey is the request-context key under which validated claims are stored.
const ClaimsKey ctxKey = 1

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Claims carries the identity and roles encoded in the access token issued
// by the user service. Subject is the user id.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// HasRole reports whether the token carries the given role.
func (c Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Keys holds the public key used to validate tokens. Token issuance lives in
// the user service; this service only verifies.
type Keys struct {
	pubKey *rsa.PublicKey
}

func NewKeys(publicPEM []byte) (*Keys, error) {
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing auth public key: %w", err)
	}
	return &Keys{pubKey: pubKey}, nil
}

// ValidateToken parses and verifies an RS256 token and returns its claims.
func (k *Keys) ValidateToken(token string) (Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return k.pubKey, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("parsing token: %w", err)
	}
	if !tkn.Valid {
		return Claims{}, fmt.Errorf("invalid token")
	}
	return claims, nil
}
