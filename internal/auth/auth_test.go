package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func testKeys(t *testing.T) (*rsa.PrivateKey, *Keys) {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating rsa key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("marshaling public key: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	keys, err := NewKeys(pubPEM)
	if err != nil {
		t.Fatalf("NewKeys: %v", err)
	}
	return priv, keys
}

func TestValidateToken(t *testing.T) {
	priv, keys := testKeys(t)

	claims := Claims{
		Roles: []string{RoleUser},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(priv)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	got, err := keys.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if got.Subject != "7" || !got.HasRole(RoleUser) {
		t.Errorf("unexpected claims: %+v", got)
	}
	if got.HasRole(RoleAdmin) {
		t.Errorf("claims report admin role they do not carry")
	}
}

func TestValidateTokenRejectsWrongAlg(t *testing.T) {
	_, keys := testKeys(t)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "7"}).
		SignedString([]byte("hmac-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	if _, err := keys.ValidateToken(token); err == nil {
		t.Fatal("HS256 token accepted")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	priv, keys := testKeys(t)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(priv)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	if _, err := keys.ValidateToken(token); err == nil {
		t.Fatal("expired token accepted")
	}
}
