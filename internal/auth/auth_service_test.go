package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"
)

func newServiceUnderTest(t *testing.T) *AuthService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})

	svc, err := NewAuthService(privatePEM, publicPEM, 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return svc
}

func TestPasswordHashRoundTrip(t *testing.T) {
	svc := newServiceUnderTest(t)

	hash, err := svc.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "correct-horse" {
		t.Fatalf("hash must not equal the password")
	}
	if !svc.CheckPasswordHash("correct-horse", hash) {
		t.Fatalf("valid password rejected")
	}
	if svc.CheckPasswordHash("wrong", hash) {
		t.Fatalf("wrong password accepted")
	}
}

func TestGenerateAndValidateTokenPair(t *testing.T) {
	svc := newServiceUnderTest(t)

	pair, err := svc.GenerateTokenPair(42)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	access, err := svc.ValidateToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("validate access: %v", err)
	}
	if access.UserID != 42 || access.TokenType != "access" {
		t.Fatalf("unexpected access claims: %+v", access)
	}

	refresh, err := svc.ValidateToken(pair.RefreshToken)
	if err != nil {
		t.Fatalf("validate refresh: %v", err)
	}
	if refresh.UserID != 42 || refresh.TokenType != "refresh" {
		t.Fatalf("unexpected refresh claims: %+v", refresh)
	}
	if refresh.ID == "" {
		t.Fatalf("refresh token must carry a jti for revocation")
	}

	if _, err := svc.ValidateToken("garbage"); err == nil {
		t.Fatalf("garbage token accepted")
	}
}

func TestValidateTokenRejectsForeignKey(t *testing.T) {
	issuer := newServiceUnderTest(t)
	verifier := newServiceUnderTest(t)

	pair, err := issuer.GenerateTokenPair(1)
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}
	if _, err := verifier.ValidateToken(pair.AccessToken); err == nil {
		t.Fatalf("token signed with a different key must be rejected")
	}
}
