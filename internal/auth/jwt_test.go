package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testIdentity = Identity{
	Subject:  "7d9a1a7c-4a7e-4b6f-9a39-2f6f4f1f8a11",
	TenantID: "1",
	Papel:    "ADMIN",
	Nome:     "Admin",
	Email:    "admin@mail.com",
}

func newTestManager(accessTTL, refreshTTL time.Duration) *JWTManager {
	return NewJWTManager(strings.Repeat("s", 32), accessTTL, refreshTTL)
}

func TestAccessTokenRoundtrip(t *testing.T) {
	mgr := newTestManager(time.Minute, time.Hour)

	token, err := mgr.GenerateAccessToken(testIdentity)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := mgr.ParseAndValidate(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if claims.Subject != testIdentity.Subject {
		t.Errorf("subject: esperava %s, obteve %s", testIdentity.Subject, claims.Subject)
	}
	if claims.TenantID != testIdentity.TenantID {
		t.Errorf("tenantId: esperava %s, obteve %s", testIdentity.TenantID, claims.TenantID)
	}
	if claims.Papel != testIdentity.Papel {
		t.Errorf("role: esperava %s, obteve %s", testIdentity.Papel, claims.Papel)
	}
	if claims.Email != testIdentity.Email {
		t.Errorf("email: esperava %s, obteve %s", testIdentity.Email, claims.Email)
	}
}

func TestTokenExpirado(t *testing.T) {
	mgr := newTestManager(-time.Minute, time.Hour)

	token, err := mgr.GenerateAccessToken(testIdentity)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := mgr.ParseAndValidate(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("esperava ErrTokenInvalid, obteve %v", err)
	}
}

func TestTokenAssinadoComOutroSegredo(t *testing.T) {
	mgrA := newTestManager(time.Minute, time.Hour)
	mgrB := NewJWTManager(strings.Repeat("x", 32), time.Minute, time.Hour)

	token, err := mgrA.GenerateAccessToken(testIdentity)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := mgrB.ParseAndValidate(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("esperava ErrTokenInvalid, obteve %v", err)
	}
}

func TestTokenAdulterado(t *testing.T) {
	mgr := newTestManager(time.Minute, time.Hour)

	token, err := mgr.GenerateAccessToken(testIdentity)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("jwt deveria ter 3 partes")
	}
	adulterado := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	if _, err := mgr.ParseAndValidate(adulterado); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("esperava ErrTokenInvalid, obteve %v", err)
	}
}

func TestDecodeNaoValidaAssinatura(t *testing.T) {
	mgrA := newTestManager(time.Minute, time.Hour)
	mgrB := NewJWTManager(strings.Repeat("y", 32), time.Minute, time.Hour)

	token, err := mgrA.GenerateAccessToken(testIdentity)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := mgrB.Decode(token)
	if err != nil {
		t.Fatalf("decode deveria aceitar token de outro emissor: %v", err)
	}
	if claims.Email != testIdentity.Email {
		t.Errorf("decode perdeu claims: %+v", claims)
	}
}

func TestRefreshHashEstavel(t *testing.T) {
	mgr := newTestManager(time.Minute, time.Hour)

	token, err := mgr.GenerateRefreshToken(testIdentity)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	h1 := HashRefreshToken(token)
	h2 := HashRefreshToken(token)
	if h1 != h2 {
		t.Fatal("hash do mesmo token deveria ser determinístico")
	}
	if h1 == HashRefreshToken(token+"x") {
		t.Fatal("tokens distintos não deveriam colidir trivialmente")
	}
	if strings.ContainsAny(h1, "+/=") {
		t.Fatalf("hash deveria ser base64 url-safe: %s", h1)
	}
}

func TestRefreshRedisKey(t *testing.T) {
	if got := RefreshRedisKey("abc"); got != "refresh:abc" {
		t.Fatalf("chave inesperada: %s", got)
	}
}
