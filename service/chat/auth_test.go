package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/notdezzi/freedomtalk/tools/errs"
	"github.com/notdezzi/freedomtalk/tools/security"
)

var testJWTOpts = security.DefaultOptions([]byte("verifier-secret"))

func TestJWTVerifierAcceptsMintedToken(t *testing.T) {
	token, _, err := security.Generate(testJWTOpts, "alice", []string{"moderator"})
	if err != nil {
		t.Fatal(err)
	}
	id, err := NewJWTVerifier(testJWTOpts).Verify(context.Background(), token)
	if err != nil {
		t.Fatal(err)
	}
	if id.UserID != "alice" || !id.HasScope("moderator") {
		t.Fatalf("identity = %+v", id)
	}
}

func TestJWTVerifierMissingToken(t *testing.T) {
	v := NewJWTVerifier(testJWTOpts)
	for _, cred := range []string{"", "   "} {
		if _, err := v.Verify(context.Background(), cred); !errors.Is(err, errs.ErrTokenMissing) {
			t.Fatalf("cred %q: want UNAUTHORIZED, got %v", cred, err)
		}
	}
}

func TestJWTVerifierRejectsBadTokens(t *testing.T) {
	v := NewJWTVerifier(testJWTOpts)

	expired, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString(testJWTOpts.Secret)
	if err != nil {
		t.Fatal(err)
	}

	wrongKey, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatal(err)
	}

	noSub, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(testJWTOpts.Secret)
	if err != nil {
		t.Fatal(err)
	}

	for name, cred := range map[string]string{
		"garbage":      "not.a.token",
		"expired":      expired,
		"wrong secret": wrongKey,
		"missing sub":  noSub,
	} {
		if _, err := v.Verify(context.Background(), cred); !errors.Is(err, errs.ErrTokenInvalid) {
			t.Fatalf("%s: want INVALID_TOKEN, got %v", name, err)
		}
	}
}
