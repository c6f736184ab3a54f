package security

import (
	"testing"
	"time"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	opts := DefaultOptions([]byte("unit-secret"))
	token, expireAt, err := Generate(opts, "u42", []string{"moderator", "beta"})
	if err != nil {
		t.Fatal(err)
	}
	if until := time.Until(expireAt); until < time.Hour {
		t.Fatalf("expiry too soon: %v", until)
	}

	claims, err := Verify(opts, token)
	if err != nil {
		t.Fatal(err)
	}
	if sub, _ := claims.GetSubject(); sub != "u42" {
		t.Fatalf("sub = %q", sub)
	}
	scopes := Scopes(claims)
	if len(scopes) != 2 || scopes[0] != "moderator" || scopes[1] != "beta" {
		t.Fatalf("scopes = %v", scopes)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	opts := DefaultOptions([]byte("unit-secret"))
	token, _, err := Generate(opts, "u42", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Verify(DefaultOptions([]byte("another-secret")), token); err == nil {
		t.Fatalf("wrong key must fail verification")
	}
	if _, err := Verify(opts, token+"x"); err == nil {
		t.Fatalf("tampered signature must fail verification")
	}
}

func TestScopesAbsent(t *testing.T) {
	opts := DefaultOptions([]byte("unit-secret"))
	token, _, err := Generate(opts, "u42", nil)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := Verify(opts, token)
	if err != nil {
		t.Fatal(err)
	}
	if got := Scopes(claims); len(got) != 0 {
		t.Fatalf("scopes = %v", got)
	}
}

func TestUnsupportedAlgRefused(t *testing.T) {
	opts := Options{Secret: []byte("k"), Alg: "RS256"}
	if _, _, err := Generate(opts, "u1", nil); err == nil {
		t.Fatalf("RS256 must be refused at mint time")
	}
	if _, err := Verify(opts, "whatever"); err == nil {
		t.Fatalf("RS256 must be refused at verify time")
	}
}

func TestHashPasswordDeterministic(t *testing.T) {
	a := HashPassword("hunter2")
	if a != HashPassword("hunter2") {
		t.Fatalf("hash not stable")
	}
	if a == HashPassword("hunter3") {
		t.Fatalf("distinct inputs collided")
	}
	if len(a) != 64 {
		t.Fatalf("hex digest length = %d", len(a))
	}
}
