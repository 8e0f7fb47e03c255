package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// newTestKey generates a fresh P-256 keypair and returns the private key
// plus the base64url coordinates of the matching public key — the exact
// format the deployment exposes via SUPABASE_JWT_X / SUPABASE_JWT_Y.
func newTestKey(t *testing.T) (*ecdsa.PrivateKey, string, string) {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}

	// P-256 coordinates are 32-byte big-endian integers. FillBytes keeps
	// leading zero bytes, matching how JWKs encode them.
	xBytes := make([]byte, 32)
	yBytes := make([]byte, 32)
	priv.PublicKey.X.FillBytes(xBytes)
	priv.PublicKey.Y.FillBytes(yBytes)

	return priv,
		base64.RawURLEncoding.EncodeToString(xBytes),
		base64.RawURLEncoding.EncodeToString(yBytes)
}

// signToken builds an ES256 token with the given claims.
func signToken(t *testing.T, priv *ecdsa.PrivateKey, sub, aud string, exp time.Time) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   sub,
		Audience:  jwt.ClaimStrings{aud},
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(priv)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestNewVerifier_MissingCoordinates(t *testing.T) {
	if _, err := NewVerifier("", ""); err == nil {
		t.Fatal("NewVerifier() should error on empty coordinates")
	}
}

func TestNewVerifier_GarbageCoordinates(t *testing.T) {
	if _, err := NewVerifier("!!not-base64!!", "also/not"); err == nil {
		t.Fatal("NewVerifier() should error on undecodable coordinates")
	}
}

func TestNewVerifier_PointNotOnCurve(t *testing.T) {
	// (1, 1) is not a point on P-256. Construction must fail, not every
	// later Verify call.
	one := base64.RawURLEncoding.EncodeToString([]byte{1})
	if _, err := NewVerifier(one, one); err == nil {
		t.Fatal("NewVerifier() should reject a point off the curve")
	}
}

func TestNewVerifier_AcceptsPaddedCoordinates(t *testing.T) {
	_, x, y := newTestKey(t)

	// Operators paste coordinates both with and without padding.
	if _, err := NewVerifier(x+"==", y+"=="); err != nil {
		t.Fatalf("NewVerifier() with padded input: %v", err)
	}
}

func TestVerify_ValidToken(t *testing.T) {
	priv, x, y := newTestKey(t)
	v, err := NewVerifier(x, y)
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}

	token := signToken(t, priv, "user-123", ExpectedAudience, time.Now().Add(time.Hour))

	sub, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if sub != "user-123" {
		t.Errorf("subject = %q, want %q", sub, "user-123")
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	priv, x, y := newTestKey(t)
	v, _ := NewVerifier(x, y)

	token := signToken(t, priv, "user-123", ExpectedAudience, time.Now().Add(-time.Minute))

	_, err := v.Verify(token)
	if err == nil {
		t.Fatal("Verify() should reject an expired token")
	}
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("error = %v, want ErrTokenExpired", err)
	}
	// Never a generic failure: the expired classification must be the one
	// the caller sees.
	if errors.Is(err, ErrInvalidSignature) || errors.Is(err, ErrMalformedToken) {
		t.Errorf("expired token misclassified: %v", err)
	}
}

func TestVerify_WrongAudience(t *testing.T) {
	priv, x, y := newTestKey(t)
	v, _ := NewVerifier(x, y)

	token := signToken(t, priv, "user-123", "service_role", time.Now().Add(time.Hour))

	_, err := v.Verify(token)
	if !errors.Is(err, ErrWrongAudience) {
		t.Errorf("error = %v, want ErrWrongAudience", err)
	}
}

func TestVerify_WrongKey(t *testing.T) {
	// Token signed by one key, verifier built from a different one.
	otherPriv, _, _ := newTestKey(t)
	_, x, y := newTestKey(t)
	v, _ := NewVerifier(x, y)

	token := signToken(t, otherPriv, "user-123", ExpectedAudience, time.Now().Add(time.Hour))

	_, err := v.Verify(token)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("error = %v, want ErrInvalidSignature", err)
	}
}

func TestVerify_HMACTokenRejected(t *testing.T) {
	// Algorithm confusion: a token HMAC-signed with some shared string must
	// never pass, regardless of its claims.
	_, x, y := newTestKey(t)
	v, _ := NewVerifier(x, y)

	claims := jwt.RegisteredClaims{
		Subject:   "user-123",
		Audience:  jwt.ClaimStrings{ExpectedAudience},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("signing HMAC token: %v", err)
	}

	if _, err := v.Verify(token); err == nil {
		t.Fatal("Verify() should reject an HS256 token")
	}
}

func TestVerify_MissingSubject(t *testing.T) {
	priv, x, y := newTestKey(t)
	v, _ := NewVerifier(x, y)

	token := signToken(t, priv, "", ExpectedAudience, time.Now().Add(time.Hour))

	_, err := v.Verify(token)
	if !errors.Is(err, ErrMalformedToken) {
		t.Errorf("error = %v, want ErrMalformedToken", err)
	}
}

func TestVerify_GarbageString(t *testing.T) {
	_, x, y := newTestKey(t)
	v, _ := NewVerifier(x, y)

	_, err := v.Verify("not.a.token")
	if !errors.Is(err, ErrMalformedToken) {
		t.Errorf("error = %v, want ErrMalformedToken", err)
	}
}

func TestPublicKeyPEM(t *testing.T) {
	_, x, y := newTestKey(t)
	v, _ := NewVerifier(x, y)

	pemStr, err := v.PublicKeyPEM()
	if err != nil {
		t.Fatalf("PublicKeyPEM() error = %v", err)
	}
	if !strings.HasPrefix(pemStr, "-----BEGIN PUBLIC KEY-----") {
		t.Errorf("PEM output missing header: %q", pemStr)
	}
}
