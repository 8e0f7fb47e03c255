// Package auth verifies bearer credentials issued by the hosted auth platform.
//
// VERIFICATION FLOW OVERVIEW:
// 1. The frontend logs in through /api/v1/auth/login; the platform issues a JWT
// 2. The frontend sends it on every protected call: Authorization: Bearer <token>
// 3. RequireAuth middleware extracts the token and hands it to the Verifier
// 4. The Verifier checks signature, audience, and expiry, and exposes the
//    "sub" claim as the authenticated user ID for the rest of the request
//
// WHY REBUILD THE KEY FROM RAW COORDINATES?
// The platform signs tokens with ES256 (ECDSA over the P-256 curve), but the
// deployment only exposes the public key as the two raw curve coordinates
// (the "x" and "y" fields of its JWK), not as a ready-made PEM file. So the
// Verifier decodes the two base64url big-endian integers and reconstructs
// the *ecdsa.PublicKey itself. The key is deterministic given configuration,
// so it is built exactly once per process.
//
// Verification is entirely local — no network call, no session state. Each
// request carries everything needed inside the signed token.
package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ExpectedAudience is the "aud" claim the platform stamps on every
// user-facing access token. Tokens minted for other audiences (service
// roles, other projects) are rejected.
const ExpectedAudience = "authenticated"

// Classified verification failures. Handlers map all of these to 401, but
// the distinction matters: an expired token is a normal client condition,
// a bad signature is a possible attack, and both must be diagnosable from
// logs without ever becoming a 500.
var (
	ErrMissingToken     = errors.New("auth: missing or invalid authorization header")
	ErrInvalidSignature = errors.New("auth: invalid token signature")
	ErrTokenExpired     = errors.New("auth: token has expired")
	ErrWrongAudience    = errors.New("auth: invalid token audience")
	ErrMalformedToken   = errors.New("auth: malformed token")
)

// Verifier validates inbound bearer tokens against the platform's public key.
type Verifier struct {
	key *ecdsa.PublicKey
}

// NewVerifier reconstructs the platform's P-256 public key from the two
// base64url-encoded big-endian coordinates supplied via configuration.
//
// The coordinates come straight out of the platform's JWK, which uses
// unpadded base64url; padded input is accepted too since operators tend to
// paste either form. A point that does not lie on the curve is a
// misconfiguration and fails construction immediately rather than failing
// every request later.
func NewVerifier(xB64, yB64 string) (*Verifier, error) {
	if xB64 == "" || yB64 == "" {
		return nil, errors.New("auth: JWT key coordinates are required")
	}

	xBytes, err := decodeCoordinate(xB64)
	if err != nil {
		return nil, fmt.Errorf("auth: decoding x coordinate: %w", err)
	}
	yBytes, err := decodeCoordinate(yB64)
	if err != nil {
		return nil, fmt.Errorf("auth: decoding y coordinate: %w", err)
	}

	key := &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}

	// ECDH() validates the point is on the curve and not the identity.
	// Cheaper to reject a bad key here than to chase signature failures.
	if _, err := key.ECDH(); err != nil {
		return nil, fmt.Errorf("auth: invalid public key point: %w", err)
	}

	return &Verifier{key: key}, nil
}

// decodeCoordinate decodes a base64url big-endian integer, with or without
// padding.
func decodeCoordinate(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

// Verify parses and validates a bearer token string and returns the
// authenticated user ID (the "sub" claim).
//
// CHECKS, IN ORDER:
//   - Signature is a valid ES256 signature under the reconstructed key
//     (jwt.WithValidMethods pins the algorithm — prevents algorithm
//     confusion attacks where an attacker downgrades to "none" or HMAC)
//   - Audience equals "authenticated"
//   - Expiry claim is present and in the future
//
// Every failure is translated to one of the classified sentinels above; the
// raw library error stays wrapped underneath for logging.
func (v *Verifier) Verify(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return v.key, nil
		},
		jwt.WithValidMethods([]string{"ES256"}),
		jwt.WithAudience(ExpectedAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", classify(err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", ErrMalformedToken
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: no subject claim", ErrMalformedToken)
	}

	return claims.Subject, nil
}

// classify translates jwt library errors into this package's sentinels.
// Order matters: an expired token also fails generic validity checks, so
// the more specific causes are tested first.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return fmt.Errorf("%w: %w", ErrWrongAudience, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
}

// PublicKeyPEM serializes the reconstructed key to PKIX/PEM. Only used for
// diagnostics — comparing the rebuilt key against the platform dashboard
// when token verification misbehaves.
func (v *Verifier) PublicKeyPEM() (string, error) {
	der, err := x509.MarshalPKIXPublicKey(v.key)
	if err != nil {
		return "", fmt.Errorf("auth: marshaling public key: %w", err)
	}
	block := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return string(block), nil
}
