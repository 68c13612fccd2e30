// Package token implements the opaque token format shared by every portal:
// a crypto-random 64-hex secret, optionally carrying a region prefix
// ({REGION}-{64hex}) that routes the token to the regional database owning it.
// Signup tokens are bare secrets; TFA, session, password-reset, and
// email-change tokens are region-prefixed.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"regexp"
	"strings"

	"talentgrid/backend/internal/region"
)

var (
	// ErrMalformed is returned when a token string does not match the wire format.
	ErrMalformed = errors.New("malformed token")
	// ErrUnknownRegion is returned when a token's prefix is not a supported region.
	ErrUnknownRegion = errors.New("unknown token region")
	// ErrRegionMismatch is returned when a well-formed token belongs to a
	// different region than the one it is presented against. Handlers must map
	// it to the same status as an invalid token so the correct region is not
	// revealed.
	ErrRegionMismatch = errors.New("token region mismatch")
)

const secretBytes = 32

var (
	prefixedRe = regexp.MustCompile(`^[A-Za-z]{3}\d-[0-9a-f]{64}$`)
	bareRe     = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// NewSecret returns a fresh lowercase 64-hex token secret from crypto/rand.
func NewSecret() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Encode joins a region prefix and a raw secret into the wire form.
func Encode(r region.Region, secret string) string {
	return string(r) + "-" + secret
}

// Decode splits a region-prefixed token into its canonical region and raw
// secret. The prefix is matched case-insensitively and canonicalized to
// uppercase. Returns ErrMalformed for structural failures and ErrUnknownRegion
// for a well-formed but unsupported prefix.
func Decode(s string) (region.Region, string, error) {
	if !prefixedRe.MatchString(s) {
		return "", "", ErrMalformed
	}
	r, err := region.Parse(s[:4])
	if err != nil {
		return "", "", ErrUnknownRegion
	}
	return r, strings.ToLower(s[5:]), nil
}

// DecodeBare validates a bare (signup) token and returns its secret.
func DecodeBare(s string) (string, error) {
	if !bareRe.MatchString(s) {
		return "", ErrMalformed
	}
	return s, nil
}

// Digest returns the SHA-256 hash of a raw secret, hex-encoded. Only digests
// are stored; the raw secret never touches the database.
func Digest(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}

// DigestEqual performs a constant-time comparison of a raw secret's digest
// with a stored digest.
func DigestEqual(secret, storedDigest string) bool {
	d := Digest(secret)
	return subtle.ConstantTimeCompare([]byte(d), []byte(storedDigest)) == 1
}
