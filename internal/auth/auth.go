// Package auth implements the two authentication primitives spec.md
// §1 names as external collaborators (password hashing, bearer token
// issuance) so the HTTP surface has something real to call. Neither
// primitive is part of the tournament core; C3 (internal/identity)
// only depends on the TokenVerifier interface below.
//
// Password hashing uses golang.org/x/crypto/bcrypt, already a teacher
// dependency (pulled in transitively by the teacher's go.mod) and
// promoted here to a direct, exercised import, grounded in the
// intent of _examples/original_source/app/src/utils (password/JWT
// primitives live alongside each other there too).
//
// No library in the retrieved example pack imports a JWT
// implementation (checked every go.mod under _examples and every
// file under _examples/other_examples): the bearer token below is a
// minimal HMAC-SHA256-signed payload built on the standard library.
// See DESIGN.md for the corresponding no-library justification.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidToken is returned by Verify for a malformed, expired, or
// forged token.
var ErrInvalidToken = errors.New("auth: invalid token")

// HashPassword bcrypt-hashes a plaintext password for storage.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword reports whether plaintext matches hash.
func ComparePassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// TokenVerifier resolves a bearer token to a user id. The identity
// resolver (C3) depends only on this interface.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// TokenIssuer issues bearer tokens carrying a user id.
type TokenIssuer interface {
	Issue(userID string, ttl time.Duration) (string, error)
}

// HMACTokens implements both TokenIssuer and TokenVerifier with a
// signed "<userID>.<expiryUnix>.<signature>" bearer token.
type HMACTokens struct {
	secret []byte
}

// NewHMACTokens builds an HMACTokens keyed by secret.
func NewHMACTokens(secret string) *HMACTokens {
	return &HMACTokens{secret: []byte(secret)}
}

// Issue produces a bearer token for userID valid for ttl.
func (h *HMACTokens) Issue(userID string, ttl time.Duration) (string, error) {
	if strings.Contains(userID, ".") {
		return "", errors.New("auth: userID must not contain '.'")
	}
	expiry := time.Now().Add(ttl).Unix()
	payload := fmt.Sprintf("%s.%d", userID, expiry)
	sig := h.sign(payload)
	return payload + "." + sig, nil
}

// Verify checks the signature and expiry of token and returns the
// carried user id.
func (h *HMACTokens) Verify(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", ErrInvalidToken
	}
	userID, expiryStr, sig := parts[0], parts[1], parts[2]
	payload := userID + "." + expiryStr

	expected := h.sign(payload)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) != 1 {
		return "", ErrInvalidToken
	}

	expiry, err := strconv.ParseInt(expiryStr, 10, 64)
	if err != nil {
		return "", ErrInvalidToken
	}
	if time.Now().Unix() > expiry {
		return "", ErrInvalidToken
	}

	return userID, nil
}

func (h *HMACTokens) sign(payload string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
