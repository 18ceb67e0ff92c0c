package identity

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"
)

// PlainCodec is a pure, unsigned bijection on the member id string:
// base64url(id). It satisfies spec.md §4.3's minimum bar ("no
// secrecy guarantee is required beyond the current implementation")
// but is trivially forgeable, exactly the open question spec.md §9
// raises.
type PlainCodec struct{}

func (PlainCodec) Encode(memberID string) (string, error) {
	return base64.RawURLEncoding.EncodeToString([]byte(memberID)), nil
}

func (PlainCodec) Decode(token string) (string, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

// HMACCodec signs the encoded member id so a noauth token cannot be
// forged into an arbitrary member id; this is the resolution of
// spec.md §9's open question recorded in DESIGN.md.
type HMACCodec struct {
	secret []byte
}

// NewHMACCodec builds an HMACCodec keyed by secret.
func NewHMACCodec(secret string) *HMACCodec {
	return &HMACCodec{secret: []byte(secret)}
}

func (h *HMACCodec) Encode(memberID string) (string, error) {
	id := base64.RawURLEncoding.EncodeToString([]byte(memberID))
	sig := h.sign(id)
	return id + "." + sig, nil
}

func (h *HMACCodec) Decode(token string) (string, bool) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return "", false
	}
	id, sig := parts[0], parts[1]

	expected := h.sign(id)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) != 1 {
		return "", false
	}

	raw, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func (h *HMACCodec) sign(payload string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
