// Package token seals and opens the opaque bearer value stored in the
// session cookie. The value carries the session id plus the per-session
// secret, AEAD-encrypted so nothing leaks and any tampering is detected.
//
// Splitting session identity into a lookup id and a hashed-at-rest secret
// means a database dump alone is not enough to hijack a session: the
// attacker also needs the cookie or the server key.
package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"

	id "gatehouse/pkg/domain"
)

// ErrInvalidToken is the single failure mode for Decode. Malformed input,
// tag mismatch, and bad payload shape are deliberately indistinguishable.
var ErrInvalidToken = errors.New("invalid token")

// DeriveKey turns a configured secret string into a 32-byte AES key.
func DeriveKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	key := make([]byte, 32)
	copy(key, sum[:])
	return key
}

// Codec encodes and decodes bearer tokens with AES-256-GCM.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a codec from a 32-byte key.
func NewCodec(key []byte) (*Codec, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Codec{aead: aead}, nil
}

// payload is the sealed plaintext. Both fields are required on decode.
type payload struct {
	SessionID string `json:"sid"`
	Secret    string `json:"sec"`
}

// Encode seals {sessionID, secret} into a cookie-safe opaque string.
func (c *Codec) Encode(sessionID id.SessionID, secret string) (string, error) {
	plain, err := json.Marshal(payload{
		SessionID: sessionID.String(),
		Secret:    secret,
	})
	if err != nil {
		return "", err
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, plain, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode opens a token back into its session id and secret. Every failure
// path returns ErrInvalidToken so the gate has exactly one reject branch.
func (c *Codec) Decode(tok string) (id.SessionID, string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil {
		return id.SessionID{}, "", ErrInvalidToken
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns {
		return id.SessionID{}, "", ErrInvalidToken
	}
	plain, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return id.SessionID{}, "", ErrInvalidToken
	}
	var p payload
	if err := json.Unmarshal(plain, &p); err != nil {
		return id.SessionID{}, "", ErrInvalidToken
	}
	if p.Secret == "" {
		return id.SessionID{}, "", ErrInvalidToken
	}
	sessionID, err := id.ParseSessionID(p.SessionID)
	if err != nil {
		return id.SessionID{}, "", ErrInvalidToken
	}
	return sessionID, p.Secret, nil
}
