// Package auth implements the control channel's shared-password security:
// key generation and stretching, a nonce handshake, and an encrypted
// connection wrapper.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

// AutoGenKeyLength is the length of generated API keys.
const AutoGenKeyLength = 16

const (
	base62 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	kdfIterations = 100000
	kdfSalt       = "dsbridge-key-v1"
	sessionInfo   = "dsbridge-session-v1"
)

// GenerateKey returns a random base62 API key suitable for the key file.
func GenerateKey() (string, error) {
	raw := make([]byte, AutoGenKeyLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	for i, b := range raw {
		raw[i] = base62[int(b)%len(base62)]
	}
	return string(raw), nil
}

// DeriveKey stretches the shared password to a 32-byte key with PBKDF2.
func DeriveKey(password string) ([]byte, error) {
	if password == "" {
		return nil, errors.New("password cannot be empty")
	}
	return pbkdf2.Key([]byte(password), []byte(kdfSalt), kdfIterations, 32, sha256.New), nil
}

// DeriveSessionKey mixes the derived key with both handshake nonces. Plain
// SHA-256 concatenation keeps non-Go UI clients trivial to implement.
func DeriveSessionKey(key, serverNonce, clientNonce []byte) []byte {
	h := sha256.New()
	h.Write(key)
	h.Write(serverNonce)
	h.Write(clientNonce)
	h.Write([]byte(sessionInfo))
	return h.Sum(nil)
}
