package auth

import (
	"bufio"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	apitypes "github.com/Alia5/dsbridge/apitypes"
	apierror "github.com/Alia5/dsbridge/internal/server/api/error"
)

// Handshake wire format, client first:
//
//	client -> server: magic | client_nonce[32] | hmac(key, context|client_nonce)
//	server -> client: "OK\x00" | server_nonce[32]
//
// A rejected client receives a JSON error line instead of the OK prefix.
const (
	HandshakeMagic = "dsB1\x00"
	NonceSize      = 32

	handshakeContext = "dsbridge-auth-v1"
	okPrefix         = "OK\x00"
)

func nonceMAC(key, nonce []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(handshakeContext))
	mac.Write(nonce)
	return mac.Sum(nil)
}

func newNonce() ([]byte, error) {
	n := make([]byte, NonceSize)
	if _, err := rand.Read(n); err != nil {
		return nil, err
	}
	return n, nil
}

// IsAuthHandshake peeks whether the connection opens with the handshake magic.
func IsAuthHandshake(r *bufio.Reader) (bool, error) {
	b, err := r.Peek(len(HandshakeMagic))
	if err != nil {
		return false, err
	}
	return string(b) == HandshakeMagic, nil
}

// ReadClientNonce reads the 32-byte client nonce. The handshake magic must
// already be consumed.
func ReadClientNonce(r io.Reader) ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(r, nonce); err != nil {
		return nil, fmt.Errorf("read client nonce: %w", err)
	}
	return nonce, nil
}

// WriteServerHandshake generates the server nonce and writes the accept
// response.
func WriteServerHandshake(w io.Writer) ([]byte, error) {
	if w == nil {
		return nil, fmt.Errorf("write response: write on nil pointer")
	}
	nonce, err := newNonce()
	if err != nil {
		return nil, fmt.Errorf("generate server nonce: %w", err)
	}
	if _, err := w.Write(append([]byte(okPrefix), nonce...)); err != nil {
		return nil, fmt.Errorf("write response: %w", err)
	}
	return nonce, nil
}

// HandleAuthHandshake runs one side of the handshake and returns both
// nonces for session key derivation.
func HandleAuthHandshake(r *bufio.Reader, w io.Writer, key []byte, isClient bool) (clientNonce, serverNonce []byte, err error) {
	if r == nil {
		return nil, nil, fmt.Errorf("handshake: nil reader")
	}
	if len(key) == 0 {
		return nil, nil, fmt.Errorf("handshake: missing key")
	}
	if isClient {
		if w == nil {
			return nil, nil, fmt.Errorf("handshake: nil writer")
		}
		return clientHandshake(r, w, key)
	}
	return serverHandshake(r, w, key)
}

func clientHandshake(r *bufio.Reader, w io.Writer, key []byte) (clientNonce, serverNonce []byte, err error) {
	clientNonce, err = newNonce()
	if err != nil {
		return nil, nil, fmt.Errorf("generate client nonce: %w", err)
	}

	msg := append([]byte(HandshakeMagic), clientNonce...)
	msg = append(msg, nonceMAC(key, clientNonce)...)
	if _, err := w.Write(msg); err != nil {
		return nil, nil, fmt.Errorf("write handshake: %w", err)
	}

	prefix := make([]byte, len(okPrefix))
	if _, err := io.ReadFull(r, prefix); err != nil {
		return nil, nil, fmt.Errorf("read handshake response: %w", err)
	}
	if string(prefix) != okPrefix {
		return nil, nil, rejectionError(r, prefix)
	}

	serverNonce = make([]byte, NonceSize)
	if _, err := io.ReadFull(r, serverNonce); err != nil {
		return nil, nil, fmt.Errorf("read server nonce: %w", err)
	}
	return clientNonce, serverNonce, nil
}

// rejectionError turns the server's refusal line into a structured error
// when it parses as one.
func rejectionError(r io.Reader, prefix []byte) error {
	rest, _ := io.ReadAll(r)
	line := strings.TrimSuffix(string(append(prefix, rest...)), "\n")

	var apiErr apitypes.ApiError
	if err := json.Unmarshal([]byte(line), &apiErr); err == nil && (apiErr.Status != 0 || apiErr.Title != "") {
		return &apiErr
	}
	return fmt.Errorf("invalid handshake response from server: %s", line)
}

func serverHandshake(r *bufio.Reader, w io.Writer, key []byte) (clientNonce, serverNonce []byte, err error) {
	if _, err := r.Discard(len(HandshakeMagic)); err != nil {
		return nil, nil, fmt.Errorf("discard handshake magic: %w", err)
	}

	clientNonce, err = ReadClientNonce(r)
	if err != nil {
		return nil, nil, err
	}

	clientAuth := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, clientAuth); err != nil {
		return nil, nil, fmt.Errorf("read client auth: %w", err)
	}
	if !hmac.Equal(clientAuth, nonceMAC(key, clientNonce)) {
		return nil, nil, apierror.ErrUnauthorized("invalid password")
	}

	serverNonce, err = WriteServerHandshake(w)
	if err != nil {
		return nil, nil, err
	}
	return clientNonce, serverNonce, nil
}
