package auth

import (
	"bytes"
	"crypto/cipher"
	"encoding/binary"
	"io"
	"net"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

// maxFrameSize caps a single encrypted frame on the wire.
const maxFrameSize = 2 * 1024 * 1024

// Conn encrypts a net.Conn with chacha20poly1305. Frame layout on the
// wire: uint32 length | 12-byte nonce | ciphertext. The nonce carries a
// big-endian send counter in its low 8 bytes; each direction keeps its
// own counter, so nonces never repeat within a session.
type Conn struct {
	net.Conn

	aead cipher.AEAD

	writeMu sync.Mutex
	counter uint64

	plain bytes.Buffer
}

// WrapConn upgrades conn to an encrypted channel keyed by sessionKey.
func WrapConn(conn net.Conn, sessionKey []byte) (net.Conn, error) {
	aead, err := chacha20poly1305.New(sessionKey)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn, aead: aead}, nil
}

// Write seals p into one frame. The whole frame goes out in a single
// underlying write so frames never interleave.
func (c *Conn) Write(p []byte) (int, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	nonce := make([]byte, chacha20poly1305.NonceSize)
	binary.BigEndian.PutUint64(nonce[4:], c.counter)
	c.counter++

	frame := make([]byte, 4+len(nonce), 4+len(nonce)+len(p)+c.aead.Overhead())
	copy(frame[4:], nonce)
	frame = c.aead.Seal(frame, nonce, p, nil)
	binary.BigEndian.PutUint32(frame[:4], uint32(len(frame)-4))

	if _, err := c.Conn.Write(frame); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Read drains the current decrypted frame, pulling the next one off the
// wire when the buffer runs dry.
func (c *Conn) Read(p []byte) (int, error) {
	if c.plain.Len() == 0 {
		if err := c.readFrame(); err != nil {
			return 0, err
		}
	}
	return c.plain.Read(p)
}

func (c *Conn) readFrame() error {
	var hdr [4]byte
	if _, err := io.ReadFull(c.Conn, hdr[:]); err != nil {
		return err
	}
	length := binary.BigEndian.Uint32(hdr[:])
	if length > maxFrameSize || length < chacha20poly1305.NonceSize {
		return io.ErrUnexpectedEOF
	}

	frame := make([]byte, length)
	if _, err := io.ReadFull(c.Conn, frame); err != nil {
		return err
	}

	nonce := frame[:chacha20poly1305.NonceSize]
	pt, err := c.aead.Open(nil, nonce, frame[chacha20poly1305.NonceSize:], nil)
	if err != nil {
		return err
	}
	c.plain.Write(pt)
	return nil
}
