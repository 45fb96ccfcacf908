package apiclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	apitypes "github.com/Alia5/dsbridge/apitypes"
	"github.com/Alia5/dsbridge/internal/server/api/auth"
)

// EventStream is a long-lived connection delivering state updates.
type EventStream struct {
	conn   net.Conn
	dec    *json.Decoder
	closed bool

	readCancel context.CancelFunc
	readMu     sync.Mutex
}

// OpenEvents connects to the bridge's event stream. The first frame is a
// snapshot of the current state; further frames follow live updates.
func (c *Client) OpenEvents(ctx context.Context) (*EventStream, error) {
	if c.transport.mock != nil {
		return nil, fmt.Errorf("stream connections not supported with mock transport")
	}

	d := &net.Dialer{Timeout: c.transport.cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", c.transport.addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	wire := conn
	if c.transport.cfg.Password != "" {
		key, err := auth.DeriveKey(c.transport.cfg.Password)
		if err != nil {
			conn.Close()
			return nil, err
		}
		r := bufio.NewReader(conn)
		clientNonce, serverNonce, err := auth.HandleAuthHandshake(r, conn, key, true)
		if err != nil {
			conn.Close()
			return nil, err
		}
		sessionKey := auth.DeriveSessionKey(key, serverNonce, clientNonce)
		wire, err = auth.WrapConn(conn, sessionKey)
		if err != nil {
			conn.Close()
			return nil, err
		}
	}

	if _, err := wire.Write([]byte("events\x00")); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write stream path: %w", err)
	}

	return &EventStream{conn: wire, dec: json.NewDecoder(bufio.NewReader(wire))}, nil
}

// Next blocks until one event frame arrives. Do not mix with StartReading.
func (s *EventStream) Next() (*apitypes.EventFrame, error) {
	if s.closed {
		return nil, fmt.Errorf("stream closed")
	}
	var frame apitypes.EventFrame
	if err := s.dec.Decode(&frame); err != nil {
		return nil, err
	}
	return &frame, nil
}

// StartReading begins asynchronously reading event frames in a background
// goroutine. The frame channel closes when the stream ends; the error
// channel carries the terminal error.
func (s *EventStream) StartReading(ctx context.Context, chSize int) (<-chan apitypes.EventFrame, <-chan error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	if s.readCancel != nil {
		panic("StartReading called twice on the same stream")
	}

	frameCh := make(chan apitypes.EventFrame, chSize)
	errCh := make(chan error, 1)

	readCtx, cancel := context.WithCancel(ctx)
	s.readCancel = cancel

	go func() {
		defer close(frameCh)
		defer close(errCh)
		defer cancel()

		dec := s.dec
		for {
			select {
			case <-readCtx.Done():
				errCh <- readCtx.Err()
				return
			default:
			}

			var frame apitypes.EventFrame
			if err := dec.Decode(&frame); err != nil {
				errCh <- err
				return
			}

			select {
			case frameCh <- frame:
			case <-readCtx.Done():
				errCh <- readCtx.Err()
				return
			}
		}
	}()

	return frameCh, errCh
}

// Close closes the stream connection and stops any background reading.
func (s *EventStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.readMu.Lock()
	if s.readCancel != nil {
		s.readCancel()
	}
	s.readMu.Unlock()

	return s.conn.Close()
}
