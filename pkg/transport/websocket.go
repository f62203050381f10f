// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transport

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	pkgerrors "github.com/pkg/errors"
)

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = errors.New("websocket connection closed")

// WebSocketBridge carries reports as binary WebSocket messages, one report
// per message. Reads block until a message arrives; close the bridge to
// unblock them.
type WebSocketBridge struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

// WebSocketOptions configures DialWebSocket
type WebSocketOptions struct {
	Username      string
	Password      string
	SkipSSLVerify bool
	Timeout       time.Duration
}

// DialWebSocket connects to a bridge with optional HTTP Basic auth
func DialWebSocket(ctx context.Context, wsURL string, opts WebSocketOptions) (*WebSocketBridge, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "invalid URL")
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, pkgerrors.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: opts.SkipSSLVerify,
		}
	}

	headers := http.Header{}
	if opts.Username != "" && opts.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(opts.Username + ":" + opts.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, pkgerrors.Wrapf(err, "WebSocket connection failed (HTTP %d)", resp.StatusCode)
		}
		return nil, pkgerrors.Wrap(err, "WebSocket connection failed")
	}

	return NewWebSocketBridge(conn), nil
}

// NewWebSocketBridge wraps an established connection
func NewWebSocketBridge(conn *websocket.Conn) *WebSocketBridge {
	return &WebSocketBridge{conn: conn}
}

// Read returns the next binary message. Text messages are skipped.
func (w *WebSocketBridge) Read(p []byte) (int, error) {
	if w.isClosed() {
		return 0, ErrConnectionClosed
	}

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			if w.isClosed() {
				return 0, ErrConnectionClosed
			}
			return 0, pkgerrors.Wrap(err, "websocket read")
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		return copy(p, data), nil
	}
}

// Write sends one report as a binary message
func (w *WebSocketBridge) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, pkgerrors.Wrap(err, "websocket write")
	}
	return len(p), nil
}

// Close sends a close frame and closes the connection
func (w *WebSocketBridge) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return w.conn.Close()
}

func (w *WebSocketBridge) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}
