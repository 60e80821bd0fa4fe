/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
)

const (
	lobbyPath      = "/ws/lobby"
	maxMessageSize = 1 << 20
)

// Conn is the receive side of a lobby connection.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, rawURL string) (Conn, error)
}

type wsDialer struct {
	dialer *websocket.Dialer
}

func newDialer() Dialer {
	return &wsDialer{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: timeout,
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
		},
	}
}

func (d *wsDialer) Dial(ctx context.Context, rawURL string) (Conn, error) {
	conn, resp, err := d.dialer.DialContext(ctx, rawURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (%s)", rawURL, err, resp.Status)
		}
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}

	conn.SetReadLimit(maxMessageSize)

	return conn, nil
}

// lobbyURL is ws(s)://<server>/ws/lobby?username=<name>.
func lobbyURL(cfg *Config, name string) string {
	_, scheme := cfg.lobbyScheme()

	u := url.URL{
		Scheme:   scheme,
		Host:     cfg.server,
		Path:     lobbyPath,
		RawQuery: "username=" + escapeComponent(name),
	}

	return u.String()
}

// lobbyPageURL is the lobby server's own page, the one a browser would open.
func lobbyPageURL(cfg *Config) string {
	scheme, _ := cfg.lobbyScheme()

	u := url.URL{
		Scheme: scheme,
		Host:   cfg.server,
		Path:   "/",
	}

	return u.String()
}

// isCleanClose reports whether err is a normal or going-away close frame.
func isCleanClose(err error) bool {
	var ce *websocket.CloseError
	if !errors.As(err, &ce) {
		return false
	}

	return ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway
}
