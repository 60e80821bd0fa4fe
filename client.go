/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const msgPlayerList = "PLAYER_LIST"

// lobbyMessage is the only inbound shape the client understands.
type lobbyMessage struct {
	Type    string    `json:"type"`
	Players *[]string `json:"players"`
}

type event interface{ isEvent() }

type dialed struct {
	attempt uint64
	conn    Conn
}

type received struct {
	attempt uint64
	data    []byte
}

type transportFailed struct {
	attempt uint64
	err     error
}

type closed struct {
	attempt uint64
	err     error
}

type retryDue struct {
	gen uint64
}

func (dialed) isEvent()          {}
func (received) isEvent()        {}
func (transportFailed) isEvent() {}
func (closed) isEvent()          {}
func (retryDue) isEvent()        {}

// Client owns one lobby connection at a time. All of its state is touched
// only by the Run loop; dial, read and timer goroutines report back
// through events.
type Client struct {
	cfg    *Config
	page   *Page
	dialer Dialer
	logger zerolog.Logger
	events chan event

	name      string
	state     ConnState
	conn      Conn
	attempt   uint64
	attemptID string
	retry     retryTimer
}

func newClient(cfg *Config, page *Page, dialer Dialer) *Client {
	return &Client{
		cfg:    cfg,
		page:   page,
		dialer: dialer,
		logger: cfg.logger.With().Str("component", "lobby").Logger(),
		events: make(chan event),
		name:   cfg.username,
	}
}

// Run connects and keeps reconnecting until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	defer c.shutdown()

	if c.name != "" {
		c.page.SetUser(ctx, c.name)
	}

	c.connect(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-c.events:
			c.handle(ctx, ev)
		}
	}
}

func (c *Client) shutdown() {
	c.retry.cancel()

	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) setState(s ConnState) {
	if c.state != s {
		c.logger.Debug().Str("from", c.state.String()).Str("to", s.String()).Msg("status changed")
	}

	c.state = s
	c.page.SetStatus(s)
}

func (c *Client) connect(ctx context.Context) {
	c.setState(StateConnecting)

	if c.name == "" {
		c.name = generateName()
		c.page.SetUser(ctx, c.name)
		c.logger.Info().Str("username", c.name).Msg("session name chosen")
	}

	c.attempt++
	c.attemptID = uuid.NewString()

	target := lobbyURL(c.cfg, c.name)

	c.logger.Info().Str("attempt", c.attemptID).Str("url", target).Msg("connecting to lobby")

	go c.dial(ctx, c.attempt, target)
}

// dial opens a connection and pumps its messages into the loop until it
// closes.
func (c *Client) dial(ctx context.Context, attempt uint64, target string) {
	conn, err := c.dialer.Dial(ctx, target)
	if err != nil {
		if c.post(ctx, transportFailed{attempt: attempt, err: err}) {
			c.post(ctx, closed{attempt: attempt, err: err})
		}

		return
	}

	if !c.post(ctx, dialed{attempt: attempt, conn: conn}) {
		_ = conn.Close()

		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !isCleanClose(err) && ctx.Err() == nil {
				if !c.post(ctx, transportFailed{attempt: attempt, err: err}) {
					return
				}
			}

			c.post(ctx, closed{attempt: attempt, err: err})

			return
		}

		if !c.post(ctx, received{attempt: attempt, data: data}) {
			return
		}
	}
}

func (c *Client) post(ctx context.Context, ev event) bool {
	select {
	case c.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Client) handle(ctx context.Context, ev event) {
	switch ev := ev.(type) {
	case dialed:
		if ev.attempt != c.attempt {
			_ = ev.conn.Close()

			return
		}

		c.conn = ev.conn
		c.setState(StateConnected)
		c.logger.Info().Str("attempt", c.attemptID).Msg("connected to lobby")

		if c.retry.cancel() {
			c.logger.Debug().Msg("cancelled pending reconnect")
		}

	case received:
		if ev.attempt != c.attempt {
			return
		}

		c.handleMessage(ctx, ev.data)

	case transportFailed:
		if ev.attempt != c.attempt {
			return
		}

		c.logger.Warn().Err(ev.err).Str("attempt", c.attemptID).Msg("lobby transport error")

	case closed:
		if ev.attempt != c.attempt {
			return
		}

		if c.conn != nil {
			_ = c.conn.Close()
			c.conn = nil
		}

		c.setState(StateDisconnected)
		c.logger.Info().Str("attempt", c.attemptID).Dur("retry_in", c.cfg.reconnectDelay).Msg("disconnected from lobby")

		c.retry.schedule(c.cfg.reconnectDelay, func(gen uint64) {
			c.post(ctx, retryDue{gen: gen})
		})

	case retryDue:
		if !c.retry.due(ev.gen) {
			return
		}

		c.logger.Info().Msg("attempting to reconnect")
		c.connect(ctx)
	}
}

func (c *Client) handleMessage(ctx context.Context, data []byte) {
	c.logger.Debug().Bytes("data", data).Msg("message from lobby")

	var msg lobbyMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Warn().Err(err).Msg("failed to parse lobby message")

		return
	}

	switch msg.Type {
	case msgPlayerList:
		if msg.Players == nil {
			c.logger.Warn().Msg("player list without players")

			return
		}

		start := time.Now()
		c.page.RenderRoster(ctx, *msg.Players)

		c.logger.Info().
			Strs("players", *msg.Players).
			Dur("took", time.Since(start).Round(time.Microsecond)).
			Msg("lobby roster updated")
	}
}
