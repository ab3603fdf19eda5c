// Package stt connects to an external speech-to-text server over WebSocket
// and exposes it as a blocking next-utterance call.
package stt

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/coder/websocket"

	"github.com/hbray/voxterm/internal/logger"
)

const (
	dialTimeout       = 10 * time.Second
	maxReconnectDelay = 10 * time.Second
)

// ErrClosed is returned by NextUtterance once the client has shut down.
var ErrClosed = errors.New("stt client closed")

// Client maintains a WebSocket connection to the transcription server,
// reconnecting with capped exponential backoff. Received utterances are
// buffered so a slow consumer never stalls the socket.
type Client struct {
	URL string

	utterances chan string
	done       chan struct{}
}

// NewClient creates a client for the given ws:// or wss:// URL.
func NewClient(url string) *Client {
	return &Client{
		URL:        url,
		utterances: make(chan string, 16),
		done:       make(chan struct{}),
	}
}

// Run connects and pumps utterances until ctx is cancelled. Automatically
// reconnects on disconnect with exponential backoff.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.done)
	delay := time.Second
	for {
		connected, err := c.connectAndServe(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			// Was connected successfully — reset backoff
			delay = time.Second
		}
		logger.Warn("stt: disconnected, reconnecting", "error", err, "delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// connectAndServe dials once and reads messages until the connection drops.
// The first return value reports whether the dial succeeded.
func (c *Client) connectAndServe(ctx context.Context) (bool, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	conn, _, err := websocket.Dial(dialCtx, c.URL, nil)
	cancel()
	if err != nil {
		return false, err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	logger.Info("stt: connected", "url", c.URL)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return true, err
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			logger.Warn("stt: bad message", "error", err)
			continue
		}
		switch env.Type {
		case TypeUtterance:
			var u Utterance
			if err := json.Unmarshal(data, &u); err != nil {
				logger.Warn("stt: bad utterance", "error", err)
				continue
			}
			select {
			case c.utterances <- u.Text:
			default:
				logger.Warn("stt: utterance buffer full, dropping", "text", u.Text)
			}
		case TypePartial, TypePing:
			// ignored
		default:
			logger.Debug("stt: unknown message type", "type", env.Type)
		}
	}
}

// NextUtterance blocks until the server delivers a transcription, the client
// shuts down, or ctx is cancelled. The returned text may be empty.
func (c *Client) NextUtterance(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-c.done:
		return "", ErrClosed
	case text := <-c.utterances:
		return text, nil
	}
}

// Probe dials the server once to check reachability (used by doctor).
func Probe(ctx context.Context, url string) error {
	dialCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, url, nil)
	if err != nil {
		return err
	}
	conn.Close(websocket.StatusNormalClosure, "")
	return nil
}
