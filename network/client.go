package network

import (
	"fmt"
	"time"

	"github.com/automoto/voxelfront/shared/messages"
	"github.com/automoto/voxelfront/shared/protocol"
	"github.com/automoto/voxelfront/shared/transport"
	"github.com/sirupsen/logrus"
)

type ClientState int

const (
	StateDisconnected ClientState = iota
	StateConnecting
	StateConnected
	StateError
)

func (s ClientState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	}
	return "disconnected"
}

// Client wraps the UDP transport with message encoding. It is owned by the
// frame loop and is not safe for concurrent use.
type Client struct {
	tr  *transport.Client
	log *logrus.Entry

	lastState transport.State
}

// Connect starts the handshake with the server. The connection completes
// over subsequent Update calls.
func Connect(cfg transport.ClientConfig, now time.Time) (*Client, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	tr, err := transport.Dial(cfg, now)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.ServerAddr, err)
	}
	return &Client{
		tr:        tr,
		log:       cfg.Logger.WithField("component", "client"),
		lastState: tr.State(),
	}, nil
}

// Update pumps the transport: handshake, keepalive, resend and receive.
func (c *Client) Update(now time.Time) {
	c.tr.Update(now)

	if st := c.tr.State(); st != c.lastState {
		fields := logrus.Fields{"state": st, "client_id": c.tr.ClientID()}
		if err := c.tr.Err(); err != nil {
			c.log.WithFields(fields).WithError(err).Warn("connection state changed")
		} else {
			c.log.WithFields(fields).Info("connection state changed")
		}
		c.lastState = st
	}
}

func (c *Client) State() ClientState {
	switch c.tr.State() {
	case transport.StateConnecting:
		return StateConnecting
	case transport.StateConnected:
		return StateConnected
	}
	if c.tr.Err() != nil {
		return StateError
	}
	return StateDisconnected
}

// ClientID is the id the server assigned, or the proposed id while connecting.
func (c *Client) ClientID() uint64 {
	return c.tr.ClientID()
}

func (c *Client) LastError() error {
	return c.tr.Err()
}

// SendMessage encodes msg and queues it on the message's channel.
func (c *Client) SendMessage(msg messages.Message) error {
	b, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	return c.tr.SendMessage(msg.Channel(), b)
}

// Drain returns every message received since the last call, reliable
// channel first. Records that fail to decode are dropped.
func (c *Client) Drain() []messages.Message {
	var out []messages.Message
	for _, ch := range []messages.Channel{messages.ChannelReliable, messages.ChannelUnreliable} {
		for {
			b, ok := c.tr.ReceiveMessage(ch)
			if !ok {
				break
			}
			msg, err := protocol.Decode(b)
			if err != nil {
				c.log.WithError(err).Debug("dropping undecodable message")
				continue
			}
			out = append(out, msg)
		}
	}
	return out
}

// Flush sends everything queued since the last flush.
func (c *Client) Flush(now time.Time) {
	c.tr.Flush(now)
}

func (c *Client) Disconnect() {
	c.tr.Disconnect()
}
