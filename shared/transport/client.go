package transport

import (
	"fmt"
	"net"
	"time"

	"github.com/automoto/voxelfront/shared/messages"
	"github.com/sirupsen/logrus"
)

// ConnectRetryInterval spaces out connect requests while handshaking.
const ConnectRetryInterval = 250 * time.Millisecond

// State is the client side of the handshake.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	}
	return "disconnected"
}

type ClientConfig struct {
	ServerAddr string
	ProtocolID uint64
	// ClientID is the id proposed to the server. The server may assign a
	// different one if it is zero or taken.
	ClientID uint64
	Timeout  time.Duration
	Logger   *logrus.Entry
}

// Client is a single connection to a Server. Update and Flush must be
// called from a single goroutine.
type Client struct {
	cfg  ClientConfig
	conn *net.UDPConn
	log  *logrus.Entry

	packets chan datagram
	done    chan struct{}

	state       State
	id          uint64
	err         error
	ep          *endpoint
	started     time.Time
	lastRequest time.Time
	requested   bool
}

// Dial opens a socket towards the server and starts the handshake. The
// connection completes over subsequent Update and Flush calls.
func Dial(cfg ClientConfig, now time.Time) (*Client, error) {
	raddr, err := net.ResolveUDPAddr("udp", cfg.ServerAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", cfg.ServerAddr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.ServerAddr, err)
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	c := &Client{
		cfg:     cfg,
		conn:    conn,
		log:     cfg.Logger.WithField("component", "transport"),
		packets: make(chan datagram, 1024),
		done:    make(chan struct{}),
		state:   StateConnecting,
		id:      cfg.ClientID,
		ep:      newEndpoint(now),
		started: now,
	}
	go readLoop(conn, c.packets, c.done)
	return c, nil
}

func (c *Client) State() State {
	return c.state
}

func (c *Client) IsConnected() bool {
	return c.state == StateConnected
}

// ClientID is the id the server accepted, or the proposed one before that.
func (c *Client) ClientID() uint64 {
	return c.id
}

// Err reports why the client is disconnected, if it was not by request.
func (c *Client) Err() error {
	return c.err
}

// Update drains received datagrams without blocking and checks liveness.
func (c *Client) Update(now time.Time) {
	if c.state == StateDisconnected {
		return
	}
	for drained := false; !drained; {
		select {
		case d := <-c.packets:
			c.handle(now, d)
		default:
			drained = true
		}
	}

	if c.state == StateConnecting && now.Sub(c.started) > c.cfg.Timeout {
		c.fail(ErrTimeout)
		return
	}
	if c.state == StateConnected && c.ep.timedOut(now, c.cfg.Timeout) {
		c.log.Warn("server timed out")
		c.fail(ErrTimeout)
	}
}

func (c *Client) handle(now time.Time, d datagram) {
	h, body, err := readHeader(d.data)
	if err != nil || h.protocolID != c.cfg.ProtocolID {
		return
	}

	switch h.typ {
	case packetConnectAccept:
		if c.state != StateConnecting {
			return
		}
		c.id = h.clientID
		c.state = StateConnected
		c.ep.lastRecv = now
		// Force an immediate packet so the server sees us as connected.
		c.ep.lastSend = time.Time{}
		c.log.WithField("client_id", c.id).Info("connected")
	case packetConnectDeny:
		if c.state != StateConnecting || len(body) < 1 {
			return
		}
		c.fail(DenyReason(body[0]).Err())
	case packetPayload:
		if c.state != StateConnected || h.clientID != c.id {
			return
		}
		c.ep.lastRecv = now
		pl, err := readPayload(body)
		if err != nil {
			c.log.WithError(err).Debug("dropping malformed payload")
			return
		}
		c.ep.receive(pl)
	case packetKeepAlive:
		if h.clientID == c.id {
			c.ep.lastRecv = now
		}
	case packetDisconnect:
		if c.state == StateConnected && h.clientID == c.id {
			c.log.Info("disconnected by server")
			c.fail(ErrNotConnected)
		}
	}
}

// SendMessage queues data on ch for the next Flush.
func (c *Client) SendMessage(ch messages.Channel, data []byte) error {
	if c.state != StateConnected {
		return ErrNotConnected
	}
	if err := c.ep.queue(ch, data); err != nil {
		if err == ErrBacklog {
			c.fail(err)
		}
		return err
	}
	return nil
}

// ReceiveMessage pops the next delivered message on ch.
func (c *Client) ReceiveMessage(ch messages.Channel) ([]byte, bool) {
	return c.ep.pop(ch)
}

// Flush performs handshake retries, writes queued messages and keeps an
// idle connection alive.
func (c *Client) Flush(now time.Time) {
	switch c.state {
	case StateConnecting:
		if !c.requested || now.Sub(c.lastRequest) >= ConnectRetryInterval {
			c.send(packetConnectRequest, nil)
			c.requested = true
			c.lastRequest = now
		}
	case StateConnected:
		sent := false
		for _, pl := range c.ep.outgoing(now) {
			c.send(packetPayload, pl.appendTo(nil))
			sent = true
		}
		if !sent && c.ep.keepAliveDue(now) {
			c.send(packetKeepAlive, nil)
			c.ep.lastSend = now
		}
	}
}

// Disconnect tells the server we are leaving and closes the socket.
func (c *Client) Disconnect() {
	if c.state == StateConnected {
		c.send(packetDisconnect, nil)
	}
	c.state = StateDisconnected
	c.close()
}

func (c *Client) fail(err error) {
	c.err = err
	c.state = StateDisconnected
	c.close()
}

func (c *Client) close() {
	select {
	case <-c.done:
		return
	default:
	}
	close(c.done)
	_ = c.conn.Close()
}

func (c *Client) send(typ packetType, body []byte) {
	b := appendHeader(make([]byte, 0, headerSize+len(body)), header{
		protocolID: c.cfg.ProtocolID,
		typ:        typ,
		clientID:   c.id,
	})
	if _, err := c.conn.Write(append(b, body...)); err != nil {
		c.log.WithError(err).Warn("write failed")
	}
}
