package transport

import (
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/automoto/voxelfront/shared/messages"
	"github.com/sirupsen/logrus"
)

// EventType distinguishes server connection events.
type EventType int

const (
	EventConnected EventType = iota
	EventDisconnected
)

func (t EventType) String() string {
	if t == EventConnected {
		return "connected"
	}
	return "disconnected"
}

// Event reports a client joining or leaving.
type Event struct {
	Type     EventType
	ClientID uint64
}

type ServerConfig struct {
	Addr       string
	ProtocolID uint64
	MaxClients int
	Timeout    time.Duration
	Logger     *logrus.Entry
}

type peerState int

const (
	peerConnecting peerState = iota
	peerConnected
)

type serverPeer struct {
	id    uint64
	addr  *net.UDPAddr
	state peerState
	ep    *endpoint
}

// Server accepts UDP clients and multiplexes the two channels per client.
// Update and Flush must be called from a single goroutine.
type Server struct {
	cfg  ServerConfig
	conn *net.UDPConn
	log  *logrus.Entry

	packets chan datagram
	done    chan struct{}

	peers        map[uint64]*serverPeer
	byAddr       map[string]uint64
	nextClientID uint64
	events       []Event
	closed       bool
}

// Listen binds the server socket. A bind failure is returned as is.
func Listen(cfg ServerConfig) (*Server, error) {
	addr, err := net.ResolveUDPAddr("udp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", cfg.Addr, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	s := &Server{
		cfg:          cfg,
		conn:         conn,
		log:          cfg.Logger.WithField("component", "transport"),
		packets:      make(chan datagram, 1024),
		done:         make(chan struct{}),
		peers:        make(map[uint64]*serverPeer),
		byAddr:       make(map[string]uint64),
		nextClientID: 1,
	}
	go readLoop(conn, s.packets, s.done)
	return s, nil
}

func (s *Server) Addr() net.Addr {
	return s.conn.LocalAddr()
}

// Update drains received datagrams without blocking, expires silent clients
// and returns the connection events that happened since the last call.
func (s *Server) Update(now time.Time) []Event {
	if s.closed {
		return nil
	}
	for drained := false; !drained; {
		select {
		case d := <-s.packets:
			s.handle(now, d)
		default:
			drained = true
		}
	}

	for id, p := range s.peers {
		if p.ep.timedOut(now, s.cfg.Timeout) {
			s.log.WithField("client_id", id).Info("client timed out")
			s.drop(p, true)
		}
	}

	events := s.events
	s.events = nil
	return events
}

func (s *Server) handle(now time.Time, d datagram) {
	h, body, err := readHeader(d.data)
	if err != nil {
		return
	}

	if h.protocolID != s.cfg.ProtocolID {
		if h.typ == packetConnectRequest {
			s.log.WithFields(logrus.Fields{"addr": d.addr.String(), "protocol_id": h.protocolID}).
				Warn("rejecting client with mismatched protocol id")
			s.deny(d.addr, h, DenyProtocolMismatch)
		}
		return
	}

	if h.typ == packetConnectRequest {
		s.handleConnect(now, d.addr, h)
		return
	}

	id, ok := s.byAddr[d.addr.String()]
	if !ok || id != h.clientID {
		return
	}
	p := s.peers[id]
	p.ep.lastRecv = now
	if p.state == peerConnecting && h.typ != packetDisconnect {
		p.state = peerConnected
		s.events = append(s.events, Event{Type: EventConnected, ClientID: id})
		s.log.WithField("client_id", id).Info("client connected")
	}

	switch h.typ {
	case packetPayload:
		pl, err := readPayload(body)
		if err != nil {
			s.log.WithField("client_id", id).WithError(err).Debug("dropping malformed payload")
			return
		}
		p.ep.receive(pl)
	case packetDisconnect:
		s.log.WithField("client_id", id).Info("client disconnected")
		s.drop(p, false)
	}
}

func (s *Server) handleConnect(now time.Time, addr *net.UDPAddr, h header) {
	if id, ok := s.byAddr[addr.String()]; ok {
		// Accept was lost; repeat it.
		s.send(addr, packetConnectAccept, id, nil)
		return
	}
	if len(s.peers) >= s.cfg.MaxClients {
		s.log.WithField("addr", addr.String()).Warn("rejecting client, server full")
		s.deny(addr, h, DenyServerFull)
		return
	}

	id := h.clientID
	if _, taken := s.peers[id]; taken || id == 0 {
		id = s.allocateID()
	}
	s.peers[id] = &serverPeer{id: id, addr: addr, state: peerConnecting, ep: newEndpoint(now)}
	s.byAddr[addr.String()] = id
	s.send(addr, packetConnectAccept, id, nil)
}

func (s *Server) allocateID() uint64 {
	for {
		id := s.nextClientID
		s.nextClientID++
		if _, taken := s.peers[id]; !taken && id != 0 {
			return id
		}
	}
}

func (s *Server) deny(addr *net.UDPAddr, h header, reason DenyReason) {
	b := appendHeader(make([]byte, 0, headerSize+1), header{
		protocolID: h.protocolID,
		typ:        packetConnectDeny,
		clientID:   h.clientID,
	})
	b = append(b, byte(reason))
	s.write(addr, b)
}

// ReceiveMessage pops the next delivered message for a client on ch.
func (s *Server) ReceiveMessage(clientID uint64, ch messages.Channel) ([]byte, bool) {
	p, ok := s.peers[clientID]
	if !ok {
		return nil, false
	}
	return p.ep.pop(ch)
}

// SendMessage queues data for a connected client. It is written on the next
// Flush. A client whose reliable backlog overflows is disconnected.
func (s *Server) SendMessage(clientID uint64, ch messages.Channel, data []byte) error {
	if s.closed {
		return ErrClosed
	}
	p, ok := s.peers[clientID]
	if !ok || p.state != peerConnected {
		return ErrNotConnected
	}
	if err := p.ep.queue(ch, data); err != nil {
		if err == ErrBacklog {
			s.log.WithField("client_id", clientID).Warn("reliable backlog exceeded, disconnecting")
			s.drop(p, true)
		}
		return err
	}
	return nil
}

// BroadcastMessage queues data for every connected client.
func (s *Server) BroadcastMessage(ch messages.Channel, data []byte) {
	for _, id := range s.ClientIDs() {
		_ = s.SendMessage(id, ch, data)
	}
}

// ClientIDs lists connected clients in ascending order.
func (s *Server) ClientIDs() []uint64 {
	ids := make([]uint64, 0, len(s.peers))
	for id, p := range s.peers {
		if p.state == peerConnected {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Disconnect drops a client and tells it so.
func (s *Server) Disconnect(clientID uint64) {
	if p, ok := s.peers[clientID]; ok {
		s.drop(p, true)
	}
}

func (s *Server) drop(p *serverPeer, notify bool) {
	if notify {
		s.send(p.addr, packetDisconnect, p.id, nil)
	}
	delete(s.peers, p.id)
	delete(s.byAddr, p.addr.String())
	if p.state == peerConnected {
		s.events = append(s.events, Event{Type: EventDisconnected, ClientID: p.id})
	}
}

// Flush writes every queued message, resends unacknowledged reliable
// messages and keeps idle connections alive.
func (s *Server) Flush(now time.Time) {
	if s.closed {
		return
	}
	for id, p := range s.peers {
		sent := false
		for _, pl := range p.ep.outgoing(now) {
			s.send(p.addr, packetPayload, id, pl.appendTo(nil))
			sent = true
		}
		if !sent && p.state == peerConnected && p.ep.keepAliveDue(now) {
			s.send(p.addr, packetKeepAlive, id, nil)
			p.ep.lastSend = now
		}
	}
}

func (s *Server) send(addr *net.UDPAddr, typ packetType, clientID uint64, body []byte) {
	b := appendHeader(make([]byte, 0, headerSize+len(body)), header{
		protocolID: s.cfg.ProtocolID,
		typ:        typ,
		clientID:   clientID,
	})
	s.write(addr, append(b, body...))
}

func (s *Server) write(addr *net.UDPAddr, b []byte) {
	if _, err := s.conn.WriteToUDP(b, addr); err != nil {
		s.log.WithField("addr", addr.String()).WithError(err).Warn("write failed")
	}
}

// Close notifies connected clients and releases the socket.
func (s *Server) Close() error {
	if s.closed {
		return nil
	}
	for _, p := range s.peers {
		s.send(p.addr, packetDisconnect, p.id, nil)
	}
	s.closed = true
	close(s.done)
	return s.conn.Close()
}
