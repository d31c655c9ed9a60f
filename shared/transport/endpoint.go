package transport

import (
	"time"

	"github.com/automoto/voxelfront/shared/messages"
)

const (
	// ResendInterval is how long a reliable message waits for an ack before
	// it is sent again.
	ResendInterval = 100 * time.Millisecond
	// KeepAliveInterval is the longest a connected peer stays silent.
	KeepAliveInterval = 250 * time.Millisecond
	// MaxPending bounds both the unacknowledged send queue and the
	// out-of-order receive window.
	MaxPending = 4096
)

type pending struct {
	seq      uint32
	data     []byte
	lastSent time.Time
	sent     bool
}

// endpoint holds the per-peer channel state. It is only touched from the
// goroutine that calls Update and Flush.
type endpoint struct {
	// reliable send side
	nextSeq uint32
	unacked []pending

	// reliable receive side
	expected uint32
	window   map[uint32][]byte
	ackDue   bool

	unreliableOut [][]byte
	inbox         [2][][]byte

	lastRecv time.Time
	lastSend time.Time
}

func newEndpoint(now time.Time) *endpoint {
	return &endpoint{
		window:   make(map[uint32][]byte),
		lastRecv: now,
	}
}

func (ep *endpoint) queue(ch messages.Channel, data []byte) error {
	if len(data) > maxEntryDataSize {
		return ErrMessageTooLarge
	}
	buf := append([]byte(nil), data...)
	switch ch {
	case messages.ChannelReliable:
		if len(ep.unacked) >= MaxPending {
			return ErrBacklog
		}
		ep.unacked = append(ep.unacked, pending{seq: ep.nextSeq, data: buf})
		ep.nextSeq++
	case messages.ChannelUnreliable:
		ep.unreliableOut = append(ep.unreliableOut, buf)
	default:
		return ErrUnknownChannel
	}
	return nil
}

// receive applies an inbound payload: drops acknowledged messages from the
// send queue and moves deliverable messages into the inbox in order.
func (ep *endpoint) receive(p payload) {
	ep.acknowledge(p.ack)

	for _, e := range p.entries {
		switch e.channel {
		case messages.ChannelReliable:
			ep.ackDue = true
			ep.accept(e.seq, e.data)
		case messages.ChannelUnreliable:
			ep.inbox[messages.ChannelUnreliable] = append(ep.inbox[messages.ChannelUnreliable], e.data)
		}
	}
}

func (ep *endpoint) acknowledge(ack uint32) {
	n := 0
	for n < len(ep.unacked) && ep.unacked[n].seq < ack {
		n++
	}
	if n > 0 {
		ep.unacked = append(ep.unacked[:0], ep.unacked[n:]...)
	}
}

func (ep *endpoint) accept(seq uint32, data []byte) {
	if seq < ep.expected || seq-ep.expected >= MaxPending {
		return
	}
	if seq != ep.expected {
		ep.window[seq] = data
		return
	}

	ep.inbox[messages.ChannelReliable] = append(ep.inbox[messages.ChannelReliable], data)
	ep.expected++
	for {
		next, ok := ep.window[ep.expected]
		if !ok {
			return
		}
		delete(ep.window, ep.expected)
		ep.inbox[messages.ChannelReliable] = append(ep.inbox[messages.ChannelReliable], next)
		ep.expected++
	}
}

func (ep *endpoint) pop(ch messages.Channel) ([]byte, bool) {
	if int(ch) >= len(ep.inbox) || len(ep.inbox[ch]) == 0 {
		return nil, false
	}
	q := ep.inbox[ch]
	data := q[0]
	q[0] = nil
	ep.inbox[ch] = q[1:]
	return data, true
}

// outgoing packs everything due at now into payloads that each fit one
// datagram. A payload with no entries is produced when only an ack is owed.
func (ep *endpoint) outgoing(now time.Time) []payload {
	var (
		out  []payload
		cur  = payload{ack: ep.expected}
		size = payloadHeadSize
	)
	add := func(e entry) {
		if size+e.size() > maxPayloadBody {
			out = append(out, cur)
			cur = payload{ack: ep.expected}
			size = payloadHeadSize
		}
		cur.entries = append(cur.entries, e)
		size += e.size()
	}

	for i := range ep.unacked {
		p := &ep.unacked[i]
		if p.sent && now.Sub(p.lastSent) < ResendInterval {
			continue
		}
		p.sent = true
		p.lastSent = now
		add(entry{channel: messages.ChannelReliable, seq: p.seq, data: p.data})
	}
	for _, data := range ep.unreliableOut {
		add(entry{channel: messages.ChannelUnreliable, data: data})
	}
	ep.unreliableOut = ep.unreliableOut[:0]

	if len(cur.entries) > 0 || (len(out) == 0 && ep.ackDue) {
		out = append(out, cur)
	}
	if len(out) > 0 {
		ep.ackDue = false
		ep.lastSend = now
	}
	return out
}

func (ep *endpoint) keepAliveDue(now time.Time) bool {
	return now.Sub(ep.lastSend) >= KeepAliveInterval
}

func (ep *endpoint) timedOut(now time.Time, timeout time.Duration) bool {
	return now.Sub(ep.lastRecv) > timeout
}
