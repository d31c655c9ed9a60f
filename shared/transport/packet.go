package transport

import (
	"encoding/binary"
	"fmt"

	"github.com/automoto/voxelfront/shared/messages"
)

type packetType uint8

const (
	packetConnectRequest packetType = iota + 1
	packetConnectAccept
	packetConnectDeny
	packetPayload
	packetDisconnect
	packetKeepAlive
)

func (t packetType) String() string {
	switch t {
	case packetConnectRequest:
		return "connect-request"
	case packetConnectAccept:
		return "connect-accept"
	case packetConnectDeny:
		return "connect-deny"
	case packetPayload:
		return "payload"
	case packetDisconnect:
		return "disconnect"
	case packetKeepAlive:
		return "keepalive"
	}
	return fmt.Sprintf("packet(%d)", uint8(t))
}

// DenyReason is carried by a connect-deny packet.
type DenyReason uint8

const (
	DenyServerFull DenyReason = iota + 1
	DenyProtocolMismatch
)

func (r DenyReason) Err() error {
	switch r {
	case DenyServerFull:
		return ErrServerFull
	case DenyProtocolMismatch:
		return ErrProtocolMismatch
	}
	return fmt.Errorf("transport: connection denied (%d)", uint8(r))
}

const (
	// MaxPacketSize keeps datagrams below common path MTUs.
	MaxPacketSize = 1200

	headerSize       = 8 + 1 + 8
	payloadHeadSize  = 4 + 2
	entryHeadSize    = 1 + 4 + 2
	maxPayloadBody   = MaxPacketSize - headerSize
	maxEntryDataSize = maxPayloadBody - payloadHeadSize - entryHeadSize
)

type header struct {
	protocolID uint64
	typ        packetType
	clientID   uint64
}

func appendHeader(b []byte, h header) []byte {
	b = binary.BigEndian.AppendUint64(b, h.protocolID)
	b = append(b, byte(h.typ))
	return binary.BigEndian.AppendUint64(b, h.clientID)
}

func readHeader(b []byte) (header, []byte, error) {
	if len(b) < headerSize {
		return header{}, nil, errShortPacket
	}
	h := header{
		protocolID: binary.BigEndian.Uint64(b[0:8]),
		typ:        packetType(b[8]),
		clientID:   binary.BigEndian.Uint64(b[9:17]),
	}
	return h, b[headerSize:], nil
}

// entry is one message inside a payload packet.
type entry struct {
	channel messages.Channel
	seq     uint32
	data    []byte
}

func (e entry) size() int {
	return entryHeadSize + len(e.data)
}

// payload is the body of a payload packet. ack is the sender's next expected
// reliable sequence, acknowledging everything below it.
type payload struct {
	ack     uint32
	entries []entry
}

func (p payload) appendTo(b []byte) []byte {
	b = binary.BigEndian.AppendUint32(b, p.ack)
	b = binary.BigEndian.AppendUint16(b, uint16(len(p.entries)))
	for _, e := range p.entries {
		b = append(b, byte(e.channel))
		b = binary.BigEndian.AppendUint32(b, e.seq)
		b = binary.BigEndian.AppendUint16(b, uint16(len(e.data)))
		b = append(b, e.data...)
	}
	return b
}

func readPayload(b []byte) (payload, error) {
	if len(b) < payloadHeadSize {
		return payload{}, errShortPacket
	}
	p := payload{ack: binary.BigEndian.Uint32(b[0:4])}
	count := int(binary.BigEndian.Uint16(b[4:6]))
	b = b[payloadHeadSize:]

	p.entries = make([]entry, 0, count)
	for i := 0; i < count; i++ {
		if len(b) < entryHeadSize {
			return payload{}, errShortPacket
		}
		e := entry{
			channel: messages.Channel(b[0]),
			seq:     binary.BigEndian.Uint32(b[1:5]),
		}
		n := int(binary.BigEndian.Uint16(b[5:7]))
		b = b[entryHeadSize:]
		if len(b) < n {
			return payload{}, errShortPacket
		}
		e.data = append([]byte(nil), b[:n]...)
		b = b[n:]
		p.entries = append(p.entries, e)
	}
	return p, nil
}
