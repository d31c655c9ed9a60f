// Package protocol encodes messages as self-describing binary records: one
// kind byte followed by a msgpack body.
package protocol

import (
	"errors"
	"fmt"

	"github.com/automoto/voxelfront/shared/messages"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrUnknownMessage is returned for a record whose kind byte is not a known variant.
	ErrUnknownMessage = errors.New("protocol: unknown message kind")
	// ErrMalformed is returned for a record whose body does not decode.
	ErrMalformed = errors.New("protocol: malformed message")
)

// Encode serializes msg into a tagged record.
func Encode(msg messages.Message) ([]byte, error) {
	body, err := msgpack.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Kind(), err)
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, byte(msg.Kind()))
	return append(out, body...), nil
}

// Decode parses a tagged record. Callers drop the record on any error.
func Decode(data []byte) (messages.Message, error) {
	if len(data) < 2 {
		return nil, ErrMalformed
	}
	kind := messages.Kind(data[0])
	body := data[1:]

	switch kind {
	case messages.KindPlayerInput:
		return decodeAs[messages.PlayerInput](kind, body)
	case messages.KindPlayerStateUpdate:
		return decodeAs[messages.PlayerStateUpdate](kind, body)
	case messages.KindRigidBodyUpdate:
		return decodeAs[messages.RigidBodyUpdate](kind, body)
	case messages.KindPlayerConnected:
		return decodeAs[messages.PlayerConnected](kind, body)
	case messages.KindPlayerDisconnected:
		return decodeAs[messages.PlayerDisconnected](kind, body)
	case messages.KindPlayerShoot:
		return decodeAs[messages.PlayerShoot](kind, body)
	case messages.KindProjectileHit:
		return decodeAs[messages.ProjectileHit](kind, body)
	case messages.KindHealthUpdate:
		return decodeAs[messages.HealthUpdate](kind, body)
	case messages.KindPlayerDied:
		return decodeAs[messages.PlayerDied](kind, body)
	case messages.KindPlayerRespawn:
		return decodeAs[messages.PlayerRespawn](kind, body)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownMessage, data[0])
}

func decodeAs[T messages.Message](kind messages.Kind, body []byte) (messages.Message, error) {
	var msg T
	if err := msgpack.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, kind, err)
	}
	return msg, nil
}
