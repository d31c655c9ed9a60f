package protocol

import (
	"errors"
	"testing"

	"github.com/automoto/voxelfront/shared/messages"
	"github.com/go-gl/mathgl/mgl64"
)

func TestEncodeDecodePreservesVariant(t *testing.T) {
	killer := messages.EntityID(9)
	tests := []messages.Message{
		messages.PlayerInput{MoveDirection: mgl64.Vec2{0, 1}, Jump: true, Yaw: 1.25, Pitch: -0.5, SequenceNumber: 42},
		messages.PlayerStateUpdate{
			EntityID:       7,
			Position:       mgl64.Vec3{1.5, 0.9, -3},
			Velocity:       mgl64.Vec3{0, -2.5, 20},
			Rotation:       mgl64.QuatRotate(0.3, mgl64.Vec3{0, 1, 0}),
			SequenceNumber: 11,
			InputApplied:   true,
		},
		messages.PlayerDied{EntityID: 3, KillerID: &killer},
		messages.PlayerDied{EntityID: 3},
		messages.PlayerShoot{Origin: mgl64.Vec3{0, 1, 0}, Direction: mgl64.Vec3{0, 0, -1}, WeaponType: messages.Shotgun},
	}

	for _, msg := range tests {
		data, err := Encode(msg)
		if err != nil {
			t.Fatalf("encode %s: %v", msg.Kind(), err)
		}
		if messages.Kind(data[0]) != msg.Kind() {
			t.Fatalf("tag = %d, want %d", data[0], msg.Kind())
		}
		got, err := Decode(data)
		if err != nil {
			t.Fatalf("decode %s: %v", msg.Kind(), err)
		}
		if got.Kind() != msg.Kind() {
			t.Errorf("decoded kind %s, want %s", got.Kind(), msg.Kind())
		}
	}
}

func TestDecodeKeepsFloatBits(t *testing.T) {
	in := messages.PlayerStateUpdate{
		EntityID: 1,
		Position: mgl64.Vec3{0.1 + 0.2, 1.0 / 3.0, -7.000000000000001},
	}
	data, err := Encode(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.(messages.PlayerStateUpdate).Position; got != in.Position {
		t.Errorf("position = %v, want %v", got, in.Position)
	}
}

func TestDecodeOptionalKiller(t *testing.T) {
	data, err := Encode(messages.PlayerDied{EntityID: 5})
	if err != nil {
		t.Fatal(err)
	}
	msg, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if died := msg.(messages.PlayerDied); died.KillerID != nil {
		t.Errorf("killer = %v, want nil", *died.KillerID)
	}
}

func TestDecodeRejectsBadRecords(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrMalformed},
		{"tag only", []byte{byte(messages.KindPlayerInput)}, ErrMalformed},
		{"unknown tag", []byte{200, 0x80}, ErrUnknownMessage},
		{"truncated body", []byte{byte(messages.KindPlayerStateUpdate), 0x85, 0xa2}, ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestChannelsPerVariant(t *testing.T) {
	if (messages.PlayerShoot{}).Channel() != messages.ChannelUnreliable {
		t.Error("PlayerShoot must travel on the unreliable channel")
	}
	reliable := []messages.Message{
		messages.PlayerInput{}, messages.PlayerStateUpdate{}, messages.RigidBodyUpdate{},
		messages.PlayerConnected{}, messages.PlayerDisconnected{}, messages.HealthUpdate{},
		messages.ProjectileHit{}, messages.PlayerDied{}, messages.PlayerRespawn{},
	}
	for _, msg := range reliable {
		if msg.Channel() != messages.ChannelReliable {
			t.Errorf("%s on channel %d, want reliable", msg.Kind(), msg.Channel())
		}
	}
}
