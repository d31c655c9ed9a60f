package network

import (
	"testing"

	"github.com/automoto/voxelfront/shared/messages"
	"github.com/go-gl/mathgl/mgl64"
)

func record(h *InputHistory, n int) {
	for i := 0; i < n; i++ {
		h.Record(messages.PlayerInput{MoveDirection: mgl64.Vec2{0, 1}}, 1.0/60)
	}
}

func TestInputHistorySequenceStartsAtZeroAndIncrements(t *testing.T) {
	var h InputHistory
	for want := uint32(0); want < 250; want++ {
		if got := h.Record(messages.PlayerInput{SequenceNumber: 999}, 0.016); got != want {
			t.Fatalf("Record returned %d, want %d", got, want)
		}
	}
	if h.NextSequence() != 250 {
		t.Errorf("NextSequence = %d", h.NextSequence())
	}
}

func TestInputHistoryEvictsOldest(t *testing.T) {
	var h InputHistory
	record(&h, 150)

	if h.Len() != HistoryCapacity {
		t.Fatalf("Len = %d, want %d", h.Len(), HistoryCapacity)
	}
	entries := h.Unacknowledged()
	for i, e := range entries {
		if want := uint32(50 + i); e.Input.SequenceNumber != want {
			t.Fatalf("entry %d has seq %d, want %d", i, e.Input.SequenceNumber, want)
		}
	}
}

func TestInputHistoryAcknowledgeIsPrefixTrim(t *testing.T) {
	cases := []struct {
		name     string
		recorded int
		ack      uint32
		wantLen  int
		wantHead uint32
	}{
		{"none acked", 10, 0, 9, 1},
		{"middle", 10, 4, 5, 5},
		{"all", 10, 9, 0, 0},
		{"beyond", 10, 50, 0, 0},
		{"after eviction", 150, 60, 89, 61},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var h InputHistory
			record(&h, tc.recorded)
			h.AcknowledgeUpTo(tc.ack)

			if h.Len() != tc.wantLen {
				t.Fatalf("Len = %d, want %d", h.Len(), tc.wantLen)
			}
			entries := h.Unacknowledged()
			for _, e := range entries {
				if e.Input.SequenceNumber <= tc.ack {
					t.Errorf("acknowledged seq %d retained", e.Input.SequenceNumber)
				}
			}
			if tc.wantLen > 0 && entries[0].Input.SequenceNumber != tc.wantHead {
				t.Errorf("head seq = %d, want %d", entries[0].Input.SequenceNumber, tc.wantHead)
			}
		})
	}
}

func TestInputHistoryAcknowledgeThenRecord(t *testing.T) {
	var h InputHistory
	record(&h, 5)
	h.AcknowledgeUpTo(4)
	if _, ok := h.MostRecent(); ok {
		t.Fatal("MostRecent on empty history")
	}

	seq := h.Record(messages.PlayerInput{Jump: true}, 0.02)
	if seq != 5 {
		t.Fatalf("seq = %d, want 5", seq)
	}
	in, ok := h.MostRecent()
	if !ok || !in.Jump || in.SequenceNumber != 5 {
		t.Errorf("MostRecent = %+v, %v", in, ok)
	}
	if e := h.Unacknowledged(); len(e) != 1 || e[0].Dt != 0.02 {
		t.Errorf("entries = %+v", e)
	}
}
