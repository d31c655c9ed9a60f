package eventlog

import (
	"path/filepath"
	"testing"
	"time"
)

func TestWriteAndReadBack(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "events")
	clock := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	pos := [3]float64{1, 2, 3}
	events := []Event{
		{Tick: 1, Type: TypeConnect, ClientID: 5, EntityID: 9},
		{Tick: 40, Type: TypeHit, EntityID: 9, OtherID: 10, Weapon: "rifle", Damage: 35, Position: &pos},
		{Tick: 41, Type: TypeDeath, EntityID: 10, OtherID: 9},
	}
	for _, e := range events {
		if err := w.Write(e); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFile(filepath.Join(dir, "events-2026-03-01-10.jsonl.zst"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(events) {
		t.Fatalf("read %d events, want %d", len(got), len(events))
	}
	if got[1].Type != TypeHit || got[1].Damage != 35 || got[1].Position == nil || got[1].Position[2] != 3 {
		t.Errorf("hit event = %+v", got[1])
	}
	if !got[0].Time.Equal(clock) {
		t.Errorf("time = %v, want %v", got[0].Time, clock)
	}
}

func TestRotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "events")
	clock := time.Date(2026, 3, 1, 10, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	_ = w.Write(Event{Type: TypeConnect})
	clock = clock.Add(2 * time.Minute)
	_ = w.Write(Event{Type: TypeDisconnect})
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	files, _ := filepath.Glob(filepath.Join(dir, "*.jsonl.zst"))
	if len(files) != 2 {
		t.Errorf("files = %v, want 2", files)
	}
}
