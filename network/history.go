package network

import "github.com/automoto/voxelfront/shared/messages"

// HistoryCapacity bounds the number of unacknowledged inputs kept for replay.
const HistoryCapacity = 100

// HistoryEntry is a recorded input and the frame time it was predicted with.
type HistoryEntry struct {
	Input messages.PlayerInput
	Dt    float64
}

// InputHistory is a ring buffer of locally issued inputs in ascending
// sequence order. The oldest entry is evicted once capacity is reached.
type InputHistory struct {
	entries [HistoryCapacity]HistoryEntry
	head    int
	size    int
	nextSeq uint32
}

// Record stamps input with the next sequence number, appends it and returns
// the number assigned.
func (h *InputHistory) Record(input messages.PlayerInput, dt float64) uint32 {
	seq := h.nextSeq
	h.nextSeq++
	input.SequenceNumber = seq

	if h.size == HistoryCapacity {
		h.head = (h.head + 1) % HistoryCapacity
		h.size--
	}
	h.entries[(h.head+h.size)%HistoryCapacity] = HistoryEntry{Input: input, Dt: dt}
	h.size++
	return seq
}

// AcknowledgeUpTo drops every entry with a sequence number <= seq.
func (h *InputHistory) AcknowledgeUpTo(seq uint32) {
	for h.size > 0 && h.entries[h.head].Input.SequenceNumber <= seq {
		h.entries[h.head] = HistoryEntry{}
		h.head = (h.head + 1) % HistoryCapacity
		h.size--
	}
}

// MostRecent returns the newest unacknowledged input.
func (h *InputHistory) MostRecent() (messages.PlayerInput, bool) {
	if h.size == 0 {
		return messages.PlayerInput{}, false
	}
	return h.entries[(h.head+h.size-1)%HistoryCapacity].Input, true
}

// Unacknowledged returns the retained entries, oldest first.
func (h *InputHistory) Unacknowledged() []HistoryEntry {
	out := make([]HistoryEntry, h.size)
	for i := range out {
		out[i] = h.entries[(h.head+i)%HistoryCapacity]
	}
	return out
}

func (h *InputHistory) Len() int {
	return h.size
}

// NextSequence is the number the next Record call will assign.
func (h *InputHistory) NextSequence() uint32 {
	return h.nextSeq
}
