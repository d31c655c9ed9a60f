package transport

import "errors"

var (
	ErrServerFull       = errors.New("transport: server full")
	ErrProtocolMismatch = errors.New("transport: protocol id mismatch")
	ErrNotConnected     = errors.New("transport: not connected")
	ErrClosed           = errors.New("transport: closed")
	ErrTimeout          = errors.New("transport: timed out")
	ErrMessageTooLarge  = errors.New("transport: message too large")
	ErrBacklog          = errors.New("transport: reliable backlog exceeded")
	ErrUnknownChannel   = errors.New("transport: unknown channel")
	errShortPacket      = errors.New("transport: short packet")
)
