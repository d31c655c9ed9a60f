package components

import "github.com/yohamta/donburi"

// ConnectionData ties a server-side player to its transport client.
type ConnectionData struct {
	ClientID uint64
	// LastInputSeq is the newest input sequence applied, echoed back in
	// state updates for reconciliation.
	LastInputSeq uint32
	HasInput     bool
}

var Connection = donburi.NewComponentType[ConnectionData]()
