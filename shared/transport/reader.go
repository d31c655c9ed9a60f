package transport

import (
	"errors"
	"net"
)

type datagram struct {
	addr *net.UDPAddr
	data []byte
}

// readLoop pumps datagrams from conn into out until the socket is closed.
// It is the only goroutine that reads the socket; everything else consumes
// out from the simulation thread.
func readLoop(conn *net.UDPConn, out chan<- datagram, done <-chan struct{}) {
	buf := make([]byte, MaxPacketSize*2)
	for {
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			// ICMP port-unreachable surfaces here on some platforms; the
			// liveness timeout handles a peer that is really gone.
			continue
		}
		d := datagram{addr: addr, data: append([]byte(nil), buf[:n]...)}
		select {
		case out <- d:
		case <-done:
			return
		}
	}
}
