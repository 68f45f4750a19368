package netio

import (
	"net"
)

// UDPPacket is one datagram received on the discovery socket.
type UDPPacket struct {
	Data []byte
	From *net.UDPAddr
}

// UDPSocket wraps the shared LAN discovery UDP socket: one reader
// goroutine receives datagrams into an inbox the tick loop drains
// non-blockingly, same pattern as Conn for TCP.
type UDPSocket struct {
	raw   *net.UDPConn
	inbox chan UDPPacket
}

// NewUDPSocket wraps conn and starts its reader goroutine.
func NewUDPSocket(conn *net.UDPConn) *UDPSocket {
	s := &UDPSocket{raw: conn, inbox: make(chan UDPPacket, inboxSize)}
	go s.readLoop()
	return s
}

func (s *UDPSocket) readLoop() {
	defer close(s.inbox)
	buf := make([]byte, 8192)
	for {
		n, from, err := s.raw.ReadFromUDP(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			s.inbox <- UDPPacket{Data: data, From: from}
		}
		if err != nil {
			return
		}
	}
}

// Drain returns every datagram received since the last call, without
// blocking.
func (s *UDPSocket) Drain() []UDPPacket {
	var pkts []UDPPacket
	for {
		select {
		case p, ok := <-s.inbox:
			if !ok {
				return pkts
			}
			pkts = append(pkts, p)
		default:
			return pkts
		}
	}
}

// WriteTo sends a datagram to addr (unicast discovery replication).
func (s *UDPSocket) WriteTo(data []byte, addr net.Addr) (int, error) {
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		resolved, err := net.ResolveUDPAddr("udp4", addr.String())
		if err != nil {
			return 0, err
		}
		udpAddr = resolved
	}
	return s.raw.WriteToUDP(data, udpAddr)
}

// WriteToBroadcast sends a datagram to the LAN broadcast address on
// port.
func (s *UDPSocket) WriteToBroadcast(data []byte, port int) (int, error) {
	return s.raw.WriteToUDP(data, &net.UDPAddr{IP: net.IPv4bcast, Port: port})
}

// Close closes the underlying socket, unblocking the reader goroutine.
func (s *UDPSocket) Close() error {
	return s.raw.Close()
}
