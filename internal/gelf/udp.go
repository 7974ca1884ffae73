package gelf

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
)

// UDPSender owns one datagram socket bound to an OS-assigned local port and
// ships each payload as a single datagram to the configured collector.
// Delivery is fire-and-forget: no retries, no acknowledgement, no chunking.
// Payloads above the path MTU may be silently dropped in transit.
//
// The destination is re-resolved on every send so a DNS change of the
// collector does not require a restart.
type UDPSender struct {
	conn   *net.UDPConn
	target string
	logger *slog.Logger
}

// NewUDPSender opens the socket. A failure here is a resource error and is
// surfaced to the caller; the sender cannot exist without a usable socket.
func NewUDPSender(host string, port int, logger *slog.Logger) (*UDPSender, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
	if err != nil {
		return nil, fmt.Errorf("failed to open udp socket: %w", err)
	}
	return &UDPSender{
		conn:   conn,
		target: net.JoinHostPort(host, strconv.Itoa(port)),
		logger: logger.With("component", "gelf_udp", "target", net.JoinHostPort(host, strconv.Itoa(port))),
	}, nil
}

// Send transmits one payload as one datagram. An empty payload (the builder's
// failure sentinel) is a no-op. Resolution and send failures are logged and
// returned; they never leave the sender in a broken state, and a later send
// with a reachable destination succeeds.
func (s *UDPSender) Send(payload []byte) error {
	if len(payload) == 0 {
		return nil
	}

	raddr, err := net.ResolveUDPAddr("udp", s.target)
	if err != nil {
		s.logger.Error("failed to resolve gelf destination", "error", err)
		return fmt.Errorf("resolve gelf destination %s: %w", s.target, err)
	}

	if _, err := s.conn.WriteToUDP(payload, raddr); err != nil {
		s.logger.Error("failed to send gelf datagram", "bytes", len(payload), "error", err)
		return fmt.Errorf("send gelf datagram: %w", err)
	}
	return nil
}

// Close releases the socket. Safe to call more than once; a send after Close
// fails like any other send error.
func (s *UDPSender) Close() error {
	if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("failed to close udp socket: %w", err)
	}
	return nil
}
