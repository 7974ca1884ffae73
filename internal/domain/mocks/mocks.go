package mocks

import (
	"context"
	"sync"

	"github.com/user/gelf-forwarder/internal/domain"
)

// MockDatagramSender is a mock implementation of domain.DatagramSender for
// testing. It records every payload it is handed.
type MockDatagramSender struct {
	mu      sync.Mutex
	Sent    [][]byte
	SendErr error
	Closed  bool
}

func (m *MockDatagramSender) Send(payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	if len(payload) == 0 {
		// Empty payload is the no-op sentinel; no network I/O happens.
		return nil
	}
	m.Sent = append(m.Sent, payload)
	return nil
}

func (m *MockDatagramSender) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// SendCount returns the number of datagrams actually sent.
func (m *MockDatagramSender) SendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// MockEventSource is a mock implementation of domain.EventSource.
type MockEventSource struct {
	mu         sync.Mutex
	ReadResult []domain.AuditEvent
	ReadErr    error
	Acked      []string
	AckErr     error
}

func (m *MockEventSource) ReadBatch(ctx context.Context, count int) ([]domain.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	batch := m.ReadResult
	m.ReadResult = nil
	return batch, nil
}

func (m *MockEventSource) Acknowledge(ctx context.Context, messageIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AckErr != nil {
		return m.AckErr
	}
	m.Acked = append(m.Acked, messageIDs...)
	return nil
}
