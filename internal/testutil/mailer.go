package testutil

import (
	"context"
	"sync"

	"Marketplace/internal/services"
)

// RecordingMailer keeps every receipt instead of sending it.
type RecordingMailer struct {
	mu       sync.Mutex
	Receipts map[string][]services.Receipt
	Err      error
}

func NewRecordingMailer() *RecordingMailer {
	return &RecordingMailer{Receipts: map[string][]services.Receipt{}}
}

func (m *RecordingMailer) SendPaymentReceipt(_ context.Context, to string, r services.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Receipts[to] = append(m.Receipts[to], r)
	return m.Err
}
