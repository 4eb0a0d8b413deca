package notification

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/powerfitness/gymd/internal/domain"
)

type fakeSender struct {
	mu        sync.Mutex
	receipts  []string
	reminders []string
}

func (f *fakeSender) SendReceipt(_ context.Context, to, _ string, pdf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(pdf) == 0 {
		panic("empty pdf")
	}
	f.receipts = append(f.receipts, to)
	return nil
}

func (f *fakeSender) SendExpiryReminder(_ context.Context, to, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders = append(f.reminders, to)
	return nil
}

func (f *fakeSender) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.receipts), len(f.reminders)
}

func testMember() *domain.Member {
	return &domain.Member{
		ID:         "m-1",
		Name:       "Ana Lima",
		Phone:      "555-0100",
		Email:      "ana@example.com",
		Sex:        "Female",
		Duration:   domain.DurationOneMonth,
		AmountPaid: 1000,
		Due:        0,
		CreatedAt:  time.Now(),
		ExpiryDate: time.Now().AddDate(0, 1, 0),
	}
}

func TestReceiptRendererProducesPDF(t *testing.T) {
	r := NewReceiptRenderer("Test Gym")
	pdf, err := r.Render(testMember())
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if len(pdf) == 0 {
		t.Fatal("expected non-empty pdf output")
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatal("output does not look like a pdf document")
	}
}

func TestDispatcherDeliversReceipt(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(NewReceiptRenderer(""), sender, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Start(ctx)

	d.EnqueueReceipt(testMember())

	deadline := time.After(2 * time.Second)
	for {
		if r, _ := sender.counts(); r == 1 {
			return
		}
		select {
		case <-deadline:
			t.Fatal("receipt was not delivered in time")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestDispatcherSkipsMembersWithoutEmail(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(NewReceiptRenderer(""), sender, slog.Default())

	m := testMember()
	m.Email = ""
	d.EnqueueReceipt(m)
	d.EnqueueReminder(m)

	if len(d.jobs) != 0 {
		t.Fatalf("expected no queued jobs, got %d", len(d.jobs))
	}
}

func TestSendReceiptSynchronous(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(NewReceiptRenderer(""), sender, slog.Default())

	if err := d.SendReceipt(context.Background(), testMember()); err != nil {
		t.Fatalf("send receipt failed: %v", err)
	}
	if r, _ := sender.counts(); r != 1 {
		t.Fatalf("expected one receipt, got %d", r)
	}
}
