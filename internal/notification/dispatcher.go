package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/powerfitness/gymd/internal/domain"
	"github.com/powerfitness/gymd/internal/observability/metrics"
)

// Sender delivers rendered notifications. Satisfied by *Mailer.
type Sender interface {
	SendReceipt(ctx context.Context, to, memberName string, pdf []byte) error
	SendExpiryReminder(ctx context.Context, to, memberName string, expiry time.Time) error
}

type jobKind string

const (
	jobReceipt  jobKind = "receipt"
	jobReminder jobKind = "reminder"
)

type job struct {
	kind   jobKind
	member domain.Member
}

// Dispatcher queues notification work onto a background worker so that
// member mutations never block on SMTP. Enqueue is best-effort: when the
// queue is full the job is dropped and logged, not retried.
type Dispatcher struct {
	renderer *ReceiptRenderer
	sender   Sender
	logger   *slog.Logger
	jobs     chan job
}

func NewDispatcher(renderer *ReceiptRenderer, sender Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		renderer: renderer,
		sender:   sender,
		logger:   logger,
		jobs:     make(chan job, 64),
	}
}

// Start runs the delivery loop until the context is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("notification dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("notification dispatcher stopped")
			return
		case j := <-d.jobs:
			d.deliver(ctx, j)
		}
	}
}

// EnqueueReceipt queues a receipt email for a member. Members without an
// email address are skipped silently.
func (d *Dispatcher) EnqueueReceipt(m *domain.Member) {
	d.enqueue(job{kind: jobReceipt, member: *m})
}

// EnqueueReminder queues an expiry reminder email for a member.
func (d *Dispatcher) EnqueueReminder(m *domain.Member) {
	d.enqueue(job{kind: jobReminder, member: *m})
}

func (d *Dispatcher) enqueue(j job) {
	if j.member.Email == "" {
		return
	}
	select {
	case d.jobs <- j:
	default:
		d.logger.Warn("notification queue full, dropping job",
			"kind", string(j.kind),
			"member_id", j.member.ID)
		metrics.ObserveNotification(string(j.kind), "dropped")
	}
}

// SendReceipt renders and delivers a receipt synchronously. Used by the
// explicit send-receipt endpoint where the caller wants the result.
func (d *Dispatcher) SendReceipt(ctx context.Context, m *domain.Member) error {
	pdf, err := d.renderer.Render(m)
	if err != nil {
		metrics.ObserveNotification(string(jobReceipt), "error")
		return err
	}
	if err := d.sender.SendReceipt(ctx, m.Email, m.Name, pdf); err != nil {
		metrics.ObserveNotification(string(jobReceipt), "error")
		return err
	}
	metrics.ObserveNotification(string(jobReceipt), "ok")
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, j job) {
	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var err error
	switch j.kind {
	case jobReceipt:
		err = d.SendReceipt(sendCtx, &j.member)
	case jobReminder:
		err = d.sender.SendExpiryReminder(sendCtx, j.member.Email, j.member.Name, j.member.ExpiryDate)
		if err != nil {
			metrics.ObserveNotification(string(jobReminder), "error")
		} else {
			metrics.ObserveNotification(string(jobReminder), "ok")
		}
	}
	if err != nil {
		d.logger.Error("notification delivery failed",
			"kind", string(j.kind),
			"member_id", j.member.ID,
			"error", err)
	}
}
