package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/powerfitness/gymd/internal/domain"
	"github.com/powerfitness/gymd/internal/featureflags"
	"github.com/powerfitness/gymd/internal/observability/metrics"
)

// ReminderNotifier queues expiry reminder emails.
type ReminderNotifier interface {
	EnqueueReminder(m *domain.Member)
}

// ReminderWorker periodically sweeps for memberships that expire soon
// and queues reminder emails for them.
type ReminderWorker struct {
	members  domain.MemberRepository
	notifier ReminderNotifier
	logger   *slog.Logger
	interval time.Duration
	leadDays int

	// notified remembers which member+day pairs were already reminded,
	// so overlapping sweeps on the same day stay idempotent.
	notified map[string]string
}

func NewReminderWorker(members domain.MemberRepository, notifier ReminderNotifier, logger *slog.Logger, interval time.Duration, leadDays int) *ReminderWorker {
	return &ReminderWorker{
		members:  members,
		notifier: notifier,
		logger:   logger,
		interval: interval,
		leadDays: leadDays,
		notified: make(map[string]string),
	}
}

// Start begins the reminder loop. It runs until the context is cancelled.
func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("reminder worker started",
		slog.Duration("interval", w.interval),
		slog.Int("lead_days", w.leadDays))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminder worker stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep finds members whose memberships expire leadDays from now and
// queues a reminder for each one that has an email address.
func (w *ReminderWorker) Sweep(ctx context.Context) {
	if !featureflags.Enabled(featureflags.ExpiryReminders) {
		return
	}

	w.updateActiveGauge(ctx)

	day := time.Now().AddDate(0, 0, w.leadDays)
	expiring, err := w.members.ListExpiringOn(ctx, day)
	if err != nil {
		w.logger.Error("reminder sweep failed", slog.String("error", err.Error()))
		metrics.ObserveReminderSweep("error")
		return
	}

	dayKey := day.Format("2006-01-02")
	queued := 0
	for _, m := range expiring {
		if m.Email == "" {
			continue
		}
		if w.notified[m.ID] == dayKey {
			continue
		}
		w.notifier.EnqueueReminder(m)
		w.notified[m.ID] = dayKey
		queued++
	}

	w.logger.Info("reminder sweep complete",
		slog.Int("expiring", len(expiring)),
		slog.Int("queued", queued))
	metrics.ObserveReminderSweep("ok")
}

func (w *ReminderWorker) updateActiveGauge(ctx context.Context) {
	members, err := w.members.List(ctx)
	if err != nil {
		return
	}
	active := 0
	now := time.Now()
	for _, m := range members {
		if m.ExpiryDate.After(now) {
			active++
		}
	}
	metrics.SetActiveMembers(active)
}
