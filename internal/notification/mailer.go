package notification

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/powerfitness/gymd/internal/featureflags"
	"github.com/powerfitness/gymd/internal/reliability/circuitbreaker"
	"github.com/powerfitness/gymd/internal/reliability/retry"
	"github.com/powerfitness/gymd/pkg/config"
)

// Mailer delivers receipt and reminder emails over SMTP. Delivery is
// gated by the EMAIL_DELIVERY feature flag; with the flag off the mail
// is logged instead of sent, which keeps dev environments quiet.
type Mailer struct {
	cfg     config.SMTPConfig
	logger  *slog.Logger
	breaker *circuitbreaker.CircuitBreaker
	retry   *retry.Config
}

func NewMailer(cfg config.SMTPConfig, logger *slog.Logger) *Mailer {
	return &Mailer{
		cfg:     cfg,
		logger:  logger,
		breaker: circuitbreaker.New(5, 2, 30*time.Second),
		retry:   retry.DefaultConfig(),
	}
}

// SendReceipt mails a PDF receipt to the given address.
func (m *Mailer) SendReceipt(ctx context.Context, to, memberName string, pdf []byte) error {
	subject := fmt.Sprintf("Payment receipt for %s", memberName)
	body := fmt.Sprintf("<p>Hi %s,</p><p>Please find your membership payment receipt attached.</p>", memberName)
	return m.send(ctx, to, subject, body, pdf)
}

// SendExpiryReminder mails a plain reminder ahead of the membership expiry.
func (m *Mailer) SendExpiryReminder(ctx context.Context, to, memberName string, expiry time.Time) error {
	subject := "Your gym membership is expiring soon"
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your membership expires on <b>%s</b>. Renew at the front desk to keep training without interruption.</p>",
		memberName, expiry.Format("02 Jan 2006"),
	)
	return m.send(ctx, to, subject, body, nil)
}

func (m *Mailer) send(ctx context.Context, to, subject, body string, attachment []byte) error {
	if !featureflags.Enabled(featureflags.EmailDelivery) {
		m.logger.Info("email delivery disabled, logging preview",
			"to", to,
			"subject", subject,
			"attachment_bytes", len(attachment))
		return nil
	}

	if !m.breaker.AllowRequest() {
		return fmt.Errorf("mail circuit open, refusing delivery to %s", to)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)
	if len(attachment) > 0 {
		if err := msg.AttachReader("receipt.pdf", bytes.NewReader(attachment)); err != nil {
			return fmt.Errorf("attaching receipt: %w", err)
		}
	}

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	err := retry.Do(ctx, m.retry, m.logger, "smtp_send", func(ctx context.Context) error {
		client, err := mail.NewClient(m.cfg.Host, opts...)
		if err != nil {
			return err
		}
		return client.DialAndSendWithContext(ctx, msg)
	})
	if err != nil {
		m.breaker.RecordFailure()
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	m.breaker.RecordSuccess()
	return nil
}
