package worker

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/notification"
	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/repository"
)

// ErrUnknownTopic is recorded on outbox messages no template exists for.
var ErrUnknownTopic = errors.New("unknown outbox topic")

// Sender delivers rendered mail.
type Sender interface {
	SendHTML(to []string, subject, htmlBody string) error
}

// Dispatcher drains the outbox and delivers each message by mail.
type Dispatcher struct {
	outboxRepo repository.OutboxRepository
	sender     Sender
	cfg        config.OutboxConfig
	logger     *zerolog.Logger
	now        func() time.Time
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(
	outboxRepo repository.OutboxRepository,
	sender Sender,
	cfg config.OutboxConfig,
	logger *zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		outboxRepo: outboxRepo,
		sender:     sender,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Run polls the outbox every PollInterval until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	d.logger.Info().Dur("poll_interval", d.cfg.PollInterval).Msg("outbox dispatcher started")

	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("outbox dispatcher stopped")
			return
		case <-ticker.C:
			d.DispatchPending(ctx)
		}
	}
}

// DispatchPending delivers every ready message and returns how many were sent.
func (d *Dispatcher) DispatchPending(ctx context.Context) int {
	sent := 0

	for ctx.Err() == nil {
		msg, err := d.outboxRepo.ClaimNext(ctx, d.now(), d.cfg.Lease, d.cfg.MaxAttempts)
		if err != nil {
			if !errors.Is(err, repository.ErrOutboxEmpty) {
				d.logger.Error().Err(err).Msg("failed to claim outbox message")
			}
			return sent
		}

		if err := d.dispatch(ctx, msg); err != nil {
			d.logger.Warn().
				Err(err).
				Str("outbox_id", msg.ID.Hex()).
				Str("topic", msg.Topic).
				Int("attempts", msg.Attempts).
				Msg("failed to dispatch outbox message")

			if err := d.outboxRepo.MarkFailed(ctx, msg.ID.Hex(), err.Error()); err != nil {
				d.logger.Error().Err(err).Str("outbox_id", msg.ID.Hex()).Msg("failed to record outbox failure")
			}
			continue
		}

		sent++
	}

	return sent
}

func (d *Dispatcher) dispatch(ctx context.Context, msg *model.OutboxMessage) error {
	subject, body, err := render(msg)
	if err != nil {
		return err
	}

	if err := d.sender.SendHTML([]string{msg.Recipient}, subject, body); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return d.outboxRepo.MarkDispatched(ctx, msg.ID.Hex(), d.now())
}

func render(msg *model.OutboxMessage) (string, string, error) {
	name := html.EscapeString(msg.Data[notification.KeyFirstName])
	if name == "" {
		name = "there"
	}

	switch msg.Topic {
	case model.TopicAccountSignedUp:
		return "Welcome aboard", fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your account has been created. Request a verification code to activate it.</p>

		<p>Thank you,</p>
		<p>Accounts Team</p>
	`, name), nil

	case model.TopicAccountVerification:
		return "Your verification code", fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Use the code below to activate your account:</p>

		<p><strong>%s</strong></p>

		<p>This code expires at %s.</p>
		<p>If you did not sign up, you can safely ignore this email.</p>

		<p>Thank you,</p>
		<p>Accounts Team</p>
	`, name, html.EscapeString(msg.Data[notification.KeyCode]), expiry(msg)), nil

	case model.TopicAccountPasswordOTP:
		return "Password Reset Request", fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>We received a request to reset the password for your account.</p>
		<p>Use the code below to choose a new password:</p>

		<p><strong>%s</strong></p>

		<p>This code expires at %s.</p>
		<p>If you did not request a password reset, you can safely ignore this email.</p>

		<p>Thank you,</p>
		<p>Accounts Team</p>
	`, name, html.EscapeString(msg.Data[notification.KeyCode]), expiry(msg)), nil

	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownTopic, msg.Topic)
	}
}

func expiry(msg *model.OutboxMessage) string {
	expiresAt, err := time.Parse(time.RFC3339, msg.Data[notification.KeyExpiresAt])
	if err != nil {
		return "the end of its validity window"
	}

	return expiresAt.Format("15:04 MST on Jan 2, 2006")
}
