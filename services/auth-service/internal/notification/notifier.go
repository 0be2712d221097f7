package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/repository"
)

// Outbox data keys.
const (
	KeyFirstName = "first_name"
	KeyCode      = "code"
	KeyExpiresAt = "expires_at"
)

// Notifier records account lifecycle events in the outbox for mail delivery.
type Notifier struct {
	outboxRepo repository.OutboxRepository
	logger     *zerolog.Logger
}

// NewNotifier creates a new Notifier.
func NewNotifier(outboxRepo repository.OutboxRepository, logger *zerolog.Logger) *Notifier {
	return &Notifier{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

// AccountSignedUp enqueues the welcome mail for a new account.
func (n *Notifier) AccountSignedUp(ctx context.Context, account *model.Account) error {
	return n.enqueue(ctx, model.TopicAccountSignedUp, account, map[string]string{
		KeyFirstName: account.FirstName,
	})
}

// VerificationOTPIssued enqueues the activation passcode mail.
func (n *Notifier) VerificationOTPIssued(ctx context.Context, account *model.Account, code string, expiresAt time.Time) error {
	return n.enqueue(ctx, model.TopicAccountVerification, account, otpData(account, code, expiresAt))
}

// PasswordOTPIssued enqueues the password reset passcode mail.
func (n *Notifier) PasswordOTPIssued(ctx context.Context, account *model.Account, code string, expiresAt time.Time) error {
	return n.enqueue(ctx, model.TopicAccountPasswordOTP, account, otpData(account, code, expiresAt))
}

func (n *Notifier) enqueue(ctx context.Context, topic string, account *model.Account, data map[string]string) error {
	msg, err := n.outboxRepo.Enqueue(ctx, &model.OutboxMessage{
		Topic:     topic,
		Recipient: account.Email,
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", topic, err)
	}

	n.logger.Debug().
		Str("topic", topic).
		Str("outbox_id", msg.ID.Hex()).
		Str("account_id", account.ID.Hex()).
		Msg("outbox message enqueued")

	return nil
}

func otpData(account *model.Account, code string, expiresAt time.Time) map[string]string {
	return map[string]string{
		KeyFirstName: account.FirstName,
		KeyCode:      code,
		KeyExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	}
}
