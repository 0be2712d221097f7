package notification

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/repository"
)

func newTestNotifier() (*Notifier, repository.OutboxRepository) {
	logger := zerolog.Nop()
	outboxRepo := repository.NewOutboxMemoryRepository()

	return NewNotifier(outboxRepo, &logger), outboxRepo
}

func testAccount() *model.Account {
	return &model.Account{
		ID:        bson.NewObjectID(),
		Email:     "a@x.com",
		FirstName: "Ada",
	}
}

func TestNotifier_AccountSignedUp(t *testing.T) {
	n, outboxRepo := newTestNotifier()
	ctx := context.Background()

	require.NoError(t, n.AccountSignedUp(ctx, testAccount()))

	msg, err := outboxRepo.ClaimNext(ctx, time.Now(), time.Minute, 5)
	require.NoError(t, err)
	assert.Equal(t, model.TopicAccountSignedUp, msg.Topic)
	assert.Equal(t, "a@x.com", msg.Recipient)
	assert.Equal(t, "Ada", msg.Data[KeyFirstName])
	assert.NotContains(t, msg.Data, KeyCode)
}

func TestNotifier_OTPIssued(t *testing.T) {
	expiresAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name   string
		notify func(*Notifier) error
		topic  string
	}{
		{
			name: "verification",
			notify: func(n *Notifier) error {
				return n.VerificationOTPIssued(context.Background(), testAccount(), "123456", expiresAt)
			},
			topic: model.TopicAccountVerification,
		},
		{
			name: "password",
			notify: func(n *Notifier) error {
				return n.PasswordOTPIssued(context.Background(), testAccount(), "123456", expiresAt)
			},
			topic: model.TopicAccountPasswordOTP,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, outboxRepo := newTestNotifier()
			require.NoError(t, tt.notify(n))

			msg, err := outboxRepo.ClaimNext(context.Background(), time.Now(), time.Minute, 5)
			require.NoError(t, err)
			assert.Equal(t, tt.topic, msg.Topic)
			assert.Equal(t, "123456", msg.Data[KeyCode])
			assert.Equal(t, "2026-01-02T03:04:05Z", msg.Data[KeyExpiresAt])
		})
	}
}

func TestNotifier_EnqueueFailure(t *testing.T) {
	n, _ := newTestNotifier()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := n.AccountSignedUp(ctx, testAccount())
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), model.TopicAccountSignedUp)
}
