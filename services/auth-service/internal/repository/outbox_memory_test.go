package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/model"
)

func TestOutboxMemoryRepository_ClaimLifecycle(t *testing.T) {
	repo := NewOutboxMemoryRepository()
	ctx := context.Background()

	msg, err := repo.Enqueue(ctx, &model.OutboxMessage{Topic: model.TopicAccountSignedUp, Recipient: "a@x.com"})
	require.NoError(t, err)

	now := time.Now()
	claimed, err := repo.ClaimNext(ctx, now, time.Minute, 3)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, claimed.ID)
	assert.Equal(t, 1, claimed.Attempts)

	// leased messages are hidden until the lease expires
	_, err = repo.ClaimNext(ctx, now, time.Minute, 3)
	assert.ErrorIs(t, err, ErrOutboxEmpty)

	require.NoError(t, repo.MarkFailed(ctx, claimed.ID.Hex(), "smtp down"))

	claimed, err = repo.ClaimNext(ctx, now.Add(2*time.Minute), time.Minute, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, claimed.Attempts)
	assert.Equal(t, "smtp down", claimed.LastError)

	require.NoError(t, repo.MarkDispatched(ctx, claimed.ID.Hex(), now))

	_, err = repo.ClaimNext(ctx, now.Add(time.Hour), time.Minute, 3)
	assert.ErrorIs(t, err, ErrOutboxEmpty)
}

func TestOutboxMemoryRepository_StopsAfterMaxAttempts(t *testing.T) {
	repo := NewOutboxMemoryRepository()
	ctx := context.Background()

	_, err := repo.Enqueue(ctx, &model.OutboxMessage{Topic: model.TopicAccountSignedUp, Recipient: "a@x.com"})
	require.NoError(t, err)

	now := time.Now()
	for i := range 2 {
		_, err := repo.ClaimNext(ctx, now.Add(time.Duration(i)*time.Hour), time.Minute, 2)
		require.NoError(t, err)
	}

	_, err = repo.ClaimNext(ctx, now.Add(10*time.Hour), time.Minute, 2)
	assert.ErrorIs(t, err, ErrOutboxEmpty)
}

func TestOutboxMemoryRepository_ClaimsOldestFirst(t *testing.T) {
	repo := NewOutboxMemoryRepository()
	ctx := context.Background()

	first, err := repo.Enqueue(ctx, &model.OutboxMessage{Topic: model.TopicAccountSignedUp, Recipient: "a@x.com"})
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = repo.Enqueue(ctx, &model.OutboxMessage{Topic: model.TopicAccountSignedUp, Recipient: "b@x.com"})
	require.NoError(t, err)

	claimed, err := repo.ClaimNext(ctx, time.Now(), time.Minute, 3)
	require.NoError(t, err)
	assert.Equal(t, first.ID, claimed.ID)
}

func TestOutboxMemoryRepository_MarkUnknown(t *testing.T) {
	repo := NewOutboxMemoryRepository()

	err := repo.MarkDispatched(context.Background(), "0123456789abcdef01234567", time.Now())
	assert.ErrorIs(t, err, ErrOutboxMessageNotFound)
}
