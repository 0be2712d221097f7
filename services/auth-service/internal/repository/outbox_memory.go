package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/model"
)

type outboxMemoryRepository struct {
	mu       sync.Mutex
	messages map[bson.ObjectID]*model.OutboxMessage
}

// NewOutboxMemoryRepository creates an in-process OutboxRepository.
func NewOutboxMemoryRepository() OutboxRepository {
	return &outboxMemoryRepository{
		messages: make(map[bson.ObjectID]*model.OutboxMessage),
	}
}

func (r *outboxMemoryRepository) Enqueue(ctx context.Context, msg *model.OutboxMessage) (*model.OutboxMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	msg.ID = bson.NewObjectID()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	msg.Attempts = 0
	msg.DispatchedAt = nil

	stored := *msg
	r.messages[msg.ID] = &stored

	return msg, nil
}

func (r *outboxMemoryRepository) ClaimNext(
	ctx context.Context,
	now time.Time,
	lease time.Duration,
	maxAttempts int,
) (*model.OutboxMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ready := make([]*model.OutboxMessage, 0, len(r.messages))
	for _, msg := range r.messages {
		if msg.DispatchedAt == nil && !msg.LockedUntil.After(now) && msg.Attempts < maxAttempts {
			ready = append(ready, msg)
		}
	}

	if len(ready) == 0 {
		return nil, ErrOutboxEmpty
	}

	sort.Slice(ready, func(i, j int) bool {
		return ready[i].CreatedAt.Before(ready[j].CreatedAt)
	})

	msg := ready[0]
	msg.Attempts++
	msg.LockedUntil = now.Add(lease)
	msg.UpdatedAt = now

	claimed := *msg
	return &claimed, nil
}

func (r *outboxMemoryRepository) MarkDispatched(ctx context.Context, id string, at time.Time) error {
	return r.update(ctx, id, func(msg *model.OutboxMessage) {
		msg.DispatchedAt = &at
	})
}

func (r *outboxMemoryRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.update(ctx, id, func(msg *model.OutboxMessage) {
		msg.LastError = reason
	})
}

func (r *outboxMemoryRepository) update(ctx context.Context, id string, apply func(*model.OutboxMessage)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	msg, ok := r.messages[objectID]
	if !ok {
		return ErrOutboxMessageNotFound
	}

	apply(msg)
	msg.UpdatedAt = time.Now()

	return nil
}
