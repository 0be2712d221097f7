package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/model"
)

var (
	// ErrOutboxEmpty is returned by ClaimNext when no message is ready.
	ErrOutboxEmpty           = errors.New("no outbox message ready")
	ErrOutboxMessageNotFound = errors.New("outbox message not found")
)

// OutboxRepository defines the operations for the mail outbox.
type OutboxRepository interface {
	// Enqueue stores a new undispatched message.
	Enqueue(ctx context.Context, msg *model.OutboxMessage) (*model.OutboxMessage, error)

	// ClaimNext leases the oldest ready message until now+lease and bumps its
	// attempt counter. Messages with maxAttempts attempts are skipped.
	ClaimNext(ctx context.Context, now time.Time, lease time.Duration, maxAttempts int) (*model.OutboxMessage, error)

	// MarkDispatched records a successful delivery.
	MarkDispatched(ctx context.Context, id string, at time.Time) error

	// MarkFailed records the last delivery error. The lease keeps the message
	// hidden until it expires.
	MarkFailed(ctx context.Context, id string, reason string) error
}

const (
	outboxCollection = "outbox"
	dispatchedTTL    = 7 * 24 * time.Hour
)

type outboxMongoRepository struct {
	db *mongo.Database
}

// NewOutboxMongoRepository creates a MongoDB repository for outbox messages.
func NewOutboxMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) OutboxRepository {
	collection := db.Collection(outboxCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "locked_until", Value: 1},
				{Key: "created_at", Value: 1},
			},
		},
		{
			Keys:    bson.D{{Key: "dispatched_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(dispatchedTTL.Seconds())), // TTL index
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create outbox indexes")
	}

	return &outboxMongoRepository{db: db}
}

func (r *outboxMongoRepository) Enqueue(ctx context.Context, msg *model.OutboxMessage) (*model.OutboxMessage, error) {
	now := time.Now()
	msg.CreatedAt = now
	msg.UpdatedAt = now
	msg.Attempts = 0
	msg.DispatchedAt = nil

	result, err := r.db.Collection(outboxCollection).InsertOne(ctx, msg)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		msg.ID = objectID
	}

	return msg, nil
}

func (r *outboxMongoRepository) ClaimNext(
	ctx context.Context,
	now time.Time,
	lease time.Duration,
	maxAttempts int,
) (*model.OutboxMessage, error) {
	filter := bson.M{
		"dispatched_at": bson.M{"$exists": false},
		"locked_until":  bson.M{"$lte": now},
		"attempts":      bson.M{"$lt": maxAttempts},
	}
	update := bson.M{
		"$set": bson.M{
			"locked_until": now.Add(lease),
			"updated_at":   now,
		},
		"$inc": bson.M{"attempts": 1},
	}

	result := r.db.Collection(outboxCollection).FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().
			SetSort(bson.D{{Key: "created_at", Value: 1}}).
			SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		if errors.Is(result.Err(), mongo.ErrNoDocuments) {
			return nil, ErrOutboxEmpty
		}
		return nil, result.Err()
	}

	var msg model.OutboxMessage
	if err := result.Decode(&msg); err != nil {
		return nil, err
	}

	return &msg, nil
}

func (r *outboxMongoRepository) MarkDispatched(ctx context.Context, id string, at time.Time) error {
	return r.set(ctx, id, bson.M{
		"dispatched_at": at,
		"updated_at":    time.Now(),
	})
}

func (r *outboxMongoRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.set(ctx, id, bson.M{
		"last_error": reason,
		"updated_at": time.Now(),
	})
}

func (r *outboxMongoRepository) set(ctx context.Context, id string, fields bson.M) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	result, err := r.db.Collection(outboxCollection).UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrOutboxMessageNotFound
	}

	return nil
}
