package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Outbox topics.
const (
	TopicAccountSignedUp     = "account.signed_up"
	TopicAccountVerification = "account.verification_otp"
	TopicAccountPasswordOTP  = "account.password_otp"
)

// OutboxMessage is a side effect recorded for asynchronous delivery.
type OutboxMessage struct {
	ID           bson.ObjectID     `bson:"_id,omitempty"`
	Topic        string            `bson:"topic"`
	Recipient    string            `bson:"recipient"`
	Data         map[string]string `bson:"data,omitempty"`
	Attempts     int               `bson:"attempts"`
	LockedUntil  time.Time         `bson:"locked_until"`
	DispatchedAt *time.Time        `bson:"dispatched_at,omitempty"`
	LastError    string            `bson:"last_error,omitempty"`
	CreatedAt    time.Time         `bson:"created_at"`
	UpdatedAt    time.Time         `bson:"updated_at"`
}
