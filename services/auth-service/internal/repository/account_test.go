package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/account-lifecycle-api/services/auth-service/internal/model"
)

func TestFilterToBSON(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	query := filterToBSON(AccountFilter{
		Active:     ptr(true),
		OTP:        ptr("123456"),
		LoginPin:   ptr("0000"),
		OTPValidAt: &now,
	})

	assert.Equal(t, bson.M{
		"active":         true,
		"otp":            "123456",
		"login_pin":      "0000",
		"otp_expires_at": bson.M{"$gte": now},
	}, query)

	assert.Empty(t, filterToBSON(AccountFilter{}))
}

func TestUpdateToBSON(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	expiresAt := now.Add(15 * time.Minute)

	update, err := updateToBSON(UpdateAccountParams{
		OTP: &model.OTPChallenge{Code: "123456", ExpiresAt: expiresAt},
	}, now)
	require.NoError(t, err)
	assert.Equal(t, bson.M{
		"$set": bson.M{
			"otp":            "123456",
			"otp_expires_at": expiresAt,
			"updated_at":     now,
		},
	}, update)

	update, err = updateToBSON(UpdateAccountParams{
		Active:   ptr(true),
		ClearOTP: true,
		Username: ptr(""),
	}, now)
	require.NoError(t, err)
	assert.Equal(t, bson.M{
		"$set": bson.M{
			"active":     true,
			"updated_at": now,
		},
		"$unset": bson.M{
			"otp":            "",
			"otp_expires_at": "",
			"username":       "",
		},
	}, update)
}

func TestUpdateToBSON_Invalid(t *testing.T) {
	_, err := updateToBSON(UpdateAccountParams{}, time.Now())
	assert.ErrorIs(t, err, ErrNoAccountFields)

	_, err = updateToBSON(UpdateAccountParams{
		OTP:      &model.OTPChallenge{Code: "1"},
		ClearOTP: true,
	}, time.Now())
	assert.ErrorIs(t, err, ErrConflictingOTPUpdate)
}
