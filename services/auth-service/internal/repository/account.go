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
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrNoAccountFields      = errors.New("no account fields to update")
	ErrConflictingOTPUpdate = errors.New("otp cannot be set and cleared in one update")
)

// AccountRepository defines the persistence operations for accounts.
// Lookups that match nothing return ErrAccountNotFound; unique index
// violations return ErrAccountAlreadyExists.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error)
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	GetAccountByEmail(ctx context.Context, email string, filter AccountFilter) (*model.Account, error)
	GetAccountByUsername(ctx context.Context, username string, filter AccountFilter) (*model.Account, error)
	UpdateAccount(ctx context.Context, id string, params UpdateAccountParams) (*model.Account, error)

	// UpdateAccountIf applies params only if the account still matches filter,
	// as a single atomic step. It returns ErrAccountNotFound when it does not.
	UpdateAccountIf(
		ctx context.Context,
		id string,
		filter AccountFilter,
		params UpdateAccountParams,
	) (*model.Account, error)
}

// AccountFilter narrows a lookup. Nil fields are not constrained.
type AccountFilter struct {
	Active   *bool
	OTP      *string
	LoginPin *string

	// OTPValidAt requires a stored expiry that is not before the given time.
	OTPValidAt *time.Time
}

// UpdateAccountParams defines the optional fields for updating an account.
// Only the fields that are not nil will be updated. An empty Username or
// LoginPin removes the field.
type UpdateAccountParams struct {
	FirstName    *string
	LastName     *string
	Username     *string
	ReferralCode *string
	LoginPin     *string
	PasswordHash *string
	Active       *bool
	OTP          *model.OTPChallenge
	ClearOTP     bool
}

func (p UpdateAccountParams) validate() error {
	if p.OTP != nil && p.ClearOTP {
		return ErrConflictingOTPUpdate
	}

	if p.FirstName == nil && p.LastName == nil && p.Username == nil && p.ReferralCode == nil &&
		p.LoginPin == nil && p.PasswordHash == nil && p.Active == nil && p.OTP == nil && !p.ClearOTP {
		return ErrNoAccountFields
	}

	return nil
}

const accountCollection = "accounts"

type accountMongoRepository struct {
	db *mongo.Database
}

// NewAccountMongoRepository creates a MongoDB repository for accounts and
// ensures its unique indexes.
func NewAccountMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) AccountRepository {
	collection := db.Collection(accountCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create account indexes")
	}

	return &accountMongoRepository{db: db}
}

func (r *accountMongoRepository) CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error) {
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	result, err := r.db.Collection(accountCollection).InsertOne(ctx, account)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrAccountAlreadyExists
		}
		return nil, err
	}

	objectID, ok := result.InsertedID.(bson.ObjectID)
	if !ok {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}
	account.ID = objectID

	return account, nil
}

func (r *accountMongoRepository) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrAccountNotFound
	}

	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *accountMongoRepository) GetAccountByEmail(
	ctx context.Context,
	email string,
	filter AccountFilter,
) (*model.Account, error) {
	query := filterToBSON(filter)
	query["email"] = email

	return r.findOne(ctx, query)
}

func (r *accountMongoRepository) GetAccountByUsername(
	ctx context.Context,
	username string,
	filter AccountFilter,
) (*model.Account, error) {
	if username == "" {
		return nil, ErrAccountNotFound
	}

	query := filterToBSON(filter)
	query["username"] = username

	return r.findOne(ctx, query)
}

func (r *accountMongoRepository) UpdateAccount(
	ctx context.Context,
	id string,
	params UpdateAccountParams,
) (*model.Account, error) {
	return r.UpdateAccountIf(ctx, id, AccountFilter{}, params)
}

func (r *accountMongoRepository) UpdateAccountIf(
	ctx context.Context,
	id string,
	filter AccountFilter,
	params UpdateAccountParams,
) (*model.Account, error) {
	update, err := updateToBSON(params, time.Now())
	if err != nil {
		return nil, err
	}

	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrAccountNotFound
	}

	query := filterToBSON(filter)
	query["_id"] = objectID

	result := r.db.Collection(accountCollection).FindOneAndUpdate(
		ctx,
		query,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	return decodeAccount(result)
}

func (r *accountMongoRepository) findOne(ctx context.Context, query bson.M) (*model.Account, error) {
	return decodeAccount(r.db.Collection(accountCollection).FindOne(ctx, query))
}

func decodeAccount(result *mongo.SingleResult) (*model.Account, error) {
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrAccountAlreadyExists
		}
		return nil, err
	}

	var account model.Account
	if err := result.Decode(&account); err != nil {
		return nil, err
	}

	return &account, nil
}

func filterToBSON(filter AccountFilter) bson.M {
	query := bson.M{}
	if filter.Active != nil {
		query["active"] = *filter.Active
	}
	if filter.OTP != nil {
		query["otp"] = *filter.OTP
	}
	if filter.LoginPin != nil {
		query["login_pin"] = *filter.LoginPin
	}
	if filter.OTPValidAt != nil {
		query["otp_expires_at"] = bson.M{"$gte": *filter.OTPValidAt}
	}

	return query
}

func updateToBSON(params UpdateAccountParams, now time.Time) (bson.M, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": now}
	unset := bson.M{}

	setOrUnset := func(key string, value *string) {
		if value == nil {
			return
		}
		if *value == "" {
			unset[key] = ""
			return
		}
		set[key] = *value
	}

	if params.FirstName != nil {
		set["first_name"] = *params.FirstName
	}
	if params.LastName != nil {
		set["last_name"] = *params.LastName
	}
	setOrUnset("username", params.Username)
	setOrUnset("referral_code", params.ReferralCode)
	setOrUnset("login_pin", params.LoginPin)
	if params.PasswordHash != nil {
		set["password_hash"] = *params.PasswordHash
	}
	if params.Active != nil {
		set["active"] = *params.Active
	}
	if params.OTP != nil {
		set["otp"] = params.OTP.Code
		set["otp_expires_at"] = params.OTP.ExpiresAt
	}
	if params.ClearOTP {
		unset["otp"] = ""
		unset["otp_expires_at"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	return update, nil
}
