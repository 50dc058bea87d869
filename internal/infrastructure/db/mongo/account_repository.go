package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jyotish/auth-service/internal/core/domain"
)

const (
	accountCollection = "accounts"

	emailIndex    = "uniq_email"
	usernameIndex = "uniq_username"
)

// AccountRepository is the MongoDB-backed ports.AccountRepository. The unique
// indexes created by EnsureIndexes are what guarantee email and username
// uniqueness under concurrent registrations.
type AccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(accountCollection)}
}

type mongoAccount struct {
	ID           string `bson:"_id"`
	Email        string `bson:"email"`
	Username     string `bson:"username"`
	PasswordHash string `bson:"password_hash"`
	FullName     string `bson:"full_name,omitempty"`
	Role         string `bson:"role"`
	IsActive     bool   `bson:"is_active"`
	IsVerified   bool   `bson:"is_verified"`
	CreatedAt    int64  `bson:"created_at"`
	UpdatedAt    int64  `bson:"updated_at"`
}

// EnsureIndexes creates the unique email and username indexes. It is
// idempotent and meant to run once at startup.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(emailIndex).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName(usernameIndex).SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("create account indexes: %w", err)
	}
	return nil
}

func (r *AccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (r *AccountRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, bson.M{"username": strings.TrimSpace(username)})
}

func (r *AccountRepository) FindByEmailOrUsername(ctx context.Context, identifier string) (*domain.Account, error) {
	identifier = strings.TrimSpace(identifier)
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"email": domain.NormalizeEmail(identifier)},
		bson.M{"username": identifier},
	}})
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

// Save inserts a new account (assigning a UUID when the ID is empty) or
// replaces the stored document with the same ID.
func (r *AccountRepository) Save(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	saved := *account
	saved.Email = domain.NormalizeEmail(saved.Email)
	if saved.UpdatedAt.IsZero() {
		saved.UpdatedAt = time.Now().UTC()
	}
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = saved.UpdatedAt
	}

	var err error
	if saved.ID == "" {
		saved.ID = uuid.NewString()
		_, err = r.coll.InsertOne(ctx, toDocument(&saved))
	} else {
		_, err = r.coll.ReplaceOne(ctx, bson.M{"_id": saved.ID}, toDocument(&saved), options.Replace().SetUpsert(true))
	}
	if err != nil {
		if dup := duplicateKeyError(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("save account: %w", err)
	}
	return &saved, nil
}

func (r *AccountRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count accounts: %w", err)
	}
	return n > 0, nil
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	var doc mongoAccount
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return fromDocument(&doc), nil
}

// duplicateKeyError maps a unique index violation to the domain error for
// the offending field, or returns nil when err is not a duplicate key error.
func duplicateKeyError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if strings.Contains(err.Error(), usernameIndex) {
		return domain.ErrDuplicateUsername
	}
	return domain.ErrDuplicateEmail
}

func toDocument(a *domain.Account) mongoAccount {
	return mongoAccount{
		ID:           a.ID,
		Email:        a.Email,
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
		FullName:     a.FullName,
		Role:         a.Role,
		IsActive:     a.IsActive,
		IsVerified:   a.IsVerified,
		CreatedAt:    a.CreatedAt.Unix(),
		UpdatedAt:    a.UpdatedAt.Unix(),
	}
}

func fromDocument(d *mongoAccount) *domain.Account {
	return &domain.Account{
		ID:           d.ID,
		Email:        d.Email,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		FullName:     d.FullName,
		Role:         d.Role,
		IsActive:     d.IsActive,
		IsVerified:   d.IsVerified,
		CreatedAt:    unixToTime(d.CreatedAt),
		UpdatedAt:    unixToTime(d.UpdatedAt),
	}
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
