package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prn-tf/atlas-accounts/internal/domain"
	"github.com/prn-tf/atlas-accounts/internal/repository"
)

// accountRepository implements repository.AccountRepository for MongoDB.
type accountRepository struct {
	db *DB
}

// NewAccountRepository creates a new MongoDB account repository.
func NewAccountRepository(db *DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

// Create inserts a new account document.
func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	if _, err := r.db.coll.InsertOne(ctx, account); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: email '%s'", repository.ErrDuplicate, account.Email)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByEmail retrieves an account by normalized email.
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *accountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	var account domain.Account
	err := r.db.coll.FindOne(ctx, filter).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// Update persists the identity fields of an existing account.
func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	res, err := r.db.coll.UpdateByID(ctx, account.ID, bson.M{
		"$set": bson.M{
			"name":        account.Name,
			"email":       account.Email,
			"secret_hash": account.SecretHash,
			"age":         account.Age,
			"updated_at":  account.UpdatedAt,
		},
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: email '%s'", repository.ErrDuplicate, account.Email)
		}
		return fmt.Errorf("failed to update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes the account document. The embedded token set and avatar go
// with it, which is the cascade the service layer relies on.
func (r *accountRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// List returns a page of accounts ordered by creation time.
func (r *accountRepository) List(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[domain.Account], error) {
	total, err := r.db.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to count accounts: %w", err)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit)).
		SetProjection(bson.M{"avatar": 0})

	cursor, err := r.db.coll.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*domain.Account
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}

	return &repository.ListResult[domain.Account]{Items: items, Total: total}, nil
}

// ExistsByEmail checks if an account with the normalized email exists.
func (r *accountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	count, err := r.db.coll.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return count > 0, nil
}

// AddToken appends a token to the account's valid set.
func (r *accountRepository) AddToken(ctx context.Context, id, token string) error {
	return r.updateByID(ctx, id, bson.M{"$push": bson.M{"tokens": token}})
}

// RemoveToken removes exactly the matching token from the valid set.
func (r *accountRepository) RemoveToken(ctx context.Context, id, token string) error {
	return r.updateByID(ctx, id, bson.M{"$pull": bson.M{"tokens": token}})
}

// ClearTokens empties the account's valid token set.
func (r *accountRepository) ClearTokens(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"tokens": []string{}}})
}

// SetAvatar stores avatar bytes on the account document.
func (r *accountRepository) SetAvatar(ctx context.Context, id string, avatar []byte) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"avatar": avatar}})
}

// ClearAvatar removes the avatar field from the account document.
func (r *accountRepository) ClearAvatar(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, bson.M{"$unset": bson.M{"avatar": ""}})
}

// GetAvatar retrieves the stored avatar bytes. A missing account and a
// missing avatar are the same ErrNotFound.
func (r *accountRepository) GetAvatar(ctx context.Context, id string) ([]byte, error) {
	var doc struct {
		Avatar []byte `bson:"avatar"`
	}
	opts := options.FindOne().SetProjection(bson.M{"avatar": 1})
	err := r.db.coll.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get avatar: %w", err)
	}
	if len(doc.Avatar) == 0 {
		return nil, repository.ErrNotFound
	}
	return doc.Avatar, nil
}

func (r *accountRepository) updateByID(ctx context.Context, id string, update bson.M) error {
	res, err := r.db.coll.UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
