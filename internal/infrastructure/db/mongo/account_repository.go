package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pagekeep/diary/internal/core/domain"
)

// DefaultAccountsCollection is used when no collection name is configured.
const DefaultAccountsCollection = "accounts"

// AccountRepository stores identity records, one per email.
type AccountRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewAccountRepository(db *mongo.Database, collection string) *AccountRepository {
	if collection == "" {
		collection = DefaultAccountsCollection
	}
	return &AccountRepository{
		col: db.Collection(collection),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// FindOrCreateByEmail upserts on email so concurrent requests for the same
// address converge on one account id.
func (r *AccountRepository) FindOrCreateByEmail(ctx context.Context, email, newID string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$setOnInsert": bson.M{
		"_id":            newID,
		"email":          email,
		"email_verified": false,
		"created_at":     r.now(),
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var a domain.Account
	err := r.col.FindOneAndUpdate(ctx, bson.M{"email": email}, update, opts).Decode(&a)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost an upsert race on the unique email index; the winner's document is there now.
			return r.findOne(ctx, bson.M{"email": email})
		}
		return nil, fmt.Errorf("upsert account %s: %w", email, err)
	}
	return &a, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.findOne(ctx, bson.M{"_id": id})
}

// MarkVerified records that the account proved ownership of its email.
func (r *AccountRepository) MarkVerified(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"email_verified": true}})
	if err != nil {
		return fmt.Errorf("verify account %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	var a domain.Account
	if err := r.col.FindOne(ctx, filter).Decode(&a); err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
