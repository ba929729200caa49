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

// DefaultUsersCollection is used when no collection name is configured.
const DefaultUsersCollection = "users"

// UserRepository stores profile documents.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database, collection string) *UserRepository {
	if collection == "" {
		collection = DefaultUsersCollection
	}
	return &UserRepository{col: db.Collection(collection)}
}

func (r *UserRepository) Create(ctx context.Context, p *domain.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByAccountID(ctx context.Context, accountID string) (*domain.Profile, error) {
	return r.findOne(ctx, bson.M{"account_id": accountID})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Profile
	if err := r.col.FindOne(ctx, filter).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// EnsureIndexes makes account_id and email unique across profiles.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "account_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
