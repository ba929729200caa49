package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pagekeep/diary/internal/core/domain"
	"github.com/pagekeep/diary/internal/core/ports"
)

// DefaultEntriesCollection is used when no collection name is configured.
const DefaultEntriesCollection = "entries"

// EntryRepository stores diary entries. Every query carries the permission
// string the operation needs, so a caller only ever touches documents that
// grant it access.
type EntryRepository struct {
	col *mongo.Collection
}

func NewEntryRepository(db *mongo.Database, collection string) *EntryRepository {
	if collection == "" {
		collection = DefaultEntriesCollection
	}
	return &EntryRepository{col: db.Collection(collection)}
}

// Create inserts a new entry document.
func (r *EntryRepository) Create(ctx context.Context, e *domain.Entry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

func (r *EntryRepository) FindByID(ctx context.Context, id, ownerID string) (*domain.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var e domain.Entry
	err := r.col.FindOne(ctx, grantedFilter(id, domain.ReadPermission(ownerID))).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, missingOrForbidden(ctx, r.col, id)
		}
		return nil, fmt.Errorf("find entry %s: %w", id, err)
	}
	return &e, nil
}

// ListByOwner returns every entry of ownerID sorted by start time, newest first.
func (r *EntryRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, ownerFilter(ownerID), options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer cur.Close(ctx)

	entries := make([]*domain.Entry, 0)
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	return entries, nil
}

// Update applies patch and returns the document as stored afterwards.
func (r *EntryRepository) Update(ctx context.Context, id, ownerID string, patch ports.EntryPatch, now time.Time) (*domain.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := grantedFilter(id, domain.UpdatePermission(ownerID))
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var e domain.Entry
	err := r.col.FindOneAndUpdate(ctx, filter, buildUpdate(patch, now), opts).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, missingOrForbidden(ctx, r.col, id)
		}
		return nil, fmt.Errorf("update entry %s: %w", id, err)
	}
	return &e, nil
}

func (r *EntryRepository) Delete(ctx context.Context, id, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, grantedFilter(id, domain.DeletePermission(ownerID)))
	if err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return missingOrForbidden(ctx, r.col, id)
	}
	return nil
}

// EnsureIndexes creates the indexes backing owner listings and permission filters.
func (r *EntryRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "start_date_time", Value: -1}}},
		{Keys: bson.D{{Key: "permissions", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// newestFirst orders listings by start time, latest first.
var newestFirst = bson.D{{Key: "start_date_time", Value: -1}}

// grantedFilter matches document id only when its permission list holds perm.
func grantedFilter(id, perm string) bson.M {
	return bson.M{"_id": id, "permissions": perm}
}

// ownerFilter matches the entries ownerID created and may still read.
func ownerFilter(ownerID string) bson.M {
	return bson.M{"user_id": ownerID, "permissions": domain.ReadPermission(ownerID)}
}

// buildUpdate turns a patch into a $set/$unset document. updated_at is always set.
func buildUpdate(p ports.EntryPatch, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Content != nil {
		set["content"] = *p.Content
	}
	if p.StartDateTime != nil {
		set["start_date_time"] = *p.StartDateTime
	}
	if p.EndDateTime != nil && !p.ClearEnd {
		set["end_date_time"] = *p.EndDateTime
	}
	if p.IsAllDay != nil {
		set["is_all_day"] = *p.IsAllDay
	}
	if p.Status != nil && *p.Status != "" {
		set["status"] = *p.Status
	}

	update := bson.M{"$set": set}
	unset := bson.M{}
	if p.ClearEnd {
		unset["end_date_time"] = ""
	}
	if p.Status != nil && *p.Status == "" {
		unset["status"] = ""
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}
