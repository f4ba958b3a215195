package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wefixit/wefixit-backend/internal/models"
)

// ContactStore persists contact form submissions.
type ContactStore struct {
	col *mongo.Collection
}

func NewContactStore(db *mongo.Database) *ContactStore {
	return &ContactStore{col: db.Collection(ContactsCollection)}
}

// ContactFilter narrows an admin listing. Nil fields are not filtered.
type ContactFilter struct {
	Read *bool
}

// Create stores a new unread submission and fills in its id and timestamp.
func (s *ContactStore) Create(ctx context.Context, contact *models.Contact) error {
	contact.ID = primitive.NilObjectID
	contact.CreatedAt = time.Now().UTC()
	contact.Read = false

	res, err := s.col.InsertOne(ctx, contact)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	contact.ID = objectID(res.InsertedID)
	return nil
}

// List returns submissions newest first.
func (s *ContactStore) List(ctx context.Context, filter ContactFilter, opts models.ListOptions) (*models.Page[models.Contact], error) {
	q := bson.M{}
	if filter.Read != nil {
		q["read"] = *filter.Read
	}

	total, err := s.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count contacts: %w", err)
	}

	cursor, err := s.col.Find(ctx, q, findOptions(opts.Limit, opts.Offset))
	if err != nil {
		return nil, fmt.Errorf("find contacts: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]models.Contact, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}
	return &models.Page[models.Contact]{Items: items, Total: total, Limit: opts.Limit, Offset: opts.Offset}, nil
}

// MarkRead flips the read flag on.
func (s *ContactStore) MarkRead(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return fmt.Errorf("mark contact read: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a submission.
func (s *ContactStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
