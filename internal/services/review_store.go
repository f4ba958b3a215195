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

// ReviewStore persists client testimonials.
type ReviewStore struct {
	col *mongo.Collection
}

func NewReviewStore(db *mongo.Database) *ReviewStore {
	return &ReviewStore{col: db.Collection(ReviewsCollection)}
}

// Create stores a review pending approval.
func (s *ReviewStore) Create(ctx context.Context, review *models.Review) error {
	review.ID = primitive.NilObjectID
	review.CreatedAt = time.Now().UTC()
	review.IsApproved = false

	res, err := s.col.InsertOne(ctx, review)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	review.ID = objectID(res.InsertedID)
	return nil
}

// List returns reviews newest first. With approvedOnly set, pending reviews
// are left out.
func (s *ReviewStore) List(ctx context.Context, approvedOnly bool, opts models.ListOptions) (*models.Page[models.Review], error) {
	q := bson.M{}
	if approvedOnly {
		q["is_approved"] = true
	}

	total, err := s.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	cursor, err := s.col.Find(ctx, q, findOptions(opts.Limit, opts.Offset))
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]models.Review, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	return &models.Page[models.Review]{Items: items, Total: total, Limit: opts.Limit, Offset: opts.Offset}, nil
}

func (s *ReviewStore) Approve(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"is_approved": true}})
	if err != nil {
		return fmt.Errorf("approve review: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ReviewStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
