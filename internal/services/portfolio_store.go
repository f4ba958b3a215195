package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wefixit/wefixit-backend/internal/models"
)

// PortfolioStore persists portfolio items. Images are stored elsewhere; an
// item only keeps the image URL.
type PortfolioStore struct {
	col *mongo.Collection
}

func NewPortfolioStore(db *mongo.Database) *PortfolioStore {
	return &PortfolioStore{col: db.Collection(PortfolioCollection)}
}

func (s *PortfolioStore) Create(ctx context.Context, item *models.PortfolioItem) error {
	now := time.Now().UTC()
	item.ID = primitive.NilObjectID
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Tags == nil {
		item.Tags = []string{}
	}

	res, err := s.col.InsertOne(ctx, item)
	if err != nil {
		return fmt.Errorf("insert portfolio item: %w", err)
	}
	item.ID = objectID(res.InsertedID)
	return nil
}

func (s *PortfolioStore) Get(ctx context.Context, id primitive.ObjectID) (*models.PortfolioItem, error) {
	var item models.PortfolioItem
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find portfolio item: %w", err)
	}
	return &item, nil
}

// List returns items matching filter, newest first.
func (s *PortfolioStore) List(ctx context.Context, filter models.PortfolioFilter, opts models.ListOptions) (*models.Page[models.PortfolioItem], error) {
	q := bson.M{}
	if filter.IsActive != nil {
		if *filter.IsActive {
			// items without the field count as active
			q["is_active"] = bson.M{"$ne": false}
		} else {
			q["is_active"] = false
		}
	}
	if filter.IsFeatured != nil {
		q["is_featured"] = *filter.IsFeatured
	}
	if filter.Category != "" {
		q["category"] = filter.Category
	}

	total, err := s.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count portfolio items: %w", err)
	}

	cursor, err := s.col.Find(ctx, q, findOptions(opts.Limit, opts.Offset))
	if err != nil {
		return nil, fmt.Errorf("find portfolio items: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]models.PortfolioItem, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode portfolio items: %w", err)
	}
	return &models.Page[models.PortfolioItem]{Items: items, Total: total, Limit: opts.Limit, Offset: opts.Offset}, nil
}

// Update applies the supplied fields and returns the updated item.
func (s *PortfolioStore) Update(ctx context.Context, id primitive.ObjectID, update *models.PortfolioUpdate) (*models.PortfolioItem, error) {
	if update.Empty() {
		return s.Get(ctx, id)
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Category != nil {
		set["category"] = *update.Category
	}
	if update.Link != nil {
		set["link"] = *update.Link
	}
	if update.Image != nil {
		set["image"] = *update.Image
	}
	if update.Tags != nil {
		tags := *update.Tags
		if tags == nil {
			tags = []string{}
		}
		set["tags"] = tags
	}
	if update.IsFeatured != nil {
		set["is_featured"] = *update.IsFeatured
	}
	if update.IsActive != nil {
		set["is_active"] = *update.IsActive
	}

	var item models.PortfolioItem
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update portfolio item: %w", err)
	}
	return &item, nil
}

// Delete removes an item and returns it so its image can be cleaned up.
func (s *PortfolioStore) Delete(ctx context.Context, id primitive.ObjectID) (*models.PortfolioItem, error) {
	var item models.PortfolioItem
	err := s.col.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete portfolio item: %w", err)
	}
	return &item, nil
}
