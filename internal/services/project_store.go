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

type ProjectStore struct {
	col *mongo.Collection
}

func NewProjectStore(db *mongo.Database) *ProjectStore {
	return &ProjectStore{col: db.Collection(ProjectsCollection)}
}

func (s *ProjectStore) Create(ctx context.Context, project *models.Project) error {
	now := time.Now().UTC()
	project.ID = primitive.NilObjectID
	project.CreatedAt = now
	project.UpdatedAt = now
	if project.Status == "" {
		project.Status = models.ProjectStatusPlanned
	}
	if project.Technologies == nil {
		project.Technologies = []string{}
	}

	res, err := s.col.InsertOne(ctx, project)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	project.ID = objectID(res.InsertedID)
	return nil
}

func (s *ProjectStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find project: %w", err)
	}
	return &project, nil
}

// List returns projects newest first; activeOnly hides inactive ones.
func (s *ProjectStore) List(ctx context.Context, activeOnly bool, opts models.ListOptions) (*models.Page[models.Project], error) {
	q := bson.M{}
	if activeOnly {
		q["is_active"] = true
	}

	total, err := s.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}

	cursor, err := s.col.Find(ctx, q, findOptions(opts.Limit, opts.Offset))
	if err != nil {
		return nil, fmt.Errorf("find projects: %w", err)
	}
	defer cursor.Close(ctx)

	items := make([]models.Project, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	return &models.Page[models.Project]{Items: items, Total: total, Limit: opts.Limit, Offset: opts.Offset}, nil
}

func (s *ProjectStore) Update(ctx context.Context, id primitive.ObjectID, update *models.ProjectUpdate) (*models.Project, error) {
	if update.Empty() {
		return s.Get(ctx, id)
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if update.Title != nil {
		set["title"] = *update.Title
	}
	if update.Client != nil {
		set["client"] = *update.Client
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.Technologies != nil {
		tech := *update.Technologies
		if tech == nil {
			tech = []string{}
		}
		set["technologies"] = tech
	}
	if update.URL != nil {
		set["url"] = *update.URL
	}
	if update.IsActive != nil {
		set["is_active"] = *update.IsActive
	}

	var project models.Project
	err := s.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&project)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return &project, nil
}

func (s *ProjectStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
