package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wefixit/wefixit-backend/internal/models"
)

// AdminStore persists admin credentials in the admins collection.
type AdminStore struct {
	col *mongo.Collection
}

func NewAdminStore(db *mongo.Database) *AdminStore {
	return &AdminStore{col: db.Collection(AdminsCollection)}
}

// FindByUsername returns ErrNotFound when no admin has that username.
func (s *AdminStore) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	err := s.col.FindOne(ctx, bson.M{"username": username}).Decode(&admin)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find admin: %w", err)
	}
	return &admin, nil
}

// Create inserts a new admin. ErrDuplicate is returned if the username is taken.
func (s *AdminStore) Create(ctx context.Context, username, passwordHash string) (*models.Admin, error) {
	now := time.Now().UTC()
	admin := &models.Admin{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	res, err := s.col.InsertOne(ctx, admin)
	if mongo.IsDuplicateKeyError(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("insert admin: %w", err)
	}
	admin.ID = objectID(res.InsertedID)
	return admin, nil
}

// UpdatePasswordHash replaces the stored hash in place. With bumpVersion the
// admin's outstanding tokens stop being accepted.
func (s *AdminStore) UpdatePasswordHash(ctx context.Context, username, passwordHash string, bumpVersion bool) error {
	update := bson.M{"$set": bson.M{"password_hash": passwordHash, "updated_at": time.Now().UTC()}}
	if bumpVersion {
		update["$inc"] = bson.M{"token_version": 1}
	}

	res, err := s.col.UpdateOne(ctx, bson.M{"username": username}, update)
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an admin; its tokens are rejected from then on.
func (s *AdminStore) Delete(ctx context.Context, username string) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"username": username})
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all admins sorted by username. Password hashes are not loaded.
func (s *AdminStore) List(ctx context.Context) ([]models.Admin, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "username", Value: 1}}).
		SetProjection(bson.M{"password_hash": 0})

	cursor, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer cursor.Close(ctx)

	admins := make([]models.Admin, 0)
	if err := cursor.All(ctx, &admins); err != nil {
		return nil, fmt.Errorf("decode admins: %w", err)
	}
	return admins, nil
}
