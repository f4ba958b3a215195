package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	AdminsCollection    = "admins"
	ContactsCollection  = "contacts"
	QuotesCollection    = "quotes"
	PortfolioCollection = "portfolio"
	ReviewsCollection   = "reviews"
	ProjectsCollection  = "projects"
)

var adminIndexes = []mongo.IndexModel{
	{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetName("uniq_username").SetUnique(true),
	},
}

// EnsureIndexes creates the indexes every collection relies on.
// Called on startup after Mongo has connected.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		AdminsCollection: adminIndexes,
		ContactsCollection: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_created_at")},
		},
		QuotesCollection: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_created_at")},
		},
		PortfolioCollection: {
			{
				Keys: bson.D{
					{Key: "is_active", Value: 1},
					{Key: "is_featured", Value: 1},
					{Key: "created_at", Value: -1},
				},
				Options: options.Index().SetName("idx_active_featured_created"),
			},
		},
		ReviewsCollection: {
			{
				Keys:    bson.D{{Key: "is_approved", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_approved_created"),
			},
		},
		ProjectsCollection: {
			{
				Keys:    bson.D{{Key: "is_active", Value: 1}, {Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_active_created"),
			},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// EnsureAdminIndexes creates only the unique username index. Tools that
// write admins call it before touching the collection.
func EnsureAdminIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(AdminsCollection).Indexes().CreateMany(ctx, adminIndexes); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("admins collection holds duplicate usernames; remove them before continuing: %w", err)
		}
		return fmt.Errorf("create indexes on %s: %w", AdminsCollection, err)
	}
	return nil
}

// ListCollections returns collection names, used by the db-check endpoint.
func ListCollections(ctx context.Context, db *mongo.Database) ([]string, error) {
	return db.ListCollectionNames(ctx, bson.D{})
}
