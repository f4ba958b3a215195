package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinReviewRating = 1
	MaxReviewRating = 5
)

// Review is a client testimonial. Public submissions stay hidden until an
// admin approves them.
type Review struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Company    string             `bson:"company,omitempty" json:"company,omitempty"`
	Role       string             `bson:"role,omitempty" json:"role,omitempty"`
	Rating     int                `bson:"rating" json:"rating"`
	Content    string             `bson:"content" json:"content"`
	IsApproved bool               `bson:"is_approved" json:"is_approved"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
