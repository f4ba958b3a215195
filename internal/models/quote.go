package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Quote is a public quote request. Replies are embedded and deleted with it.
type Quote struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name               string             `bson:"name" json:"name"`
	Email              string             `bson:"email" json:"email"`
	Phone              string             `bson:"phone" json:"phone"`
	Company            string             `bson:"company" json:"company"`
	ServiceType        string             `bson:"serviceType" json:"serviceType"`
	ProjectTitle       string             `bson:"projectTitle" json:"projectTitle"`
	Description        string             `bson:"description" json:"description"`
	Features           []string           `bson:"features" json:"features"`
	Timeline           string             `bson:"timeline" json:"timeline"`
	Budget             string             `bson:"budget" json:"budget"`
	HasExistingWebsite string             `bson:"hasExistingWebsite" json:"hasExistingWebsite"`
	PreferredStyle     string             `bson:"preferredStyle" json:"preferredStyle"`
	TargetAudience     string             `bson:"targetAudience" json:"targetAudience"`
	AdditionalNotes    string             `bson:"additionalNotes" json:"additionalNotes"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	Replies            []QuoteReply       `bson:"replies" json:"replies"`
}

// QuoteReply is an admin reply that was emailed to the requester.
type QuoteReply struct {
	// ID is stable across deletions of other replies. Replies stored before
	// ids were introduced have an empty ID.
	ID      string   `bson:"id,omitempty" json:"id,omitempty"`
	Content string   `bson:"content" json:"content"`
	SentAt  FlexTime `bson:"sent_at" json:"sent_at"`
	Admin   string   `bson:"admin" json:"admin"`
}
