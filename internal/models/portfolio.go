package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PortfolioItem is a showcase entry on the public site.
type PortfolioItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Category    string             `bson:"category,omitempty" json:"category,omitempty"`
	Image       string             `bson:"image,omitempty" json:"image,omitempty"` // URL of the stored image
	Link        string             `bson:"link,omitempty" json:"link,omitempty"`
	Tags        []string           `bson:"tags" json:"tags"`
	IsFeatured  bool               `bson:"is_featured" json:"is_featured"`
	IsActive    bool               `bson:"is_active" json:"is_active"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// UnmarshalBSON decodes an item. Older documents may lack is_active and tags;
// they are read as active with no tags.
func (p *PortfolioItem) UnmarshalBSON(data []byte) error {
	type plain PortfolioItem
	var item plain
	if err := bson.Unmarshal(data, &item); err != nil {
		return err
	}
	*p = PortfolioItem(item)

	if v, err := bson.Raw(data).LookupErr("is_active"); err != nil || v.Type == bson.TypeNull {
		p.IsActive = true
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return nil
}

// PortfolioFilter narrows a portfolio listing. Nil fields are not filtered.
type PortfolioFilter struct {
	IsActive   *bool
	IsFeatured *bool
	Category   string
}

// PortfolioUpdate carries the fields supplied in a partial update.
type PortfolioUpdate struct {
	Title       *string
	Description *string
	Category    *string
	Link        *string
	Image       *string
	Tags        *[]string
	IsFeatured  *bool
	IsActive    *bool
}

// Empty reports whether no field was supplied.
func (u *PortfolioUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Category == nil && u.Link == nil &&
		u.Image == nil && u.Tags == nil && u.IsFeatured == nil && u.IsActive == nil
}
