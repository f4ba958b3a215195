package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectStatus string

const (
	ProjectStatusPlanned    ProjectStatus = "planned"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
)

// Valid reports whether s is a known status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanned, ProjectStatusInProgress, ProjectStatusCompleted:
		return true
	}
	return false
}

// Project is an agency engagement shown on the projects page.
type Project struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	Client       string             `bson:"client,omitempty" json:"client,omitempty"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Status       ProjectStatus      `bson:"status" json:"status"`
	Technologies []string           `bson:"technologies" json:"technologies"`
	URL          string             `bson:"url,omitempty" json:"url,omitempty"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// ProjectUpdate carries the fields supplied in a partial update.
type ProjectUpdate struct {
	Title        *string        `json:"title"`
	Client       *string        `json:"client"`
	Description  *string        `json:"description"`
	Status       *ProjectStatus `json:"status"`
	Technologies *[]string      `json:"technologies"`
	URL          *string        `json:"url"`
	IsActive     *bool          `json:"is_active"`
}

// Empty reports whether no field was supplied.
func (u *ProjectUpdate) Empty() bool {
	return u.Title == nil && u.Client == nil && u.Description == nil && u.Status == nil &&
		u.Technologies == nil && u.URL == nil && u.IsActive == nil
}
