package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanKind distinguishes meal plans from workout plans. Both share a shape.
type PlanKind string

const (
	PlanKindMeal    PlanKind = "meal"
	PlanKindWorkout PlanKind = "workout"
)

// PlanItem is one scheduled entry of a plan, e.g. "Day 1: Upper Body" or "Breakfast: oats".
type PlanItem struct {
	Day         int    `bson:"day" json:"day"`
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
}

// Plan is a structured plan for a user, usually written by their trainer.
type Plan struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind        PlanKind           `bson:"kind" json:"kind"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`       // Who the plan is for
	CreatedBy   primitive.ObjectID `bson:"createdBy" json:"createdBy"` // Who wrote the plan
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Goal        string             `bson:"goal,omitempty" json:"goal,omitempty"`
	StartDate   *time.Time         `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate     *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Items       []PlanItem         `bson:"items,omitempty" json:"items,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
