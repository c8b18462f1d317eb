package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExerciseEntry is one exercise performed in a workout.
type ExerciseEntry struct {
	Name     string  `bson:"name" json:"name"`
	Sets     int     `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps     int     `bson:"reps,omitempty" json:"reps,omitempty"`
	Weight   float64 `bson:"weight,omitempty" json:"weight,omitempty"`     // kg
	Duration int     `bson:"duration,omitempty" json:"duration,omitempty"` // seconds
	Notes    string  `bson:"notes,omitempty" json:"notes,omitempty"`
}

// Workout is a logged training session owned by a user.
type Workout struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`       // Owner, immutable
	CreatedBy      primitive.ObjectID `bson:"createdBy" json:"createdBy"` // Owner or their trainer
	Name           string             `bson:"name" json:"name"`
	Type           string             `bson:"type,omitempty" json:"type,omitempty"` // e.g. "strength", "cardio"
	Date           time.Time          `bson:"date" json:"date"`
	Duration       int                `bson:"duration" json:"duration"` // minutes
	CaloriesBurned int                `bson:"caloriesBurned,omitempty" json:"caloriesBurned,omitempty"`
	Exercises      []ExerciseEntry    `bson:"exercises,omitempty" json:"exercises,omitempty"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
