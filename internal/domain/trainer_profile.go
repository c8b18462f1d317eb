package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxTrainersPerClient bounds how many trainer client lists a single user can appear in.
const MaxTrainersPerClient = 10

// TrainerProfile is owned 1:1 by a user with the trainer role.
// Clients is the only source of truth for trainer→client access.
type TrainerProfile struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID          primitive.ObjectID   `bson:"userId" json:"userId"`
	Bio             string               `bson:"bio,omitempty" json:"bio,omitempty"`
	Specializations []string             `bson:"specializations,omitempty" json:"specializations,omitempty"`
	Certifications  []string             `bson:"certifications,omitempty" json:"certifications,omitempty"`
	ExperienceYears int                  `bson:"experienceYears" json:"experienceYears"`
	HourlyRate      int64                `bson:"hourlyRate" json:"hourlyRate"` // smallest currency unit
	Rating          float64              `bson:"rating" json:"rating"`
	Clients         []primitive.ObjectID `bson:"clients" json:"clients"`
	CreatedAt       time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// HasClient reports whether id is in the trainer's client list.
func (p *TrainerProfile) HasClient(id primitive.ObjectID) bool {
	for _, c := range p.Clients {
		if c == id {
			return true
		}
	}
	return false
}
