package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleUser    Role = "user"
	RoleTrainer Role = "trainer"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleTrainer, RoleAdmin:
		return true
	}
	return false
}

// User represents an actor in the system: a regular user, a trainer or an admin.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	AvatarKey    string             `bson:"avatarKey,omitempty" json:"-"` // S3 object key, internal use

	// Billing
	StripeCustomerID   string             `bson:"stripeCustomerId,omitempty" json:"-"`
	SubscriptionStatus SubscriptionStatus `bson:"subscriptionStatus,omitempty" json:"subscriptionStatus,omitempty"`
	SubscriptionPlan   string             `bson:"subscriptionPlan,omitempty" json:"subscriptionPlan,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsTrainer() bool {
	return u.Role == RoleTrainer
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// TransitionRole validates a role change and returns the new role.
// The only transitions are user→trainer (trainer profile created) and
// trainer→user (trainer profile removed). Admins never change role here.
func TransitionRole(current, target Role) (Role, error) {
	switch {
	case current == RoleUser && target == RoleTrainer:
		return target, nil
	case current == RoleTrainer && target == RoleUser:
		return target, nil
	default:
		return current, ErrInvalidRoleTransition
	}
}
