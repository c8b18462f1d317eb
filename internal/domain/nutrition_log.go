package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

func (m MealType) Valid() bool {
	switch m {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

type FoodItem struct {
	Name     string  `bson:"name" json:"name"`
	Quantity float64 `bson:"quantity" json:"quantity"`
	Unit     string  `bson:"unit,omitempty" json:"unit,omitempty"`
	Calories int     `bson:"calories" json:"calories"`
	Protein  float64 `bson:"protein,omitempty" json:"protein,omitempty"`
	Carbs    float64 `bson:"carbs,omitempty" json:"carbs,omitempty"`
	Fat      float64 `bson:"fat,omitempty" json:"fat,omitempty"`
}

// NutritionLog records one meal for a user.
type NutritionLog struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	CreatedBy     primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	Date          time.Time          `bson:"date" json:"date"`
	MealType      MealType           `bson:"mealType" json:"mealType"`
	Foods         []FoodItem         `bson:"foods" json:"foods"`
	TotalCalories int                `bson:"totalCalories" json:"totalCalories"`
	WaterIntake   float64            `bson:"waterIntake,omitempty" json:"waterIntake,omitempty"` // litres
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SumCalories recomputes TotalCalories from Foods.
func (n *NutritionLog) SumCalories() {
	total := 0
	for _, f := range n.Foods {
		total += f.Calories
	}
	n.TotalCalories = total
}
