// Package plan turns a user profile into a structured workout and diet plan
// and renders plans into spoken coaching scripts.
package plan

import "time"

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"

	GoalWeightLoss  = "Weight Loss"
	GoalMuscleGain  = "Muscle Gain"
	GoalMaintenance = "Maintenance"
	GoalEndurance   = "Endurance"

	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"

	LocationGym     = "Gym"
	LocationHome    = "Home"
	LocationOutdoor = "Outdoor"

	DietVegetarian = "Vegetarian"
	DietNonVeg     = "Non-Veg"
	DietVegan      = "Vegan"
	DietKeto       = "Keto"
	DietPaleo      = "Paleo"
)

var (
	Genders     = []string{GenderMale, GenderFemale, GenderOther}
	Goals       = []string{GoalWeightLoss, GoalMuscleGain, GoalMaintenance, GoalEndurance}
	Levels      = []string{LevelBeginner, LevelIntermediate, LevelAdvanced}
	Locations   = []string{LocationGym, LocationHome, LocationOutdoor}
	DietOptions = []string{DietVegetarian, DietNonVeg, DietVegan, DietKeto, DietPaleo}
)

// Profile is what the user tells us about themselves. Height is in
// centimetres and weight in kilograms.
type Profile struct {
	Name              string  `json:"name" yaml:"name"`
	Age               int     `json:"age" yaml:"age"`
	Gender            string  `json:"gender" yaml:"gender"`
	Height            float64 `json:"height" yaml:"height"`
	Weight            float64 `json:"weight" yaml:"weight"`
	Goal              string  `json:"goal" yaml:"goal"`
	Level             string  `json:"level" yaml:"level"`
	Location          string  `json:"location" yaml:"location"`
	DietaryPreference string  `json:"dietaryPreference" yaml:"dietaryPreference"`
	Conditions        string  `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

type Exercise struct {
	Name        string  `json:"name"`
	Sets        float64 `json:"sets"`
	Reps        string  `json:"reps"`
	Rest        string  `json:"rest"`
	Focus       string  `json:"focus"`
	Description string  `json:"description"`
}

type DayWorkout struct {
	Day       string     `json:"day"`
	Exercises []Exercise `json:"exercises"`
}

type Workout struct {
	Split    string       `json:"split"`
	Schedule []DayWorkout `json:"schedule"`
}

type Meal struct {
	Meal     string   `json:"meal"`
	Name     string   `json:"name"`
	Calories float64  `json:"calories"`
	Protein  string   `json:"protein"`
	Carbs    string   `json:"carbs"`
	Fats     string   `json:"fats"`
	Items    []string `json:"items"`
}

type Plan struct {
	Name            string   `json:"name"`
	Focus           string   `json:"focus"`
	Split           string   `json:"split"`
	TotalCalories   float64  `json:"totalCalories"`
	WorkoutDuration string   `json:"workoutDuration"`
	Summary         string   `json:"summary"`
	Motivation      string   `json:"motivation"`
	Tips            []string `json:"tips"`
	Workout         Workout  `json:"workout"`
	Diet            []Meal   `json:"diet"`
}

// Record is a stored plan. The latest record per user is the source of truth
// until the user regenerates.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Profile   Profile   `json:"profile"`
	Plan      Plan      `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}
