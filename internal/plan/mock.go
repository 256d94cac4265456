package plan

import (
	"context"
	"strings"
)

// MockGenerator returns the sample plan personalised with the profile. It
// never calls out.
type MockGenerator struct{}

func (MockGenerator) Name() string { return "mock" }

func (MockGenerator) Generate(ctx context.Context, p Profile) (Plan, error) {
	if err := ctx.Err(); err != nil {
		return Plan{}, err
	}
	out := SamplePlan()
	if name := strings.TrimSpace(p.Name); name != "" {
		out.Name = name
	}
	if p.Goal != "" {
		out.Focus = p.Goal
	}
	switch p.Goal {
	case GoalWeightLoss:
		out.TotalCalories = 1900
	case GoalEndurance:
		out.TotalCalories = 2600
	case GoalMaintenance:
		out.TotalCalories = 2200
	}
	return out, nil
}

// SamplePlan is the demo plan shown before a user has generated their own.
func SamplePlan() Plan {
	return Plan{
		Name:            "Alex",
		Focus:           GoalMuscleGain,
		Split:           "Push / Pull / Legs",
		TotalCalories:   2400,
		WorkoutDuration: "60 mins",
		Summary:         "Based on your goal to 'Gain Muscle', we've designed a Hypertrophy-focused push/pull split.",
		Motivation:      "Consistency is key. You are building the version of yourself you've always wanted.",
		Tips: []string{
			"Keep your back straight during deadlifts to avoid injury.",
			"Hydrate: Drink at least 3L of water daily.",
			"Sleep is when muscles grow, aim for 7-8 hours.",
		},
		Workout: Workout{
			Split: "Push / Pull / Legs",
			Schedule: []DayWorkout{
				{
					Day: "Monday (Push)",
					Exercises: []Exercise{
						{Name: "Barbell Bench Press", Sets: 4, Reps: "8-12", Rest: "90s", Focus: "Chest", Description: "Explosive push up, slow controlled descent."},
						{Name: "Overhead Shoulder Press", Sets: 3, Reps: "10-12", Rest: "60s", Focus: "Shoulders", Description: "Keep core tight, do not arch back."},
						{Name: "Incline Dumbbell Fly", Sets: 3, Reps: "12-15", Rest: "60s", Focus: "Upper Chest", Description: "Focus on the stretch at the bottom."},
						{Name: "Tricep Rope Pushdown", Sets: 4, Reps: "15", Rest: "45s", Focus: "Triceps", Description: "Keep elbows locked at your sides."},
					},
				},
				{
					Day: "Tuesday (Pull)",
					Exercises: []Exercise{
						{Name: "Deadlift", Sets: 3, Reps: "5-8", Rest: "120s", Focus: "Back/Legs", Description: "Drive through heels, keep spine neutral."},
						{Name: "Lat Pulldown", Sets: 4, Reps: "10-12", Rest: "60s", Focus: "Lats", Description: "Pull towards your upper chest."},
						{Name: "Face Pulls", Sets: 3, Reps: "15", Rest: "45s", Focus: "Rear Delts", Description: "Pull rope to forehead level."},
					},
				},
				{
					Day: "Wednesday (Legs)",
					Exercises: []Exercise{
						{Name: "Back Squat", Sets: 4, Reps: "6-10", Rest: "120s", Focus: "Quads", Description: "Sit back and keep your chest up."},
						{Name: "Romanian Deadlift", Sets: 3, Reps: "10-12", Rest: "90s", Focus: "Hamstrings", Description: "Hinge at the hips with a soft knee."},
						{Name: "Standing Calf Raise", Sets: 4, Reps: "15", Rest: "0", Focus: "Calves", Description: "Pause at the top of each rep."},
					},
				},
			},
		},
		Diet: []Meal{
			{Meal: "Breakfast", Name: "Oatmeal & Whey Protein", Calories: 450, Protein: "30g", Carbs: "60g", Fats: "10g", Items: []string{"1 cup Oats", "1 scoop Whey", "Blueberries"}},
			{Meal: "Lunch", Name: "Grilled Chicken & Rice", Calories: 600, Protein: "45g", Carbs: "70g", Fats: "15g", Items: []string{"200g Chicken Breast", "1 cup Brown Rice", "Broccoli"}},
			{Meal: "Snack", Name: "Greek Yogurt & Almonds", Calories: 250, Protein: "15g", Carbs: "10g", Fats: "12g", Items: []string{"1 cup Greek Yogurt", "10 Almonds"}},
			{Meal: "Dinner", Name: "Salmon & Asparagus", Calories: 550, Protein: "40g", Carbs: "20g", Fats: "25g", Items: []string{"200g Salmon Fillet", "Steamed Asparagus", "Olive Oil"}},
		},
	}
}
