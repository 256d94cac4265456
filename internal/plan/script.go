package plan

import (
	"fmt"
	"strings"
)

// WorkoutScript renders the spoken coaching script for one day of the
// schedule. Ellipses mark pauses for the speech model.
func WorkoutScript(p Plan, dayIndex int) (string, error) {
	if dayIndex < 0 || dayIndex >= len(p.Workout.Schedule) {
		return "", fmt.Errorf("day %d out of range: plan has %d days", dayIndex, len(p.Workout.Schedule))
	}
	day := p.Workout.Schedule[dayIndex]
	if len(day.Exercises) == 0 {
		return "", fmt.Errorf("day %d has no exercises", dayIndex)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Let's get moving. Today is %s. We are focusing on %s. ", day.Day, day.Exercises[0].Focus)
	fmt.Fprintf(&b, "Remember, %s ", p.Motivation)

	for i, ex := range day.Exercises {
		fmt.Fprintf(&b, "Exercise %d: %s. ... ", i+1, ex.Name)
		fmt.Fprintf(&b, "I want you to do %s sets. ", formatNumber(ex.Sets))
		fmt.Fprintf(&b, "Aim for %s reps per set. ", ex.Reps)
		fmt.Fprintf(&b, "Here is a tip: %s. ... ", ex.Description)
		if ex.Rest != "" && ex.Rest != "0" {
			fmt.Fprintf(&b, "Rest for %s between sets. ... ", strings.Replace(ex.Rest, "s", " seconds", 1))
		}
	}

	b.WriteString("Great work. Go crush it.")
	return b.String(), nil
}

// DietScript renders the spoken walkthrough of the day's meals.
func DietScript(p Plan) string {
	var b strings.Builder
	b.WriteString("Here is your fuel plan for today. ... ")
	for _, m := range p.Diet {
		fmt.Fprintf(&b, "For %s, you are having %s. ", m.Meal, m.Name)
		fmt.Fprintf(&b, "This meal contains %s calories. ... ", formatNumber(m.Calories))
		fmt.Fprintf(&b, "The main ingredients are: %s. ... ", strings.Join(m.Items, ", "))
	}
	b.WriteString("Stay hydrated and stick to the plan.")
	return b.String()
}

// WelcomeScript greets a returning user.
func WelcomeScript(p Plan) string {
	return fmt.Sprintf("Welcome back, %s. Let's review your plan for today.", p.Name)
}
