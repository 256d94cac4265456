package plan

import (
	"strconv"
	"strings"
)

const schemaDescription = `Respond with a single JSON object and nothing else, using exactly these fields:
{
  "name": string (the user's name),
  "focus": string (primary fitness goal, e.g. "Muscle Gain"),
  "split": string (workout split type, e.g. "Push/Pull/Legs"),
  "totalCalories": number (daily calorie target),
  "workoutDuration": string (average workout duration, e.g. "60 mins"),
  "summary": string (a warm, personalized 2-sentence summary of the plan),
  "motivation": string (a powerful motivational quote or thought),
  "tips": [string] (3 actionable health/posture tips),
  "workout": {
    "split": string (the name of the split),
    "schedule": [{
      "day": string (e.g. "Monday (Push)"),
      "exercises": [{
        "name": string (e.g. "Bench Press"),
        "sets": number (e.g. 3),
        "reps": string (rep range, e.g. "8-12" or "Failure"),
        "rest": string (rest time in seconds, e.g. "60s"),
        "focus": string (target muscle group, e.g. "Chest"),
        "description": string (short form cue on how to perform it safely)
      }]
    }]
  },
  "diet": [{
    "meal": string (Breakfast, Lunch, Snack, or Dinner),
    "name": string (name of the dish),
    "calories": number,
    "protein": string (e.g. "30g"),
    "carbs": string (e.g. "40g"),
    "fats": string (e.g. "15g"),
    "items": [string] (list of ingredients/components)
  }]
}`

// BuildPrompt renders the plan instruction for a validated profile.
func BuildPrompt(p Profile) string {
	conditions := strings.TrimSpace(p.Conditions)
	if conditions == "" {
		conditions = "None"
	}

	var b strings.Builder
	b.WriteString("Generate a highly personalized workout and diet plan for the following user:\n\n")
	b.WriteString("Name: " + p.Name + "\n")
	b.WriteString("Age: " + strconv.Itoa(p.Age) + ", Gender: " + p.Gender + "\n")
	b.WriteString("Height: " + formatNumber(p.Height) + "cm, Weight: " + formatNumber(p.Weight) + "kg\n")
	b.WriteString("Goal: " + p.Goal + "\n")
	b.WriteString("Experience Level: " + p.Level + "\n")
	b.WriteString("Workout Location: " + p.Location +
		` (This is CRITICAL. If "Home", only use dumbbells/bodyweight. If "Gym", use machines.)` + "\n")
	b.WriteString("Dietary Preference: " + p.DietaryPreference + "\n")
	b.WriteString("Medical Conditions: " + conditions + "\n\n")
	b.WriteString("REQUIREMENTS:\n")
	b.WriteString("1. Create a weekly workout schedule based on their experience level.\n")
	b.WriteString("2. Create a daily meal plan that fits their goal (Calorie deficit for weight loss, Surplus for muscle gain).\n")
	b.WriteString("3. Ensure the tone is encouraging and professional.\n")
	b.WriteString("4. Dont add Rest Days in the workout schedule.\n")
	b.WriteString("5. Use the FitnessPlanSchema to format the output strictly.\n\n")
	b.WriteString("FitnessPlanSchema:\n")
	b.WriteString(schemaDescription)
	return b.String()
}

// formatNumber prints whole numbers without a fraction and others in the
// shortest exact form.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
