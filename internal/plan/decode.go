package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DecodePlan parses a model answer into a Plan. Markdown code fences and
// leading prose around the JSON object are tolerated.
func DecodePlan(text string) (Plan, error) {
	body := strings.TrimSpace(text)
	if body == "" {
		return Plan{}, errors.New("empty model response")
	}
	if i := strings.Index(body, "```"); i >= 0 {
		rest := body[i+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		body = strings.TrimSpace(rest)
	}
	start := strings.IndexByte(body, '{')
	end := strings.LastIndexByte(body, '}')
	if start < 0 || end < start {
		return Plan{}, errors.New("no json object in model response")
	}

	var p Plan
	if err := json.Unmarshal([]byte(body[start:end+1]), &p); err != nil {
		return Plan{}, fmt.Errorf("decode plan: %w", err)
	}
	if err := Check(p); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// Check rejects plans missing the content the dashboard and scripts rely on.
func Check(p Plan) error {
	switch {
	case len(p.Workout.Schedule) == 0:
		return errors.New("plan has no workout schedule")
	case len(p.Diet) == 0:
		return errors.New("plan has no meals")
	case p.TotalCalories <= 0:
		return errors.New("plan has no calorie target")
	}
	for i, d := range p.Workout.Schedule {
		if len(d.Exercises) == 0 {
			return fmt.Errorf("workout day %d has no exercises", i+1)
		}
	}
	return nil
}
