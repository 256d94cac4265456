package plan

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// ValidationError lists every invalid profile field with a user-facing message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid profile: " + strings.Join(parts, "; ")
}

// Validate applies the profile form rules. Enum values must match exactly.
func Validate(p Profile) error {
	fields := make(map[string]string)
	if len([]rune(strings.TrimSpace(p.Name))) < 2 {
		fields["name"] = "Name is required"
	}
	if p.Age < 10 {
		fields["age"] = "Must be at least 10 years old"
	}
	if p.Height < 50 {
		fields["height"] = "Height in cm is required"
	}
	if p.Weight < 20 {
		fields["weight"] = "Weight in kg is required"
	}
	checkEnum(fields, "gender", p.Gender, Genders)
	checkEnum(fields, "goal", p.Goal, Goals)
	checkEnum(fields, "level", p.Level, Levels)
	checkEnum(fields, "location", p.Location, Locations)
	checkEnum(fields, "dietaryPreference", p.DietaryPreference, DietOptions)

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func checkEnum(fields map[string]string, name, value string, allowed []string) {
	if !slices.Contains(allowed, value) {
		fields[name] = fmt.Sprintf("must be one of %s", strings.Join(allowed, ", "))
	}
}
