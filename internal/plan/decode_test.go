package plan

import (
	"encoding/json"
	"testing"
)

func samplePlanJSON(t *testing.T) string {
	t.Helper()
	raw, err := json.Marshal(SamplePlan())
	if err != nil {
		t.Fatalf("marshal sample: %v", err)
	}
	return string(raw)
}

func TestDecodePlanAcceptsBareAndFencedJSON(t *testing.T) {
	body := samplePlanJSON(t)
	for name, in := range map[string]string{
		"bare":   body,
		"fenced": "```json\n" + body + "\n```",
		"prose":  "Here is your plan:\n" + body + "\nGood luck!",
	} {
		p, err := DecodePlan(in)
		if err != nil {
			t.Fatalf("%s: DecodePlan() error = %v", name, err)
		}
		if p.Name != "Alex" || len(p.Workout.Schedule) != 3 || len(p.Diet) != 4 {
			t.Fatalf("%s: decoded plan = %+v", name, p)
		}
	}
}

func TestDecodePlanRejectsIncompletePlans(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"not json":    "I cannot help with that.",
		"no schedule": `{"name":"A","totalCalories":2000,"workout":{"schedule":[]},"diet":[{"meal":"Lunch"}]}`,
		"no diet":     `{"name":"A","totalCalories":2000,"workout":{"schedule":[{"day":"Mon","exercises":[{"name":"Squat"}]}]},"diet":[]}`,
		"no calories": `{"name":"A","workout":{"schedule":[{"day":"Mon","exercises":[{"name":"Squat"}]}]},"diet":[{"meal":"Lunch"}]}`,
		"empty day":   `{"name":"A","totalCalories":2000,"workout":{"schedule":[{"day":"Mon","exercises":[]}]},"diet":[{"meal":"Lunch"}]}`,
		"wrong types": `{"name":"A","totalCalories":"lots"}`,
	}
	for name, in := range cases {
		if _, err := DecodePlan(in); err == nil {
			t.Fatalf("%s: DecodePlan() expected error", name)
		}
	}
}
