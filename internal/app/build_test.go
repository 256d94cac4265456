package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/antoniostano/fitcoach/internal/config"
	"github.com/antoniostano/fitcoach/internal/observability"
	"github.com/antoniostano/fitcoach/internal/plan"
	"github.com/antoniostano/fitcoach/internal/planstore"
)

func TestBuildWithMockProviders(t *testing.T) {
	cfg := config.Config{
		RequestTimeout:     5 * time.Second,
		SpeechCacheSize:    4,
		MaxSpeechTextChars: 8000,
		PlanSQLitePath:     filepath.Join(t.TempDir(), "plans.db"),
	}
	res, err := BuildWith(context.Background(), cfg, observability.NewMetricsWith(prometheus.NewRegistry(), "test_app"))
	if err != nil {
		t.Fatalf("BuildWith() error = %v", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			t.Fatalf("Cleanup() error = %v", err)
		}
	}()

	if res.SpeechProvider.Name != "mock" || res.PlanGenerator.Name != "mock" {
		t.Fatalf("providers = %+v / %+v, want mock", res.SpeechProvider, res.PlanGenerator)
	}
	if res.Config.SpeechProvider != "mock" {
		t.Fatalf("Config.SpeechProvider = %q, want resolved name", res.Config.SpeechProvider)
	}
	if got := planstore.Backend(res.Store); got != "sqlite" {
		t.Fatalf("store backend = %q, want sqlite", got)
	}

	rec, err := res.Plans.Generate(context.Background(), "user-1", plan.Profile{
		Name: "Sam", Age: 34, Gender: plan.GenderFemale, Height: 165, Weight: 60,
		Goal: plan.GoalWeightLoss, Level: plan.LevelBeginner, Location: plan.LocationHome,
		DietaryPreference: plan.DietVegetarian,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if _, err := res.Store.Get(context.Background(), rec.ID); err != nil {
		t.Fatalf("stored plan lookup error = %v", err)
	}

	ts := httptest.NewServer(res.API.Router())
	defer ts.Close()
	hres, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	hres.Body.Close()
	if hres.StatusCode != http.StatusOK {
		t.Fatalf("GET /healthz status = %d", hres.StatusCode)
	}
}

func TestBuildRejectsUnknownProvider(t *testing.T) {
	_, err := BuildWith(context.Background(), config.Config{SpeechProvider: "polly"}, observability.NewMetricsWith(prometheus.NewRegistry(), "test_app_bad"))
	if err == nil {
		t.Fatalf("expected error")
	}
}
