package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/antoniostano/fitcoach/internal/app"
	"github.com/antoniostano/fitcoach/internal/plan"
	"github.com/antoniostano/fitcoach/internal/planstore"
)

// loadProfile reads a YAML or JSON profile file.
func loadProfile(path string) (plan.Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return plan.Profile{}, fmt.Errorf("read profile: %w", err)
	}
	var p plan.Profile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return plan.Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	return p, nil
}

// loadPlan reads either a bare plan or a stored record.
func loadPlan(path string) (plan.Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return plan.Plan{}, fmt.Errorf("read plan: %w", err)
	}
	var rec plan.Record
	if err := json.Unmarshal(raw, &rec); err == nil && len(rec.Plan.Workout.Schedule) > 0 {
		return rec.Plan, nil
	}
	var p plan.Plan
	if err := json.Unmarshal(raw, &p); err != nil {
		return plan.Plan{}, fmt.Errorf("parse plan: %w", err)
	}
	if err := plan.Check(p); err != nil {
		return plan.Plan{}, err
	}
	return p, nil
}

func (c *cli) planCmd() *cobra.Command {
	var profilePath, out, userID string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate a fitness plan from a profile file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if profilePath == "" {
				return errors.New("--profile is required")
			}
			profile, err := loadProfile(profilePath)
			if err != nil {
				return err
			}
			if err := plan.Validate(profile); err != nil {
				return err
			}

			cfg, err := c.serviceConfig()
			if err != nil {
				return err
			}
			gen, _, err := app.ResolvePlanGenerator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			svc := plan.NewService(gen, planstore.NewInMemoryStore(), plan.ServiceConfig{}, nil, nil)

			var rec plan.Record
			err = withRetries(cmd.Context(), c.v.GetInt("retries"), func() error {
				var err error
				rec, err = svc.Generate(cmd.Context(), userID, profile)
				return err
			})
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(rec.Plan, "", "  ")
			if err != nil {
				return err
			}
			data = append(data, '\n')
			if out == "" || out == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(out, data, 0o644)
		},
	}
	cmd.Flags().StringVar(&profilePath, "profile", "", "profile file (yaml or json)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default stdout)")
	cmd.Flags().StringVar(&userID, "user", "", "user id recorded with the plan")
	return cmd
}

func (c *cli) scriptCmd() *cobra.Command {
	var planPath string
	var day int
	cmd := &cobra.Command{
		Use:       "script workout|diet|welcome",
		Short:     "Print the coaching script for a plan",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"workout", "diet", "welcome"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if planPath == "" {
				return errors.New("--plan is required")
			}
			p, err := loadPlan(planPath)
			if err != nil {
				return err
			}
			var text string
			switch args[0] {
			case "workout":
				text, err = plan.WorkoutScript(p, day)
				if err != nil {
					return err
				}
			case "diet":
				text = plan.DietScript(p)
			case "welcome":
				text = plan.WelcomeScript(p)
			default:
				return fmt.Errorf("unknown script %s", strconv.Quote(args[0]))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().StringVar(&planPath, "plan", "", "plan json file")
	cmd.Flags().IntVar(&day, "day", 0, "workout day index")
	return cmd
}
