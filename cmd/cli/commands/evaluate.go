package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/courtline/engine/pkg/core/model"
	"github.com/courtline/engine/pkg/core/services"
)

// registerConstraints loads a constraint file and registers every entry,
// failing on the first definition the registry rejects
func registerConstraints(ctx context.Context, svc *services.Service, path string) ([]model.Constraint, error) {
	constraints, err := LoadConstraints(path)
	if err != nil {
		return nil, err
	}
	for _, c := range constraints {
		if err := svc.RegisterConstraint(ctx, c); err != nil {
			return nil, fmt.Errorf("constraint %q: %w", c.ID, err)
		}
	}
	return constraints, nil
}

// EvaluateCmd creates the evaluate command
func EvaluateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate <schedule_file> <constraints_file>",
		Short: "Evaluate a schedule against a constraint set",
		Long:  "Score a schedule snapshot against every constraint in the set, reporting per-constraint results and the blended overall score",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			constraintID, _ := cmd.Flags().GetString("constraint")

			sched, err := LoadSchedule(args[0])
			if err != nil {
				return err
			}
			svc, err := app.Service(sched)
			if err != nil {
				return err
			}
			if _, err := registerConstraints(app.Ctx, svc, args[1]); err != nil {
				return err
			}

			app.Logger.Debug("evaluate command",
				zap.String("schedule", sched.ID),
				zap.Int("games", len(sched.Games)),
				zap.String("constraint", constraintID))

			if constraintID != "" {
				result, err := svc.EvaluateOne(app.Ctx, sched, constraintID)
				if err != nil {
					return fmt.Errorf("evaluation failed: %w", err)
				}
				printConstraintResult(result)
				return nil
			}

			result, err := svc.Evaluate(app.Ctx, sched)
			if err != nil {
				return fmt.Errorf("evaluation failed: %w", err)
			}
			printEvaluationResult(sched, result)
			return nil
		},
	}

	cmd.Flags().String("constraint", "", "Evaluate a single constraint (with its dependencies) instead of the full set")

	return cmd
}

func printEvaluationResult(sched *model.Schedule, result *model.EvaluationResult) {
	const (
		colorReset = "\033[0m"
		colorGreen = "\033[32m"
		colorRed   = "\033[31m"
		colorBold  = "\033[1m"
	)

	fmt.Printf("\n%sEvaluation: %s%s\n\n", colorBold, sched.ID, colorReset)
	fmt.Printf("Fingerprint: %s\n", result.ScheduleFingerprint[:16])
	fmt.Printf("Elapsed:     %s\n", result.Elapsed)
	fmt.Printf("Cache hits:  %.0f%%\n\n", result.CacheHitRate*100)

	ids := make([]string, 0, len(result.Results))
	for id := range result.Results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		res := result.Results[id]
		marker := colorGreen + "✓" + colorReset
		if !res.Satisfied {
			marker = colorRed + "✗" + colorReset
		}
		fmt.Printf("  %s %-30s %-20s score=%.3f\n", marker, id, res.Status, res.Score)
		for _, v := range res.Violations {
			fmt.Printf("      [%s] %s\n", v.Severity, v.Description)
		}
		if res.Error != "" {
			fmt.Printf("      error: %s\n", res.Error)
		}
	}

	fmt.Println()
	if result.HardConstraintsSatisfied {
		fmt.Printf("Hard constraints: %sall satisfied%s\n", colorGreen, colorReset)
	} else {
		fmt.Printf("Hard constraints: %sVIOLATED%s (overall score gated to 0)\n", colorRed, colorReset)
	}
	fmt.Printf("Soft score:       %.3f\n", result.SoftConstraintsScore)
	fmt.Printf("Preference score: %.3f\n", result.PreferenceScore)
	fmt.Printf("%sOverall score:    %.3f%s\n\n", colorBold, result.OverallScore, colorReset)

	if len(result.Suggestions) > 0 {
		fmt.Println("Suggestions:")
		for _, s := range result.Suggestions {
			fmt.Printf("  • %s\n", s)
		}
		fmt.Println()
	}
}

func printConstraintResult(res model.ConstraintResult) {
	fmt.Printf("\nConstraint: %s\n", res.ConstraintID)
	fmt.Printf("Status:     %s\n", res.Status)
	fmt.Printf("Score:      %.3f\n", res.Score)
	fmt.Printf("Confidence: %.1f\n", res.Confidence)
	if res.Error != "" {
		fmt.Printf("Error:      %s\n", res.Error)
	}
	if len(res.Violations) > 0 {
		fmt.Printf("\nViolations (%d):\n", len(res.Violations))
		for _, v := range res.Violations {
			fmt.Printf("  [%s] %s\n", v.Severity, v.Description)
			if len(v.GameIDs) > 0 {
				fmt.Printf("        games: %v\n", v.GameIDs)
			}
		}
	}
	if len(res.Suggestions) > 0 {
		fmt.Println("\nSuggestions:")
		for _, s := range res.Suggestions {
			fmt.Printf("  • %s\n", s)
		}
	}
	fmt.Println()
}
