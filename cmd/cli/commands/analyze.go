package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/courtline/engine/pkg/core/model"
)

// AnalyzeCmd creates the analyze command
func AnalyzeCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <schedule_file>",
		Short: "Scan a schedule for structural conflicts",
		Long:  "Run every structural conflict detector over the schedule and report the conflicts ordered by severity. With --constraints the registered hard constraints are evaluated too, surfacing their violations as conflicts.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			constraintsPath, _ := cmd.Flags().GetString("constraints")

			sched, err := LoadSchedule(args[0])
			if err != nil {
				return err
			}
			svc, err := app.Service(sched)
			if err != nil {
				return err
			}

			app.Logger.Debug("analyze command",
				zap.String("schedule", sched.ID),
				zap.Int("games", len(sched.Games)))

			if constraintsPath != "" {
				if _, err := registerConstraints(app.Ctx, svc, constraintsPath); err != nil {
					return err
				}
			}
			result, err := svc.AnalyzeConflicts(app.Ctx, sched)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			printAnalysis(sched, result)
			return nil
		},
	}

	cmd.Flags().String("constraints", "", "Constraint file to evaluate alongside the structural detectors")

	return cmd
}

func printAnalysis(sched *model.Schedule, result *model.ConflictAnalysisResult) {
	const (
		colorReset  = "\033[0m"
		colorRed    = "\033[31m"
		colorYellow = "\033[33m"
		colorGreen  = "\033[32m"
		colorBold   = "\033[1m"
	)

	fmt.Printf("\n%sConflict analysis: %s%s\n\n", colorBold, sched.ID, colorReset)
	fmt.Printf("Elapsed: %s\n", result.Elapsed)

	if result.Summary.Total == 0 {
		fmt.Printf("\n%s✓ No conflicts detected%s\n\n", colorGreen, colorReset)
	} else {
		fmt.Printf("\nConflicts (%d), most severe first:\n\n", result.Summary.Total)
		for _, c := range result.Conflicts {
			color := colorYellow
			if c.Severity == model.SeverityCritical {
				color = colorRed
			}
			fmt.Printf("  %s[%s]%s %s (%s)\n", color, c.Severity, colorReset, c.Description, c.ID)
			if len(c.GameIDs) > 0 {
				fmt.Printf("      games:  %v\n", c.GameIDs)
			}
			if len(c.TeamIDs) > 0 {
				fmt.Printf("      teams:  %v\n", c.TeamIDs)
			}
			if len(c.VenueIDs) > 0 {
				fmt.Printf("      venues: %v\n", c.VenueIDs)
			}
			if len(c.Candidates) > 0 {
				fmt.Printf("      candidate fixes: %v\n", c.Candidates)
			}
		}

		types := make([]string, 0, len(result.Summary.ByType))
		for ct := range result.Summary.ByType {
			types = append(types, string(ct))
		}
		sort.Strings(types)

		fmt.Println("\nBy type:")
		for _, ct := range types {
			fmt.Printf("  %-25s %d\n", ct, result.Summary.ByType[model.ConflictType(ct)])
		}
		fmt.Println()
	}

	if len(result.Summary.IncompleteTypes) > 0 {
		fmt.Printf("%s⚠ Incomplete detectors (their conflicts are missing):%s %v\n\n",
			colorYellow, colorReset, result.Summary.IncompleteTypes)
	}
}
