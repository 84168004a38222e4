package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/courtline/engine/pkg/core/model"
	"github.com/courtline/engine/pkg/core/resolution"
)

// ResolveCmd creates the resolve command
func ResolveCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <schedule_file> <constraints_file>",
		Short: "Automatically resolve schedule conflicts",
		Long:  "Run the bounded automatic resolution loop: detect conflicts, apply the best candidate fix per iteration, and roll back any fix that makes the schedule worse. The input file is never modified; use --out to write the resolved snapshot.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outPath, _ := cmd.Flags().GetString("out")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

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

			app.Logger.Debug("resolve command",
				zap.String("schedule", sched.ID),
				zap.Bool("dry_run", dryRun))

			outcome, err := svc.ResolveAutomatically(app.Ctx, sched)
			if err != nil {
				return fmt.Errorf("resolution failed: %w", err)
			}

			printOutcome(sched, outcome)

			if dryRun || outPath == "" || len(outcome.Applied) == 0 {
				if outPath == "" && len(outcome.Applied) > 0 {
					fmt.Println("💡 Use --out to write the resolved schedule to a file.")
				}
				return nil
			}
			if err := writeSchedule(outPath, outcome.Schedule); err != nil {
				return err
			}
			fmt.Printf("Resolved schedule written to %s\n\n", outPath)
			return nil
		},
	}

	cmd.Flags().String("out", "", "Write the resolved schedule snapshot to this file")
	cmd.Flags().Bool("dry-run", false, "Report the resolutions without writing the result")

	return cmd
}

func printOutcome(sched *model.Schedule, outcome *resolution.Outcome) {
	const (
		colorReset  = "\033[0m"
		colorGreen  = "\033[32m"
		colorYellow = "\033[33m"
		colorBold   = "\033[1m"
	)

	fmt.Printf("\n%sAutomatic resolution: %s%s\n\n", colorBold, sched.ID, colorReset)
	fmt.Printf("Iterations: %d\n", outcome.Iterations)

	if len(outcome.Applied) == 0 {
		fmt.Println("No resolutions applied.")
	} else {
		fmt.Printf("\nApplied resolutions (%d):\n", len(outcome.Applied))
		for i, res := range outcome.Applied {
			fmt.Printf("  %d. %s%s%s on game %s (Δ %+.3f)\n",
				i+1, colorGreen, res.Type, colorReset,
				res.Mutation.GameID, res.ProjectedDelta)
		}
	}

	if len(outcome.Remaining) == 0 {
		fmt.Printf("\n%s✓ No conflicts remain above the resolution threshold%s\n\n", colorGreen, colorReset)
		return
	}

	fmt.Printf("\n%sRemaining conflicts (%d), left for manual review:%s\n", colorYellow, len(outcome.Remaining), colorReset)
	for _, c := range outcome.Remaining {
		fmt.Printf("  [%s] %s\n", c.Severity, c.Description)
	}
	fmt.Println()
}

// writeSchedule serializes a snapshot back to the on-disk YAML shape
func writeSchedule(path string, s *model.Schedule) error {
	file := scheduleFile{
		ID:        s.ID,
		Sport:     s.Sport,
		Season:    s.Season,
		Games:     s.Games,
		Rivalries: s.Rivalries,
	}
	for _, t := range s.Teams {
		file.Teams = append(file.Teams, t)
	}
	sort.Slice(file.Teams, func(i, j int) bool { return file.Teams[i].ID < file.Teams[j].ID })
	for _, v := range s.Venues {
		file.Venues = append(file.Venues, v)
	}
	sort.Slice(file.Venues, func(i, j int) bool { return file.Venues[i].ID < file.Venues[j].ID })

	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to serialize schedule: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write schedule file: %w", err)
	}
	return nil
}
