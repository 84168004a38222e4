package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/courtline/engine/pkg/core/registry"
	"github.com/courtline/engine/pkg/events"
)

// ConstraintsCmd creates the constraints command group
func ConstraintsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "constraints",
		Short: "Inspect and validate constraint definitions",
	}

	cmd.AddCommand(listTemplatesCmd(app))
	cmd.AddCommand(validateConstraintsCmd(app))

	return cmd
}

func listTemplatesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the built-in constraint templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := registry.Templates()
			fmt.Printf("\nBuilt-in constraint templates (%d):\n\n", len(names))
			for _, name := range names {
				fmt.Printf("  %s\n", name)
			}
			fmt.Println()
			return nil
		},
	}
}

func validateConstraintsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <constraints_file>",
		Short: "Validate a constraint file without evaluating anything",
		Long:  "Load a constraint file and register every definition against a scratch registry, reporting each validation failure: schema violations, unknown evaluators, unknown references and dependency cycles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			constraints, err := LoadConstraints(args[0])
			if err != nil {
				return err
			}

			// Scratch registry: validation must not touch the store
			reg := registry.New(app.Evaluators, events.NopPublisher{}, app.Logger)

			failures := 0
			for _, c := range constraints {
				if err := reg.Register(c); err != nil {
					fmt.Printf("  ✗ %s: %v\n", c.ID, err)
					failures++
					continue
				}
				fmt.Printf("  ✓ %s\n", c.ID)
			}

			fmt.Println()
			if failures > 0 {
				return fmt.Errorf("%d of %d constraints failed validation", failures, len(constraints))
			}
			fmt.Printf("All %d constraints are valid.\n\n", len(constraints))
			return nil
		},
	}
}
