package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stackform-io/stackform/internal/engine"
)

var planCmd = &cobra.Command{
	Use:   "plan [path]",
	Short: "Show the changes a manifest would make",
	Long: `Compares the manifest against the recorded state and prints the
resources that would be created, updated or deleted. Nothing is
changed by this command.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	eng, err := newEngine(cmd, args)
	if err != nil {
		return err
	}

	plan, _, err := eng.Plan()
	if err != nil {
		return err
	}

	renderPlan(plan)

	return nil
}

func renderPlan(p *engine.Plan) {
	if !p.HasChanges() {
		fmt.Println("No changes. The infrastructure matches the manifest.")
		return
	}

	for _, c := range p.Changes {
		if c.Action == engine.ActionNoop {
			continue
		}

		fmt.Printf("  %s %s\n", actionSymbol(c.Action), c.ID)
	}

	fmt.Printf("\nPlan: %d to create, %d to update, %d to delete.\n",
		p.Summary.Create, p.Summary.Update, p.Summary.Delete)
}

func actionSymbol(a engine.Action) string {
	switch a {
	case engine.ActionCreate:
		return "+"
	case engine.ActionUpdate:
		return "~"
	case engine.ActionDelete:
		return "-"
	}

	return " "
}
