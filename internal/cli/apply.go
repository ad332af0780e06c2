package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var applyAutoApprove bool

var applyCmd = &cobra.Command{
	Use:   "apply [path]",
	Short: "Apply a manifest",
	Long: `Parses the manifest, compares it against the recorded state and
creates, updates or deletes resources through the selected provider
until the infrastructure matches the manifest.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().BoolVar(&applyAutoApprove, "auto-approve", false, "Skip interactive approval before applying")
}

func runApply(cmd *cobra.Command, args []string) error {
	eng, err := newEngine(cmd, args)
	if err != nil {
		return err
	}

	preview, _, err := eng.Plan()
	if err != nil {
		return err
	}

	renderPlan(preview)

	if !preview.HasChanges() {
		return nil
	}

	if !applyAutoApprove {
		ok, err := confirm("\nDo you want to perform these actions?")
		if err != nil {
			return err
		}

		if !ok {
			fmt.Println("Apply cancelled.")
			return nil
		}
	}

	plan, err := eng.Apply(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("\nApply complete. Resources: %d created, %d updated, %d deleted.\n",
		plan.Summary.Create, plan.Summary.Update, plan.Summary.Delete)

	return nil
}

// confirm prompts on stdout and accepts only the literal answer "yes"
func confirm(prompt string) (bool, error) {
	fmt.Printf("%s Only 'yes' will be accepted: ", prompt)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("unable to read approval: %w", err)
	}

	return strings.TrimSpace(line) == "yes", nil
}
