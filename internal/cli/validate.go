package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate the manifest",
	Long: `Parses the manifest, resolves every variable and reference and runs
the per resource validation rules without contacting any provider.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	eng, err := newEngine(cmd, args)
	if err != nil {
		return err
	}

	cfg, err := eng.Validate()
	if err != nil {
		return err
	}

	fmt.Printf("The manifest is valid, %d resources defined.\n", cfg.ResourceCount())

	return nil
}
