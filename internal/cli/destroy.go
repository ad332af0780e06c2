package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var destroyAutoApprove bool

var destroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Delete every resource recorded in state",
	Long: `Deletes all resources recorded in the state file in the reverse of
their creation order. The manifest is not read, the state file is the
single source of what exists.`,
	Args: cobra.NoArgs,
	RunE: runDestroy,
}

func init() {
	destroyCmd.Flags().BoolVar(&destroyAutoApprove, "auto-approve", false, "Skip interactive approval before destroying")
}

func runDestroy(cmd *cobra.Command, args []string) error {
	eng, err := newEngine(cmd, args)
	if err != nil {
		return err
	}

	snap, err := eng.Store().Load()
	if err != nil {
		return err
	}

	if len(snap.Resources) == 0 {
		fmt.Println("Nothing to destroy, the state is empty.")
		return nil
	}

	for i := len(snap.Resources) - 1; i >= 0; i-- {
		fmt.Printf("  - %s\n", snap.Resources[i].ID)
	}

	if !destroyAutoApprove {
		ok, err := confirm("\nDo you really want to destroy these resources?")
		if err != nil {
			return err
		}

		if !ok {
			fmt.Println("Destroy cancelled.")
			return nil
		}
	}

	if err := eng.Destroy(cmd.Context()); err != nil {
		return err
	}

	fmt.Printf("\nDestroy complete. Resources: %d deleted.\n", len(snap.Resources))

	return nil
}
