package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/stackform-io/stackform"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Prepare the working directory",
	Long: `Creates the module cache and the directory holding the state file so
the other commands can run without any further setup.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cache := stackform.DefaultOptions().ModuleCache
	if err := os.MkdirAll(cache, os.ModePerm); err != nil {
		return fmt.Errorf("unable to create module cache %s: %w", cache, err)
	}

	if dir := filepath.Dir(flagState); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("unable to create state directory %s: %w", dir, err)
		}
	}

	fmt.Println("Stackform has been initialized.")
	fmt.Printf("Module cache: %s\n", cache)

	return nil
}
