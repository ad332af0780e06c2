package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"github.com/stackform-io/stackform/internal/state"
)

var (
	outputJSON          bool
	outputShowSensitive bool
)

var outputCmd = &cobra.Command{
	Use:   "output [name]",
	Short: "Show output values from state",
	Long: `Reads output values from the state file. Without a name all outputs
are listed, sensitive values are masked unless --show-sensitive is
given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOutput,
}

func init() {
	outputCmd.Flags().BoolVar(&outputJSON, "json", false, "Print outputs as JSON")
	outputCmd.Flags().BoolVar(&outputShowSensitive, "show-sensitive", false, "Print sensitive values instead of masking them")
}

func runOutput(cmd *cobra.Command, args []string) error {
	eng, err := newEngine(cmd, nil)
	if err != nil {
		return err
	}

	outputs, err := eng.Outputs()
	if err != nil {
		return err
	}

	if len(args) > 0 {
		name := args[0]

		o, ok := outputs[name]
		if !ok {
			return fmt.Errorf("output %q not found in state", name)
		}

		fmt.Println(renderOutput(o))
		return nil
	}

	if len(outputs) == 0 {
		fmt.Println("No outputs recorded in state.")
		return nil
	}

	if outputJSON {
		vals := map[string]interface{}{}
		for k, o := range outputs {
			if o.Sensitive && !outputShowSensitive {
				vals[k] = "(sensitive)"
				continue
			}

			vals[k] = o.Value
		}

		data, err := json.MarshalIndent(vals, "", "  ")
		if err != nil {
			return err
		}

		fmt.Println(string(data))
		return nil
	}

	names := make([]string, 0, len(outputs))
	for k := range outputs {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, k := range names {
		fmt.Printf("%s = %s\n", k, renderOutput(outputs[k]))
	}

	return nil
}

func renderOutput(o state.OutputState) string {
	if o.Sensitive && !outputShowSensitive {
		return "(sensitive)"
	}

	return fmt.Sprintf("%v", o.Value)
}
