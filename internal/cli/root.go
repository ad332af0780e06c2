package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stackform-io/stackform/internal/engine"
	"github.com/stackform-io/stackform/internal/provider"
	"github.com/stackform-io/stackform/internal/provider/aws"
	"github.com/stackform-io/stackform/logger"
)

var (
	flagState    string
	flagVars     []string
	flagVarFiles []string
	flagProvider string
	flagRegion   string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "stackform",
	Short: "Declarative infrastructure from HCL manifests",
	Long: `Stackform reads HCL manifests describing networks, subnets, gateways,
route tables, security groups, instances and key pairs, resolves the
references between them and converges the described infrastructure
through a provider.

State is recorded in a local JSON file so subsequent runs only change
what drifted from the manifest.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagState, "state", "stackform.state.json", "Path to the state file")
	pf.StringArrayVar(&flagVars, "var", nil, "Set a variable (format: key=value), may be repeated")
	pf.StringArrayVar(&flagVarFiles, "var-file", nil, "Read variables from a .vars file, may be repeated")
	pf.StringVar(&flagProvider, "provider", "memory", "Provider used to converge resources (memory, aws)")
	pf.StringVar(&flagRegion, "region", "us-east-1", "Region used by the aws provider")
	pf.StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(destroyCmd)
	rootCmd.AddCommand(outputCmd)
}

// manifestPath returns the manifest file or directory for a command,
// the first positional argument when given, the working directory
// otherwise.
func manifestPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}

	return "."
}

// parseVarFlags splits repeated key=value flags into a map
func parseVarFlags(vars []string) (map[string]string, error) {
	out := map[string]string{}

	for _, v := range vars {
		parts := strings.SplitN(v, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid variable %q, expected format key=value", v)
		}

		out[parts[0]] = parts[1]
	}

	return out, nil
}

// newEngine builds an engine from the global flags, registering the
// providers the run can use. The aws provider is only constructed when
// selected so the other commands never touch credential resolution.
func newEngine(cmd *cobra.Command, args []string) (*engine.Engine, error) {
	vars, err := parseVarFlags(flagVars)
	if err != nil {
		return nil, err
	}

	log := logger.NewLogger(os.Stderr, flagLogLevel)

	registry := provider.NewRegistry()
	registry.Register(provider.NewMemory())

	if flagProvider == "aws" {
		p, err := aws.New(cmd.Context(), flagRegion, log)
		if err != nil {
			return nil, fmt.Errorf("unable to configure aws provider: %w", err)
		}

		registry.Register(p)
	}

	opts := engine.Options{
		ManifestPath:   manifestPath(args),
		StatePath:      flagState,
		Provider:       flagProvider,
		Variables:      vars,
		VariablesFiles: flagVarFiles,
		Logger:         log,
	}

	return engine.New(opts, registry), nil
}
