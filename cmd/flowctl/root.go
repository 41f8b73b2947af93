package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vampirenirmal/flowcoord/internal/logging"
)

// Global flag values accessible to all subcommands.
var (
	flagVerbose bool
	flagQuiet   bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "flowctl",
	Short: "Run flow coordinator pipelines from a manifest",
	Long: `flowctl loads a pipeline manifest, resolves its phases against the
built-in module registry, and starts a flow. Inputs are read as JSON
values, one per stdin line; results are printed as JSON lines once the
flow reaches its terminal message.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("verbose") && os.Getenv("FLOWCOORD_VERBOSE") != "" {
			flagVerbose = true
		}
		if !cmd.Flags().Changed("quiet") && os.Getenv("FLOWCOORD_QUIET") != "" {
			flagQuiet = true
		}
		jsonFormat := os.Getenv("FLOWCOORD_LOG_FORMAT") == "json"
		logging.Setup(flagVerbose, flagQuiet, jsonFormat)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose (debug) output (env: FLOWCOORD_VERBOSE)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress all output except errors (env: FLOWCOORD_QUIET)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to a flowcoord.yaml config file")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newModulesCmd())
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
