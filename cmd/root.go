package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/crossmaphq/crossmap/pkg/buildinfo"
	"github.com/crossmaphq/crossmap/pkg/exitcode"
	"github.com/crossmaphq/crossmap/pkg/logger"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crossmap",
		Short: "Map cross-repository references across local git clones",
		Long: `Crossmap scans a directory of git clones for references between the
repositories (go.mod requires, workflow uses: lines, owner/name mentions in
docs) and aggregates them into an evidence-backed dependency map.

Examples:
   crossmap scan ~/src            # Map every repo under ~/src
   crossmap scan --org acme .     # Also match bare acme/<repo> references
   crossmap version               # Show version (use --extended for build info)
   crossmap envinfo               # Show system and searcher information`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	// Add global flags
	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	// Wire Cobra's built-in --version using crossmap's binary version
	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("crossmap {{.Version}}\n")

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
// This is called from init() for production and can be called explicitly in tests.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(newScanCommand())
	cmd.AddCommand(newVersionCommand())
	cmd.AddCommand(newEnvinfoCommand())
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		logger.Error("Command execution failed", logger.Err(err))
		os.Exit(exitcode.GeneralError)
	}
}

func init() {
	registerSubcommands(rootCmd)
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	config := logger.Config{
		Level:     logger.ParseLevel(logLevelStr),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "crossmap",
	}

	if err := logger.Initialize(config); err != nil {
		// Fallback to stderr
		if _, writeErr := os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n"); writeErr != nil {
			_ = writeErr
		}
		os.Exit(exitcode.ConfigError)
	}
}
