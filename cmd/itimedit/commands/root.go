// Package commands provides the CLI commands for the iTimedIT client.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	printLogs bool
	logLevel  string
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "itimedit",
	Short: "iTimedIT - track time against projects from the terminal",
	Long: `iTimedIT tracks work time against projects, with personal and team
workspaces, pomodoro interrupts and project budget warnings.

Run 'itimedit track <projectID>' to start a session, or 'itimedit status'
to inspect the current one.`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand, show help
		cmd.Help()
	},
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().BoolVar(&printLogs, "print-logs", false, "Print logs to stderr")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "Config directory override")

	// Version template
	rootCmd.SetVersionTemplate(fmt.Sprintf("itimedit %s (%s)\n", Version, BuildTime))

	// Add subcommands
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(ackCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(workspaceCmd)
	rootCmd.AddCommand(favoritesCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetWorkDir returns the working directory from flag or current directory.
func GetWorkDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	return os.Getwd()
}
