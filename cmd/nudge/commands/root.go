package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nudge",
	Short: "Nudge - chat reminder service",
	Long: `Nudge is the lifecycle engine behind a chat reminder bot: it parses
"remind me of X on/in Y" expressions, enforces per-user creation quotas,
stores reminders in Redis, and fires them back at the chat relay when due.

The service speaks Redis Pub/Sub on both sides; a thin chat-facing relay
bridges it to the actual chat network.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}
