package main

import (
	"os"

	"github.com/dejikatsu/dejiryu/internal/constants"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dejiryu",
	Short: "DejiRyu - community companion bot for Telegram",
	Long: `DejiRyu is the scheduled companion bot of a Japanese AI learning
community. It posts self-intro digests, morning AI news, weekly reaction
rankings, achievement roundups, exclusive content drops, consultation
prompts and event reminders on a fixed wall-clock schedule.`,
	Version: Version,
}

// resolveConfigPath picks the configuration file: an explicit flag or
// argument wins, then the DEJIRYU_CONFIG_PATH environment override, then the
// default path.
func resolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if fromEnv := os.Getenv("DEJIRYU_CONFIG_PATH"); fromEnv != "" {
		return fromEnv
	}

	return constants.DefaultConfigPath
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(stateCmd)
}
