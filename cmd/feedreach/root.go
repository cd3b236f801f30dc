package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"feedreach/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "feedreach",
	Short: "Harvest contact emails from a social feed and run outreach campaigns",
	Long: `feedreach is a two-phase outreach tool.

The crawl phase logs into a social feed, walks a catalog of search queries,
and harvests email addresses found in post text into a contact CSV. The send
phase turns that CSV into a deduplicated, rate-limited email campaign that
is safe to interrupt and resume: every delivered address is recorded in an
append-only sent log and never contacted twice.

Typical workflow:
  feedreach auth login feed       store feed credentials
  feedreach crawl                 harvest contacts into mail.csv
  feedreach send --dry-run        preview the campaign
  feedreach auth login sender     store mail credentials
  feedreach send                  run the campaign
  feedreach analyze --detailed    inspect what was harvested`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .feedreach.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`feedreach {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
