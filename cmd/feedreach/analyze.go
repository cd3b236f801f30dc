package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"feedreach/pkg/analyze"
	"feedreach/pkg/campaign"
	"feedreach/pkg/config"
	errs "feedreach/pkg/errors"
	"feedreach/pkg/logger"
	"feedreach/pkg/ui"
)

var (
	// Analyze command flags
	analyzeCSV      string
	analyzeDate     string
	analyzeDetailed bool
	analyzeDates    bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarize the harvested contact CSV",
	Long: `Summarize the contact CSV: row and unique-email counts per category, and
with --detailed a per-query breakdown inside each category.

Use --list-dates to see which harvest dates are present, then --date to
restrict the summary to one of them.`,
	Example: `  # Per-category summary of mail.csv
  feedreach analyze

  # Per-query breakdown for a single harvest date
  feedreach analyze --date 2026-08-30 --detailed

  # Which dates does the file cover?
  feedreach analyze --list-dates`,
	Args: cobra.NoArgs,
	Run:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeCSV, "csv", "", "contact CSV to read (default: mail.csv)")
	analyzeCmd.Flags().StringVar(&analyzeDate, "date", "", "only rows harvested on this date (YYYY-MM-DD)")
	analyzeCmd.Flags().BoolVar(&analyzeDetailed, "detailed", false, "show the per-query breakdown")
	analyzeCmd.Flags().BoolVar(&analyzeDates, "list-dates", false, "list distinct harvest dates and exit")
}

func runAnalyze(cmd *cobra.Command, args []string) {
	flags := make(map[string]interface{})
	if analyzeCSV != "" {
		flags["csv"] = analyzeCSV
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}

	filter := analyzeDate
	if analyzeDates {
		filter = "" // dates are listed across the whole file
	}
	rows, err := campaign.ReadRows(cfg.Campaign.CSV, filter)
	if err != nil {
		var typed *errs.Error
		if errors.As(err, &typed) && typed.Type == errs.ErrorTypeNotFound {
			ui.PrintWarning("No contact file at %s; run 'feedreach crawl' first", cfg.Campaign.CSV)
			return
		}
		ui.PrintError("Failed to read contact CSV", err.Error())
		os.Exit(1)
	}

	if analyzeDates {
		dates := analyze.ListDates(rows)
		if len(dates) == 0 {
			ui.PrintWarning("No dated rows in %s", cfg.Campaign.CSV)
			return
		}
		for _, d := range dates {
			fmt.Println(d)
		}
		return
	}

	if len(rows) == 0 {
		ui.PrintWarning("No rows in %s", cfg.Campaign.CSV)
		return
	}

	report := analyze.Summarize(rows)
	ui.PrintInfo("Rows", strconv.Itoa(report.Rows))
	ui.PrintInfo("Unique emails", strconv.Itoa(report.UniqueTotal))
	if analyzeDetailed {
		analyze.RenderDetailed(os.Stdout, report)
	} else {
		analyze.RenderSummary(os.Stdout, report)
	}
}
