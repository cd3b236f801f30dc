package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"feedreach/pkg/auth"
	"feedreach/pkg/browser"
	"feedreach/pkg/catalog"
	"feedreach/pkg/config"
	"feedreach/pkg/crawler"
	"feedreach/pkg/extract"
	"feedreach/pkg/logger"
	"feedreach/pkg/ui"
)

var (
	// Crawl command flags
	catalogPath   string
	outputPath    string
	categories    []string
	headless      bool
	maxScrolls    int
	scrollPause   time.Duration
	queryDelay    time.Duration
	categoryDelay time.Duration
	searchURL     string
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Harvest contact emails from feed search results",
	Long: `Log into the feed and crawl every search query in the catalog, harvesting
email addresses from post text into the contact CSV.

The catalog is a JSON file mapping category names to lists of search queries:

  {
    "internship_searches": ["hiring interns email", "summer internship apply"],
    "entry_level_searches": ["junior developer role email"]
  }

Categories are crawled in file order. One failing query never aborts the
run; it contributes zero contacts and the crawl moves on. The output file
is rewritten from scratch on every run.

Feed credentials come from 'feedreach auth login feed', the
FEEDREACH_FEED_EMAIL/FEEDREACH_FEED_PASSWORD environment variables, or an
interactive prompt.`,
	Example: `  # Crawl every category in queries.json
  feedreach crawl

  # Crawl only one category, visibly, with a deeper scroll
  feedreach crawl --categories internship_searches --max-scrolls 30

  # Custom catalog and output
  feedreach crawl --catalog my_queries.json --output contacts.csv`,
	Args: cobra.NoArgs,
	Run:  runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	crawlCmd.Flags().StringVar(&catalogPath, "catalog", "", "query catalog JSON file (default: queries.json)")
	crawlCmd.Flags().StringVarP(&outputPath, "output", "o", "", "contact CSV to write (default: mail.csv)")
	crawlCmd.Flags().StringSliceVar(&categories, "categories", nil, "crawl only these categories (default: all)")
	crawlCmd.Flags().BoolVar(&headless, "headless", false, "run the browser without a window")
	crawlCmd.Flags().IntVar(&maxScrolls, "max-scrolls", 0, "maximum scrolls per query")
	crawlCmd.Flags().DurationVar(&scrollPause, "scroll-pause", 0, "wait after each scroll")
	crawlCmd.Flags().DurationVar(&queryDelay, "query-delay", -1, "pause between queries")
	crawlCmd.Flags().DurationVar(&categoryDelay, "category-delay", -1, "pause between categories")
	crawlCmd.Flags().StringVar(&searchURL, "base-url", "", "search URL template containing {query}")
}

func runCrawl(cmd *cobra.Command, args []string) {
	flags := make(map[string]interface{})
	if catalogPath != "" {
		flags["catalog"] = catalogPath
	}
	if outputPath != "" {
		flags["output"] = outputPath
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	if maxScrolls > 0 {
		flags["max-scrolls"] = maxScrolls
	}
	if scrollPause > 0 {
		flags["scroll-pause"] = scrollPause
	}
	if queryDelay >= 0 {
		flags["query-delay"] = queryDelay
	}
	if categoryDelay >= 0 {
		flags["category-delay"] = categoryDelay
	}
	if searchURL != "" {
		flags["base-url"] = searchURL
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
	log := logger.GetLogger()
	log.WithField("version", version).Info("feedreach crawl starting")

	cat, err := catalog.Load(cfg.Crawl.Catalog)
	if err != nil {
		ui.PrintError("Failed to load query catalog", err.Error())
		os.Exit(1)
	}
	if len(categories) > 0 {
		cat = cat.Filter(categories)
		if cat.QueryCount() == 0 {
			ui.PrintError("No matching categories in catalog", "")
			os.Exit(1)
		}
	}
	ui.PrintInfo("Catalog", cfg.Crawl.Catalog)
	ui.PrintInfo("Output", cfg.Crawl.Output)

	credManager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}
	account, err := credManager.RetrieveOrPrompt(auth.AccountFeed, "Feed email", "Feed password")
	if err != nil {
		ui.PrintError("No feed credentials", err.Error())
		os.Exit(1)
	}

	session, err := browser.NewSession(browser.Config{
		Headless:    cfg.Crawl.Headless,
		UserAgent:   cfg.Feed.UserAgent,
		LoginURL:    cfg.Feed.LoginURL,
		ScrollPause: cfg.Crawl.ScrollPause,
		Logger:      log,
	})
	if err != nil {
		ui.PrintError("Failed to launch browser", err.Error())
		os.Exit(1)
	}
	defer session.Close()

	login := crawler.NewSessionLogin(session, cfg.Crawl.LoginRetries, cfg.Crawl.LoginBackoff, cfg.Crawl.LoginTimeout, log)
	sink := crawler.NewSink(cfg.Crawl.Output)
	orch := crawler.New(session, login, extract.Contacts, sink, crawler.Options{
		SearchURL:     cfg.Feed.SearchURL,
		MaxScrolls:    cfg.Crawl.MaxScrolls,
		SettleDelay:   cfg.Crawl.SettleDelay,
		QueryDelay:    cfg.Crawl.QueryDelay,
		CategoryDelay: cfg.Crawl.CategoryDelay,
	}, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := orch.Run(ctx, account.Email, account.Password, cat)
	if err != nil {
		log.WithError(err).Error("crawl failed")
		ui.PrintError("Crawl failed", err.Error())
		os.Exit(1)
	}

	ui.PrintSummary("Crawl complete", map[string]int{
		"Categories":     len(cat.Categories()),
		"Queries":        cat.QueryCount(),
		"Emails found":   result.Found,
		"Rows saved":     result.Saved,
		"Failed queries": result.FailedQueries,
	}, []string{"Categories", "Queries", "Emails found", "Rows saved", "Failed queries"})
	ui.PrintSuccess("Contacts written to " + cfg.Crawl.Output)
}
