package main

import (
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"feedreach/pkg/auth"
	"feedreach/pkg/campaign"
	"feedreach/pkg/config"
	errs "feedreach/pkg/errors"
	"feedreach/pkg/logger"
	"feedreach/pkg/transport"
	"feedreach/pkg/ui"
)

var (
	// Send command flags
	csvPath       string
	attachment    string
	sendDelay     time.Duration
	dryRun        bool
	sendLimit     int
	filterDate    string
	sentLogPath   string
	resetLog      bool
	transportName string
	senderAddr    string
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Run an email campaign against the harvested contacts",
	Long: `Send one templated email to every address in the contact CSV that has
not been contacted before.

Each successful delivery is appended to the sent log before the next send
starts, so an interrupted campaign resumes exactly where it stopped and an
address is never emailed twice, even across runs against regenerated CSVs.
The message template is chosen per recipient by the category recorded at
harvest time.

Transports:
  smtp   authenticated SMTP over TLS (default; credentials via
         'feedreach auth login sender')
  gmail  Gmail API with OAuth2 (needs credentials.json; the first run walks
         the browser consent flow and caches token.json)`,
	Example: `  # Preview without sending anything
  feedreach send --dry-run

  # Full campaign with a CV attached, one mail per 10s
  feedreach send --attachment cv.pdf --delay 10s

  # Only the first 50 new recipients harvested on a given date
  feedreach send --limit 50 --date 2026-08-30

  # Start over: wipe the sent log, then send via the Gmail API
  feedreach send --reset-log --transport gmail`,
	Args: cobra.NoArgs,
	Run:  runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVar(&csvPath, "csv", "", "contact CSV to read (default: mail.csv)")
	sendCmd.Flags().StringVar(&attachment, "attachment", "", "file to attach to every message")
	sendCmd.Flags().DurationVar(&sendDelay, "delay", -1, "pause between sends")
	sendCmd.Flags().BoolVar(&dryRun, "dry-run", false, "render messages without sending or recording")
	sendCmd.Flags().IntVar(&sendLimit, "limit", 0, "send to at most this many new recipients (0 = no limit)")
	sendCmd.Flags().StringVar(&filterDate, "date", "", "only rows harvested on this date (YYYY-MM-DD)")
	sendCmd.Flags().StringVar(&sentLogPath, "sent-log", "", "sent ledger path (default: sent_emails.log)")
	sendCmd.Flags().BoolVar(&resetLog, "reset-log", false, "delete the sent ledger before running")
	sendCmd.Flags().StringVar(&transportName, "transport", "", "delivery transport: smtp or gmail")
	sendCmd.Flags().StringVar(&senderAddr, "sender", "", "From address (default: the sender account email)")
}

func runSend(cmd *cobra.Command, args []string) {
	flags := make(map[string]interface{})
	if csvPath != "" {
		flags["csv"] = csvPath
	}
	if attachment != "" {
		flags["attachment"] = attachment
	}
	if sendDelay >= 0 {
		flags["delay"] = sendDelay
	}
	if sendLimit > 0 {
		flags["limit"] = sendLimit
	}
	if sentLogPath != "" {
		flags["sent-log"] = sentLogPath
	}
	if transportName != "" {
		flags["transport"] = transportName
	}
	if senderAddr != "" {
		flags["sender"] = senderAddr
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
	log.WithField("version", version).Info("feedreach send starting")

	rows, err := campaign.ReadRows(cfg.Campaign.CSV, filterDate)
	if err != nil {
		var typed *errs.Error
		if errors.As(err, &typed) && typed.Type == errs.ErrorTypeNotFound {
			ui.PrintWarning("No contact file at %s; run 'feedreach crawl' first", cfg.Campaign.CSV)
			return
		}
		ui.PrintError("Failed to read contact CSV", err.Error())
		os.Exit(1)
	}
	recipients := campaign.Resolve(rows)
	if len(recipients) == 0 {
		ui.PrintWarning("No recipients in %s", cfg.Campaign.CSV)
		return
	}
	ui.PrintInfo("Recipients", strconv.Itoa(len(recipients)))

	ledger := campaign.NewLedger(cfg.Campaign.SentLog)
	if resetLog {
		if err := ledger.Reset(); err != nil {
			ui.PrintError("Failed to reset sent log", err.Error())
			os.Exit(1)
		}
		ui.PrintWarning("Sent log %s cleared", cfg.Campaign.SentLog)
	}

	composer := campaign.NewComposer(composerTemplates(cfg), cfg.Campaign.DefaultCategory)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sender transport.Transport
	from := cfg.Campaign.Sender
	if !dryRun {
		switch cfg.Campaign.Transport {
		case "gmail":
			sender, err = transport.NewGmailSender(ctx, cfg.Gmail.CredentialsFile, cfg.Gmail.TokenFile, from)
			if err != nil {
				ui.PrintError("Failed to set up Gmail transport", err.Error())
				os.Exit(1)
			}
		default:
			credManager, err := auth.NewManager()
			if err != nil {
				ui.PrintError("Failed to initialize credential manager", err.Error())
				os.Exit(1)
			}
			account, err := credManager.RetrieveOrPrompt(auth.AccountSender, "Sender email", "Sender password (app password for Gmail)")
			if err != nil {
				ui.PrintError("No sender credentials", err.Error())
				os.Exit(1)
			}
			if from == "" {
				from = account.Email
			}
			sender = transport.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, account.Email, account.Password)
		}
	}

	runner := campaign.NewRunner(sender, ledger, composer, campaign.Options{
		Sender:     from,
		Attachment: cfg.Campaign.Attachment,
		Delay:      cfg.Campaign.Delay,
		Limit:      cfg.Campaign.Limit,
		DryRun:     dryRun,
		MaxRetries: cfg.Campaign.MaxRetries,
		RetryDelay: cfg.Campaign.RetryDelay,
	}, log)

	result, err := runner.Run(ctx, recipients)
	if err != nil {
		log.WithError(err).Error("campaign failed")
		ui.PrintError("Campaign failed", err.Error())
		os.Exit(1)
	}

	if dryRun {
		ui.PrintSummary("Dry run complete", map[string]int{
			"Recipients":   result.Total,
			"Already sent": result.Skipped,
			"Would send":   result.Previewed,
		}, []string{"Recipients", "Already sent", "Would send"})
		return
	}

	ui.PrintSummary("Campaign complete", map[string]int{
		"Recipients":   result.Total,
		"Already sent": result.Skipped,
		"Sent":         result.Sent,
		"Failed":       result.Failed,
	}, []string{"Recipients", "Already sent", "Sent", "Failed"})
	if result.Failed > 0 {
		ui.PrintWarning("%d sends failed; rerun to retry them", result.Failed)
	} else {
		ui.PrintSuccess("All messages delivered")
	}
}

// composerTemplates converts configured templates to campaign templates,
// falling back to the built-in set when none are configured
func composerTemplates(cfg *config.Config) map[string]campaign.Template {
	if len(cfg.Campaign.Templates) == 0 {
		return nil
	}
	templates := make(map[string]campaign.Template, len(cfg.Campaign.Templates))
	for category, t := range cfg.Campaign.Templates {
		templates[category] = campaign.Template{Subject: t.Subject, Body: t.Body}
	}
	return templates
}
