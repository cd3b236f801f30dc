package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"feedreach/pkg/auth"
	"feedreach/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored credentials",
	Long: `Manage the credentials feedreach uses.

Two accounts exist:
  feed     the social feed login used by the crawl phase
  sender   the SMTP login used by the send phase

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (FEEDREACH_FEED_EMAIL etc., read-only fallback)

Never share your credentials or config files!`,
}

// authLoginCmd represents the auth login command
var authLoginCmd = &cobra.Command{
	Use:   "login <feed|sender>",
	Short: "Store credentials securely",
	Long: `Prompt for an email and password and store them in the system keychain or
the encrypted fallback file.

For the sender account with Gmail SMTP, use an app password, not your real
account password.`,
	Example: `  # Store the feed login
  feedreach auth login feed

  # Store the mail login
  feedreach auth login sender`,
	Args: cobra.ExactArgs(1),
	Run:  runAuthLogin,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Long:  `List all stored accounts with sanitized credential information.`,
	Run:   runAuthList,
}

// authRemoveCmd represents the auth remove command
var authRemoveCmd = &cobra.Command{
	Use:   "remove <feed|sender>",
	Short: "Remove stored credentials",
	Args:  cobra.ExactArgs(1),
	Run:   runAuthRemove,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authRemoveCmd)
}

func accountLabels(name string) (emailLabel, passwordLabel string, err error) {
	switch name {
	case auth.AccountFeed:
		return "Feed email", "Feed password", nil
	case auth.AccountSender:
		return "Sender email", "Sender password (app password for Gmail)", nil
	default:
		return "", "", fmt.Errorf("unknown account %q (expected %s or %s)", name, auth.AccountFeed, auth.AccountSender)
	}
}

func runAuthLogin(cmd *cobra.Command, args []string) {
	name := strings.TrimSpace(args[0])
	emailLabel, passwordLabel, err := accountLabels(name)
	if err != nil {
		ui.PrintError("Invalid account name", err.Error())
		os.Exit(1)
	}

	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	account, err := auth.PromptAccount(name, emailLabel, passwordLabel)
	if err != nil {
		ui.PrintError("Failed to read credentials", err.Error())
		os.Exit(1)
	}

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Credentials for %q stored", name))
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err.Error())
		os.Exit(1)
	}

	if len(accounts) == 0 {
		ui.PrintWarning("No stored accounts. Run 'feedreach auth login feed' to add one.")
		return
	}

	for _, account := range accounts {
		fmt.Printf("  %-8s %s (updated %s)\n", account.Name, account.Email,
			account.LastModified.Format("2006-01-02 15:04"))
	}
}

func runAuthRemove(cmd *cobra.Command, args []string) {
	name := strings.TrimSpace(args[0])
	if _, _, err := accountLabels(name); err != nil {
		ui.PrintError("Invalid account name", err.Error())
		os.Exit(1)
	}

	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	if err := manager.Delete(name); err != nil {
		ui.PrintError("Failed to remove credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Credentials for %q removed", name))
}
