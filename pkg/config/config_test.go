package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Contains(t, cfg.Feed.SearchURL, "{query}")
	assert.NotEmpty(t, cfg.Feed.LoginURL)
	assert.Equal(t, "queries.json", cfg.Crawl.Catalog)
	assert.Equal(t, "mail.csv", cfg.Crawl.Output)
	assert.False(t, cfg.Crawl.Headless)
	assert.Equal(t, 15, cfg.Crawl.MaxScrolls)
	assert.Equal(t, "mail.csv", cfg.Campaign.CSV)
	assert.Equal(t, "sent_emails.log", cfg.Campaign.SentLog)
	assert.Equal(t, "smtp", cfg.Campaign.Transport)
	assert.Equal(t, "entry_level_searches", cfg.Campaign.DefaultCategory)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTP.Host)
	assert.Equal(t, 465, cfg.SMTP.Port)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	content := `
feed:
  search_url: "https://other.example/search?q={query}"
crawl:
  catalog: custom.json
  max_scrolls: 25
campaign:
  transport: gmail
  templates:
    internship_searches:
      subject: "Custom subject"
      body: "Custom body for {query}"
logging:
  level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "https://other.example/search?q={query}", cfg.Feed.SearchURL)
	assert.Equal(t, "custom.json", cfg.Crawl.Catalog)
	assert.Equal(t, 25, cfg.Crawl.MaxScrolls)
	assert.Equal(t, "gmail", cfg.Campaign.Transport)
	assert.Equal(t, "Custom subject", cfg.Campaign.Templates["internship_searches"].Subject)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched keys keep their defaults
	assert.Equal(t, "mail.csv", cfg.Crawl.Output)
	assert.Equal(t, "sent_emails.log", cfg.Campaign.SentLog)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FEEDREACH_CATALOG", "env.json")
	t.Setenv("FEEDREACH_MAX_SCROLLS", "42")
	t.Setenv("FEEDREACH_TRANSPORT", "gmail")
	t.Setenv("FEEDREACH_SMTP_PORT", "587")
	t.Setenv("FEEDREACH_LOG_LEVEL", "warn")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "env.json", cfg.Crawl.Catalog)
	assert.Equal(t, 42, cfg.Crawl.MaxScrolls)
	assert.Equal(t, "gmail", cfg.Campaign.Transport)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadFromEnvIgnoresBadNumbers(t *testing.T) {
	t.Setenv("FEEDREACH_MAX_SCROLLS", "not-a-number")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())
	assert.Equal(t, 15, cfg.Crawl.MaxScrolls)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"catalog":    "flag.json",
		"headless":   true,
		"limit":      50,
		"delay":      9 * time.Second,
		"transport":  "gmail",
		"sent-log":   "other.log",
		"log-level":  "debug",
		"attachment": "cv.pdf",
	})

	assert.Equal(t, "flag.json", cfg.Crawl.Catalog)
	assert.True(t, cfg.Crawl.Headless)
	assert.Equal(t, 50, cfg.Campaign.Limit)
	assert.Equal(t, 9*time.Second, cfg.Campaign.Delay)
	assert.Equal(t, "gmail", cfg.Campaign.Transport)
	assert.Equal(t, "other.log", cfg.Campaign.SentLog)
	assert.Equal(t, "cv.pdf", cfg.Campaign.Attachment)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"missing login url", func(c *Config) { c.Feed.LoginURL = "" }, false},
		{"search url without placeholder", func(c *Config) { c.Feed.SearchURL = "https://x.example/search" }, false},
		{"zero max scrolls", func(c *Config) { c.Crawl.MaxScrolls = 0 }, false},
		{"negative campaign delay", func(c *Config) { c.Campaign.Delay = -time.Second }, false},
		{"unknown transport", func(c *Config) { c.Campaign.Transport = "carrier-pigeon" }, false},
		{"missing sent log", func(c *Config) { c.Campaign.SentLog = "" }, false},
		{"smtp port out of range", func(c *Config) { c.SMTP.Port = 70000 }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, false},
		{"gmail transport", func(c *Config) { c.Campaign.Transport = "gmail" }, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig()
			test.mutate(cfg)
			if test.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	orig := DefaultConfig()
	orig.Crawl.MaxScrolls = 99
	orig.Campaign.Limit = 7
	require.NoError(t, orig.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 99, loaded.Crawl.MaxScrolls)
	assert.Equal(t, 7, loaded.Campaign.Limit)
}
