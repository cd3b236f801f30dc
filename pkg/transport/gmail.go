package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	errs "feedreach/pkg/errors"
)

// GmailSender delivers messages via the Gmail API using OAuth2. The first
// run walks the desktop consent flow and caches the token; subsequent runs
// refresh it silently.
type GmailSender struct {
	service *gmail.Service
	sender  string // "me" unless an explicit From is configured
}

// NewGmailSender builds a Gmail API transport. A missing credentials file
// is the immediately-fatal missing-credential condition: it cannot be
// fixed by retrying.
func NewGmailSender(ctx context.Context, credentialsFile, tokenFile, sender string) (*GmailSender, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrorTypeCredentials,
				fmt.Sprintf("missing %s; create an OAuth client (Desktop app) and download it", credentialsFile), err)
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	oauthCfg, err := google.ConfigFromJSON(data, gmail.GmailSendScope)
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeCredentials, "failed to parse credentials file", err)
	}

	token, err := loadToken(tokenFile)
	if err != nil {
		token, err = tokenFromConsentFlow(ctx, oauthCfg)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokenFile, token); err != nil {
			return nil, err
		}
	}

	client := oauthCfg.Client(ctx, token)
	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}

	if sender == "" {
		sender = "me"
	}

	return &GmailSender{service: service, sender: sender}, nil
}

// Send delivers one message as a base64url raw upload
func (g *GmailSender) Send(ctx context.Context, msg Message) error {
	m, err := buildMessage(msg)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, "failed to encode message", err)
	}

	raw := base64.URLEncoding.EncodeToString(buf.Bytes())
	_, err = g.service.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return classifyGmailError(err)
	}

	return nil
}

// classifyGmailError maps API failures onto the error taxonomy
func classifyGmailError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return errs.Wrap(errs.ErrorTypeRateLimit, "gmail rate limit", err)
		case apiErr.Code >= 500:
			return errs.Wrap(errs.ErrorTypeNetwork, "gmail server error", err)
		default:
			return errs.Wrap(errs.ErrorTypeRejected, "message rejected by gmail", err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return errs.Wrap(errs.ErrorTypeNetwork, "network failure during send", err)
	}

	return errs.Wrap(errs.ErrorTypeNetwork, "send failed", err)
}

// loadToken reads a cached OAuth token
func loadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, err
	}
	return token, nil
}

// saveToken caches the OAuth token for subsequent runs
func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to cache oauth token: %w", err)
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(token)
}

// tokenFromConsentFlow asks the user to authorize in a browser and paste
// the resulting code back
func tokenFromConsentFlow(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
	authURL := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Open the following link in your browser, then paste the authorization code:\n%v\n> ", authURL)

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read authorization code: %w", err)
	}

	token, err := cfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, errs.Wrap(errs.ErrorTypeAuth, "failed to exchange authorization code", err)
	}
	return token, nil
}
