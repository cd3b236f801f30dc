package auth

import (
	"os"
	"strings"
	"time"
)

// EnvironmentStore implements CredentialStore using environment variables.
// Accounts map to FEEDREACH_<NAME>_EMAIL / FEEDREACH_<NAME>_PASSWORD.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

func envKeys(name string) (string, string) {
	upper := strings.ToUpper(name)
	return "FEEDREACH_" + upper + "_EMAIL", "FEEDREACH_" + upper + "_PASSWORD"
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	if name == "" {
		return nil, ErrInvalidCredentials
	}

	emailKey, passwordKey := envKeys(name)
	email := os.Getenv(emailKey)
	password := os.Getenv(passwordKey)

	if email == "" || password == "" {
		return nil, ErrCredentialsNotFound
	}

	return &Account{
		Name:         name,
		Email:        email,
		Password:     password,
		LastModified: time.Now(),
	}, nil
}

// List returns the well-known accounts that are set in the environment
func (e *EnvironmentStore) List() ([]*Account, error) {
	var accounts []*Account
	for _, name := range []string{AccountFeed, AccountSender} {
		if account, err := e.Retrieve(name); err == nil {
			accounts = append(accounts, account)
		}
	}
	return accounts, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}
