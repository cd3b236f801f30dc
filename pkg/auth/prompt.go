package auth

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"
)

// PromptAccount interactively asks for an account's email and password.
// The password is read without echo.
func PromptAccount(name, emailLabel, passwordLabel string) (*Account, error) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("%s: ", emailLabel)
	email, err := reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read email: %w", err)
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrInvalidCredentials
	}

	fmt.Printf("%s: ", passwordLabel)
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimSpace(string(passwordBytes))
	if password == "" {
		return nil, ErrInvalidCredentials
	}

	return &Account{
		Name:         name,
		Email:        email,
		Password:     password,
		LastModified: time.Now(),
	}, nil
}
