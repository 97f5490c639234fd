// Package secrets resolves credentials from the OS keychain with an
// environment variable fallback, so tokens never live in the config file.
package secrets

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// keyringService groups this app's secrets in the OS keychain.
const keyringService = "jobbot"

const (
	AccountTelegramToken = "telegram-bot-token"
	AccountSerpAPIKey    = "serpapi-key"
)

// Get looks up account in the keychain first, then falls back to envVar.
// A missing secret returns "", nil; callers treat absence as "feature off".
func Get(account, envVar string) (string, error) {
	pw, err := keyring.Get(keyringService, account)
	if err == nil && strings.TrimSpace(pw) != "" {
		return pw, nil
	}
	if err != nil && err != keyring.ErrNotFound {
		// headless machines have no keychain backend at all; treat that
		// like an absent entry so the env fallback still decides
		log.Printf("[secrets] keyring get %s: %v", account, err)
	}
	return strings.TrimSpace(os.Getenv(envVar)), nil
}

// Set stores a secret in the keychain.
func Set(account, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("empty secret for %s", account)
	}
	return keyring.Set(keyringService, account, value)
}

// Delete removes a secret from the keychain.
func Delete(account string) error {
	return keyring.Delete(keyringService, account)
}

// IMAPAccount names the keychain entry for a mailbox credential.
func IMAPAccount(username, host string) string {
	return fmt.Sprintf("imap:%s@%s", username, host)
}
