package secrets

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestGetFallsBackToEnv(t *testing.T) {
	keyring.MockInit()
	t.Setenv("JOBBOT_TEST_TOKEN", "from-env")

	got, err := Get("test-token", "JOBBOT_TEST_TOKEN")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "from-env" {
		t.Fatalf("got %q, want env value", got)
	}
}

func TestGetPrefersKeyring(t *testing.T) {
	keyring.MockInit()
	if err := Set("test-token", "from-keyring"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	t.Setenv("JOBBOT_TEST_TOKEN", "from-env")

	got, err := Get("test-token", "JOBBOT_TEST_TOKEN")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "from-keyring" {
		t.Fatalf("got %q, want keyring value", got)
	}
}

// A host without a keychain backend (headless, container) must behave like an
// absent entry, not an error: env wins if set, otherwise the feature is off.
func TestGetBrokenBackendIsAbsence(t *testing.T) {
	keyring.MockInitWithError(errors.New("no secret service available"))

	t.Setenv("JOBBOT_TEST_TOKEN", "from-env")
	got, err := Get("test-token", "JOBBOT_TEST_TOKEN")
	if err != nil {
		t.Fatalf("Get with env set: %v", err)
	}
	if got != "from-env" {
		t.Fatalf("got %q, want env value", got)
	}

	t.Setenv("JOBBOT_TEST_TOKEN", "")
	got, err = Get("test-token", "JOBBOT_TEST_TOKEN")
	if err != nil {
		t.Fatalf("Get with nothing set: %v", err)
	}
	if got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}
