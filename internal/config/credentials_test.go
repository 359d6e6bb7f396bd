package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCredentials(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write credentials: %v", err)
	}
	return path
}

func TestLoadAPIKey(t *testing.T) {
	path := writeCredentials(t, "[DEEPSEEK]\nDEEPSEEK_API_KEY = sk-test-abc123\n")

	key, err := LoadAPIKey(path, false)
	if err != nil {
		t.Fatalf("LoadAPIKey: %v", err)
	}
	if key != "sk-test-abc123" {
		t.Errorf("expected sk-test-abc123, got %q", key)
	}
}

func TestLoadAPIKeyWithComments(t *testing.T) {
	path := writeCredentials(t, "; provider credentials\n[DEEPSEEK]\nDEEPSEEK_API_KEY = sk-xyz\n")

	key, err := LoadAPIKey(path, false)
	if err != nil {
		t.Fatalf("LoadAPIKey: %v", err)
	}
	if key != "sk-xyz" {
		t.Errorf("expected sk-xyz, got %q", key)
	}
}

func TestLoadAPIKeyMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope")

	_, err := LoadAPIKey(path, false)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error should name the path, got %v", err)
	}
}

func TestLoadAPIKeyMissingKey(t *testing.T) {
	path := writeCredentials(t, "[OTHER]\nSOME_KEY = value\n")

	_, err := LoadAPIKey(path, false)
	if err == nil {
		t.Fatal("expected error for missing key")
	}
	if !strings.Contains(err.Error(), "DEEPSEEK") && !strings.Contains(err.Error(), "deepseek") {
		t.Errorf("error should name the section, got %v", err)
	}
}

func TestLoadAPIKeyDefaultFallback(t *testing.T) {
	// Missing file with the fallback enabled.
	key, err := LoadAPIKey(filepath.Join(t.TempDir(), "nope"), true)
	if err != nil {
		t.Fatalf("LoadAPIKey with fallback: %v", err)
	}
	if key != InsecureDefaultKey {
		t.Errorf("expected demo key, got %q", key)
	}

	// Present file but missing key, with the fallback enabled.
	path := writeCredentials(t, "[DEEPSEEK]\nUNRELATED = x\n")
	key, err = LoadAPIKey(path, true)
	if err != nil {
		t.Fatalf("LoadAPIKey with fallback: %v", err)
	}
	if key != InsecureDefaultKey {
		t.Errorf("expected demo key, got %q", key)
	}
}
