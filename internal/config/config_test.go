package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	xerrors "ChainDrip/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "dripd.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("log level = %s", cfg.Log.Level)
	}
	if cfg.LLM.Provider != "openai" || cfg.LLM.OpenAI.APIKeyEnv != "OPENAI_API_KEY" {
		t.Fatalf("llm defaults not applied: %+v", cfg.LLM)
	}
	if cfg.Chains.PrivateKeyEnv != "DRIPD_PRIVATE_KEY" {
		t.Fatalf("private key env = %s", cfg.Chains.PrivateKeyEnv)
	}
	wantCatalog := filepath.Join(filepath.Dir(path), "chains.yaml")
	if cfg.Chains.Catalog != wantCatalog {
		t.Fatalf("catalog = %s, want %s", cfg.Chains.Catalog, wantCatalog)
	}
}

func TestLoadResolvesRelativePaths(t *testing.T) {
	path := writeConfig(t, `{
		"chains": {"catalog": "networks/testnets.yaml"},
		"log": {"audit": {"enabled": true, "path": "logs/audit.log"}}
	}`)
	base := filepath.Dir(path)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Chains.Catalog != filepath.Join(base, "networks/testnets.yaml") {
		t.Fatalf("catalog = %s", cfg.Chains.Catalog)
	}
	if cfg.Log.Audit.Path != filepath.Join(base, "logs/audit.log") {
		t.Fatalf("audit path = %s", cfg.Log.Audit.Path)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	if _, err := Load(""); !xerrors.IsCode(err, xerrors.CodeConfigInvalid) {
		t.Fatalf("empty path: expected CONFIG_INVALID, got %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); !xerrors.IsCode(err, xerrors.CodeConfigInvalid) {
		t.Fatalf("missing file: expected CONFIG_INVALID, got %v", err)
	}
	if _, err := Load(writeConfig(t, "{not json")); !xerrors.IsCode(err, xerrors.CodeConfigInvalid) {
		t.Fatalf("invalid json: expected CONFIG_INVALID, got %v", err)
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"llm": {"openai": {"timeout_seconds": 30}},
		"faucet": {"poll_interval_seconds": 3, "confirm_wait_seconds": 90}
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.OpenAI.Timeout() != 30*time.Second {
		t.Fatalf("llm timeout = %s", cfg.LLM.OpenAI.Timeout())
	}
	if cfg.Faucet.PollInterval() != 3*time.Second {
		t.Fatalf("poll interval = %s", cfg.Faucet.PollInterval())
	}
	if cfg.Faucet.ConfirmWait() != 90*time.Second {
		t.Fatalf("confirm wait = %s", cfg.Faucet.ConfirmWait())
	}
	if (FaucetConfig{}).PollInterval() != 0 || (OpenAIConfig{}).Timeout() != 0 {
		t.Fatal("unset durations must stay zero")
	}
}

func TestPrivateKeyHex(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"chains": {"private_key_env": "TEST_DRIP_KEY"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := cfg.PrivateKeyHex(); !xerrors.IsCode(err, xerrors.CodeConfigInvalid) {
		t.Fatalf("unset env: expected CONFIG_INVALID, got %v", err)
	}

	t.Setenv("TEST_DRIP_KEY", "not-a-key")
	if _, err := cfg.PrivateKeyHex(); !xerrors.IsCode(err, xerrors.CodeConfigInvalid) {
		t.Fatalf("malformed key: expected CONFIG_INVALID, got %v", err)
	}

	key := "0x" + strings.Repeat("ab", 32)
	t.Setenv("TEST_DRIP_KEY", key)
	got, err := cfg.PrivateKeyHex()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != key {
		t.Fatalf("key = %s", got)
	}
}

func TestOpenAIKey(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{"llm": {"openai": {"api_key_env": "TEST_DRIP_OPENAI"}}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := cfg.OpenAIKey(); !xerrors.IsCode(err, xerrors.CodeConfigInvalid) {
		t.Fatalf("unset env: expected CONFIG_INVALID, got %v", err)
	}

	t.Setenv("TEST_DRIP_OPENAI", "sk-test")
	key, err := cfg.OpenAIKey()
	if err != nil || key != "sk-test" {
		t.Fatalf("key = %q, err = %v", key, err)
	}
}
