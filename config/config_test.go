package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoadConfigReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	writeFile(t, path, `{
		"site": "serverfault",
		"tagged": "go",
		"database_path": "data/digest.db",
		"total_questions": 250,
		"page_delay": "250ms",
		"max_retries": 3
	}`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Site != "serverfault" {
		t.Errorf("Site = %q, want serverfault", cfg.Site)
	}
	if cfg.Tagged != "go" {
		t.Errorf("Tagged = %q, want go", cfg.Tagged)
	}
	if cfg.TotalQuestions != 250 {
		t.Errorf("TotalQuestions = %d, want 250", cfg.TotalQuestions)
	}
	if cfg.PageDelay != 250*time.Millisecond {
		t.Errorf("PageDelay = %v, want 250ms", cfg.PageDelay)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	// Unset values keep their defaults
	if cfg.InitialBackoff != 2*time.Second {
		t.Errorf("InitialBackoff = %v, want 2s", cfg.InitialBackoff)
	}
	if want := filepath.Join(dir, "data/digest.db"); cfg.DatabasePath != want {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, want)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(filepath.Join(dir, "absent.json"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.TotalQuestions != 1000 {
		t.Errorf("TotalQuestions = %d, want 1000", cfg.TotalQuestions)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.PageDelay != time.Second {
		t.Errorf("PageDelay = %v, want 1s", cfg.PageDelay)
	}
	if want := filepath.Join(dir, DefaultDatabasePath); cfg.DatabasePath != want {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, want)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	writeFile(t, path, `{"access_token": "from-file", "listen_addr": ":9000"}`)

	t.Setenv(EnvAccessToken, "from-env")
	t.Setenv(EnvAPIKey, "key-env")
	t.Setenv("STACKDIGEST_LISTEN_ADDR", ":9100")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.AccessToken != "from-env" {
		t.Errorf("AccessToken = %q, want from-env", cfg.AccessToken)
	}
	if cfg.APIKey != "key-env" {
		t.Errorf("APIKey = %q, want key-env", cfg.APIKey)
	}
	if cfg.ListenAddr != ":9100" {
		t.Errorf("ListenAddr = %q, want :9100", cfg.ListenAddr)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"site": `},
		{"zero retries", `{"max_retries": 0}`},
		{"negative total", `{"total_questions": -1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			writeFile(t, path, tt.content)
			if _, err := LoadConfig(path); err == nil {
				t.Error("LoadConfig() error = nil, want error")
			}
		})
	}
}

func TestCreateDefaultConfigDoesNotOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	if err := CreateDefaultConfig(path); err != nil {
		t.Fatalf("CreateDefaultConfig() error = %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Tagged != "java" {
		t.Errorf("Tagged = %q, want java", cfg.Tagged)
	}
	if cfg.PageDelay != time.Second {
		t.Errorf("PageDelay = %v after round trip, want 1s", cfg.PageDelay)
	}

	writeFile(t, path, `{"site": "superuser"}`)
	if err := CreateDefaultConfig(path); err != nil {
		t.Fatalf("CreateDefaultConfig() second call error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != `{"site": "superuser"}` {
		t.Errorf("existing config was overwritten: %s", data)
	}
}

func TestStoreAccessTokenKeepsOtherFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	writeFile(t, path, `{"site": "serverfault", "page_delay": "250ms", "oauth_client_id": "1234"}`)

	expiry := time.Unix(1800000000, 0)
	if err := StoreAccessToken(path, "tok-abc", expiry); err != nil {
		t.Fatalf("StoreAccessToken() error = %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.AccessToken != "tok-abc" {
		t.Errorf("AccessToken = %q, want tok-abc", cfg.AccessToken)
	}
	if !cfg.AccessTokenExpiry().Equal(expiry) {
		t.Errorf("AccessTokenExpiry() = %v, want %v", cfg.AccessTokenExpiry(), expiry)
	}
	if cfg.Site != "serverfault" || cfg.PageDelay != 250*time.Millisecond || cfg.OAuthClientID != "1234" {
		t.Errorf("other fields changed: site %q, page delay %v, client id %q", cfg.Site, cfg.PageDelay, cfg.OAuthClientID)
	}

	if err := StoreAccessToken(path, "tok-forever", time.Time{}); err != nil {
		t.Fatalf("StoreAccessToken() error = %v", err)
	}
	cfg, err = LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.AccessToken != "tok-forever" || !cfg.AccessTokenExpiry().IsZero() {
		t.Errorf("token = %q, expiry = %v, want tok-forever without expiry", cfg.AccessToken, cfg.AccessTokenExpiry())
	}
}

func TestStoreAccessTokenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	if err := StoreAccessToken(path, "tok-new", time.Time{}); err != nil {
		t.Fatalf("StoreAccessToken() error = %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.AccessToken != "tok-new" || cfg.Site != "stackoverflow" {
		t.Errorf("cfg = %+v", cfg)
	}
}
