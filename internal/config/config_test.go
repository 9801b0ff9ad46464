package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const baseYAML = `
app:
  session_secret: "0123456789abcdef0123456789abcdef"
  admin_email: "admin@lab.example.edu"
auth:
  reset_allowed_emails:
    - "lab@example.edu"
mail:
  from: "noreply@lab.example.edu"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, baseYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.App.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.App.Port)
	}
	if cfg.App.Name != "Climatology Lab" {
		t.Errorf("name = %q, want %q", cfg.App.Name, "Climatology Lab")
	}
	if cfg.Auth.ResetCodeTTL != 10*time.Minute {
		t.Errorf("reset ttl = %v, want 10m", cfg.Auth.ResetCodeTTL)
	}
	if cfg.Mail.Type != "filesystem" || cfg.Mail.Filesystem == nil {
		t.Fatalf("mail = %+v, want filesystem backend", cfg.Mail)
	}
	if cfg.Mail.SMTP != nil {
		t.Error("expected unused smtp defaults to be dropped")
	}
	if cfg.Storage.Type != "local" || cfg.Storage.Local == nil {
		t.Fatalf("storage = %+v, want local backend", cfg.Storage)
	}
	if cfg.Storage.S3 != nil {
		t.Error("expected unused s3 defaults to be dropped")
	}
	if cfg.App.Addr() != ":8080" {
		t.Errorf("addr = %q, want %q", cfg.App.Addr(), ":8080")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LABSITE_APP__PORT", "9090")
	t.Setenv("LABSITE_AUTH__RESET_CODE_TTL", "5m")
	t.Setenv("LABSITE_AUTH__RESET_ALLOWED_EMAILS", "a@example.edu, b@example.edu")

	cfg, err := Load(writeConfig(t, baseYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.App.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.App.Port)
	}
	if cfg.Auth.ResetCodeTTL != 5*time.Minute {
		t.Errorf("reset ttl = %v, want 5m", cfg.Auth.ResetCodeTTL)
	}
	got := strings.Join(cfg.Auth.ResetAllowedEmails, ",")
	if got != "a@example.edu,b@example.edu" {
		t.Errorf("allowed emails = %q", got)
	}
}

func TestLoadTrustedProxies(t *testing.T) {
	t.Setenv("LABSITE_APP__TRUSTED_PROXIES", "127.0.0.1, 10.0.0.0/8")

	cfg, err := Load(writeConfig(t, baseYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := strings.Join(cfg.App.TrustedProxies, ","); got != "127.0.0.1,10.0.0.0/8" {
		t.Errorf("trusted proxies = %q", got)
	}

	t.Setenv("LABSITE_APP__TRUSTED_PROXIES", "proxy.local")
	if _, err := Load(writeConfig(t, baseYAML)); err == nil {
		t.Error("expected hostname proxy to fail validation")
	}
}

func TestLoadSMTPRequiresHost(t *testing.T) {
	t.Setenv("LABSITE_MAIL__TYPE", "smtp")

	if _, err := Load(writeConfig(t, baseYAML)); err == nil {
		t.Fatal("expected validation error for smtp without host")
	}

	t.Setenv("LABSITE_MAIL__SMTP__HOST", "smtp.example.edu")
	cfg, err := Load(writeConfig(t, baseYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mail.SMTP == nil || cfg.Mail.SMTP.Port != 587 {
		t.Errorf("smtp = %+v, want default port 587", cfg.Mail.SMTP)
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("LABSITE_APP__SESSION_SECRET", "short")

	if _, err := Load(writeConfig(t, baseYAML)); err == nil {
		t.Fatal("expected validation error for short session secret")
	}
}

func TestAllowsReset(t *testing.T) {
	c := AuthConfig{ResetAllowedEmails: []string{"lab@example.edu"}}

	if !c.AllowsReset("lab@example.edu") {
		t.Error("expected configured email to be allowed")
	}
	if c.AllowsReset("LAB@example.edu") {
		t.Error("expected match to be exact")
	}
	if c.AllowsReset("") {
		t.Error("expected empty email to be rejected")
	}
}
