package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables before they are mapped to
// config keys. Nested keys are separated by a double underscore, so
// LABSITE_MAIL__SMTP__HOST sets mail.smtp.host.
const EnvPrefix = "LABSITE_"

// FileSearchPaths are tried in order when CONFIG_FILE_PATH is unset.
var FileSearchPaths = []string{"config.yaml", "/etc/labsite/config.yaml"}

// listFields are comma separated when they come from the environment.
var listFields = []string{"auth.reset_allowed_emails", "app.trusted_proxies"}

type Config struct {
	App     AppConfig     `mapstructure:"app"     validate:"required"`
	Auth    AuthConfig    `mapstructure:"auth"    validate:"required"`
	Mail    MailConfig    `mapstructure:"mail"    validate:"required"`
	Storage StorageConfig `mapstructure:"storage" validate:"required"`
}

type AppConfig struct {
	Name          string `mapstructure:"name"           validate:"required"`
	BaseURL       string `mapstructure:"base_url"       validate:"required,http_url"`
	Port          int    `mapstructure:"port"           validate:"required,min=1,max=65535"`
	LogLevel      string `mapstructure:"log_level"      validate:"oneof=debug info warn error"`
	DBPath        string `mapstructure:"db_path"        validate:"required"`
	SessionSecret string `mapstructure:"session_secret" validate:"required,min=32"`
	SecureCookies bool   `mapstructure:"secure_cookies"`
	AdminEmail    string `mapstructure:"admin_email"    validate:"required,email"`

	// TrustedProxies are the peers whose forwarding headers name the client.
	TrustedProxies []string `mapstructure:"trusted_proxies" validate:"dive,ip|cidr"`
}

type AuthConfig struct {
	// ResetAllowedEmails is the set of addresses that may request a reset code.
	ResetAllowedEmails   []string      `mapstructure:"reset_allowed_emails"   validate:"required,min=1,dive,email"`
	ResetCodeTTL         time.Duration `mapstructure:"reset_code_ttl"         validate:"required"`
	DashboardIdleTimeout time.Duration `mapstructure:"dashboard_idle_timeout" validate:"required"`
	SessionTTL           time.Duration `mapstructure:"session_ttl"            validate:"required"`
}

type MailConfig struct {
	Type       string            `mapstructure:"type"       validate:"required,oneof=smtp postmark filesystem"`
	From       string            `mapstructure:"from"       validate:"required,email"`
	SMTP       *SMTPConfig       `mapstructure:"smtp"       validate:"required_if=Type smtp"`
	Postmark   *PostmarkConfig   `mapstructure:"postmark"   validate:"required_if=Type postmark"`
	Filesystem *FilesystemConfig `mapstructure:"filesystem" validate:"required_if=Type filesystem"`
}

type SMTPConfig struct {
	Host          string `mapstructure:"host"            validate:"required"`
	Port          int    `mapstructure:"port"            validate:"required"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	EnableTLS     bool   `mapstructure:"enable_tls"`
	SkipVerifyTLS bool   `mapstructure:"skip_verify_tls"`
}

type PostmarkConfig struct {
	ServerToken string `mapstructure:"server_token" validate:"required"`
}

type FilesystemConfig struct {
	Directory string `mapstructure:"directory" validate:"required"`
}

type StorageConfig struct {
	Type  string              `mapstructure:"type"  validate:"required,oneof=local s3 minio"`
	Local *LocalStorageConfig `mapstructure:"local" validate:"required_if=Type local"`
	S3    *S3StorageConfig    `mapstructure:"s3"    validate:"required_if=Type s3"`
	Minio *MinioStorageConfig `mapstructure:"minio" validate:"required_if=Type minio"`
}

type LocalStorageConfig struct {
	Directory string `mapstructure:"directory" validate:"required"`
	URLPrefix string `mapstructure:"url_prefix" validate:"required"`
}

type S3StorageConfig struct {
	Bucket    string `mapstructure:"bucket"     validate:"required"`
	Region    string `mapstructure:"region"     validate:"required"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key" validate:"required"`
	SecretKey string `mapstructure:"secret_key" validate:"required"`
	PublicURL string `mapstructure:"public_url" validate:"required,http_url"`
}

type MinioStorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"   validate:"required"`
	Bucket    string `mapstructure:"bucket"     validate:"required"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key" validate:"required"`
	SecretKey string `mapstructure:"secret_key" validate:"required"`
	UseTLS    bool   `mapstructure:"use_tls"`
	PublicURL string `mapstructure:"public_url" validate:"required,http_url"`
}

// Addr returns the listen address for the HTTP server.
func (c AppConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// AllowsReset reports whether email is one of the configured reset addresses.
func (c AuthConfig) AllowsReset(email string) bool {
	for _, allowed := range c.ResetAllowedEmails {
		if allowed == email {
			return true
		}
	}
	return false
}

func defaults() map[string]any {
	return map[string]any{
		"app.name":           "Climatology Lab",
		"app.base_url":       "http://localhost:8080",
		"app.port":           8080,
		"app.log_level":      "info",
		"app.db_path":        "labsite.db",
		"app.secure_cookies": false,

		"auth.reset_code_ttl":         10 * time.Minute,
		"auth.dashboard_idle_timeout": 60 * time.Minute,
		"auth.session_ttl":            24 * time.Hour,

		"mail.type": "filesystem",

		"mail.filesystem.directory": "data/mail",
		"mail.smtp.port":            587,
		"mail.smtp.enable_tls":      true,

		"storage.type":             "local",
		"storage.local.directory":  "data/media",
		"storage.local.url_prefix": "/media/",
		"storage.s3.region":        "us-east-1",
	}
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence, and validates the result.
// An empty path falls back to CONFIG_FILE_PATH and then FileSearchPaths.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.Join(strings.Split(s, "__"), ".")
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}
	splitListFields(k)
	pruneUnusedBackends(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "mapstructure"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv("CONFIG_FILE_PATH"); p != "" {
		return p
	}
	for _, p := range FileSearchPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func splitListFields(k *koanf.Koanf) {
	for _, field := range listFields {
		s, ok := k.Get(field).(string)
		if !ok || s == "" {
			continue
		}
		var items []string
		for _, item := range strings.Split(strings.Trim(s, "[]"), ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		_ = k.Set(field, items)
	}
}

// pruneUnusedBackends drops defaults for mail and storage backends that are
// not selected, so their required fields are not validated.
func pruneUnusedBackends(k *koanf.Koanf) {
	mailType := k.String("mail.type")
	for _, backend := range []string{"smtp", "postmark", "filesystem"} {
		if backend != mailType {
			k.Delete("mail." + backend)
		}
	}
	storageType := k.String("storage.type")
	for _, backend := range []string{"local", "s3", "minio"} {
		if backend != storageType {
			k.Delete("storage." + backend)
		}
	}
}
