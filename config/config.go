// ABOUTME: Application configuration: defaults, JSON file, .env, LEADGEN_* environment, keyring secrets
// ABOUTME: Every layer overrides the previous one and the result is validated before use
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/harperreed/leadgen/ai"
	"github.com/harperreed/leadgen/mailer"
	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

const (
	// AppName names the XDG directories.
	AppName = "leadgen"

	// KeyringService is the service name secrets are stored under.
	KeyringService = "leadgen"

	ConfigFileName = "config.json"

	// Keyring user names for secrets.
	SecretGeminiKey       = "gemini_api_key"
	SecretEmailJSPrivate  = "emailjs_private_key"
	SecretEmailJSPublic   = "emailjs_public_key"
	defaultPort           = 8080
	defaultLogLevel       = "info"
	defaultSendDelay      = 1500 * time.Millisecond
	defaultReminderPeriod = time.Minute
)

// Duration marshals as a Go duration string ("1.5s", "1m").
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var ms int64
		if err := json.Unmarshal(b, &ms); err != nil {
			return fmt.Errorf("invalid duration %s", b)
		}
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

type EmailJSConfig struct {
	ServiceID  string `json:"service_id,omitempty"`
	TemplateID string `json:"template_id,omitempty"`
	PublicKey  string `json:"-"`
	PrivateKey string `json:"-"`
	Endpoint   string `json:"endpoint,omitempty" validate:"omitempty,url"`
}

// CharmConfig selects the Charm KV backend for markers and sync tokens. An empty host keeps
// them in the local Badger directory at MarkerDir.
type CharmConfig struct {
	Host     string `json:"host,omitempty" validate:"omitempty,hostname_port|hostname"`
	AutoSync bool   `json:"auto_sync"`
}

type Config struct {
	DBPath          string        `json:"db_path" validate:"required"`
	MarkerDir       string        `json:"marker_dir" validate:"required"`
	Port            int           `json:"port" validate:"min=1,max=65535"`
	LogLevel        string        `json:"log_level" validate:"oneof=debug info warn error"`
	LogPretty       bool          `json:"log_pretty"`
	TrackingBaseURL string        `json:"tracking_base_url" validate:"required,url"`
	GeminiAPIKey    string        `json:"-"`
	GeminiModels    []string      `json:"gemini_models" validate:"min=1,dive,required"`
	EmailJS         EmailJSConfig `json:"emailjs"`
	SendDelay       Duration      `json:"send_delay" validate:"min=0"`
	ReminderPeriod  Duration      `json:"reminder_interval" validate:"gt=0"`
	Charm           CharmConfig   `json:"charm"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	dataDir := filepath.Join(xdg.DataHome, AppName)
	return &Config{
		DBPath:          filepath.Join(dataDir, "leadgen.db"),
		MarkerDir:       filepath.Join(dataDir, "markers"),
		Port:            defaultPort,
		LogLevel:        defaultLogLevel,
		TrackingBaseURL: fmt.Sprintf("http://localhost:%d", defaultPort),
		GeminiModels:    append([]string{}, ai.DefaultModels...),
		EmailJS:         EmailJSConfig{Endpoint: mailer.DefaultEndpoint},
		SendDelay:       Duration(defaultSendDelay),
		ReminderPeriod:  Duration(defaultReminderPeriod),
	}
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join(xdg.ConfigHome, AppName, ConfigFileName)
}

// Load builds the configuration. An empty path means Path(). A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applySecrets(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(name string, dst *string) {
		if v, ok := os.LookupEnv("LEADGEN_" + name); ok && v != "" {
			*dst = v
		}
	}
	str("DB_PATH", &cfg.DBPath)
	str("MARKER_DIR", &cfg.MarkerDir)
	str("CHARM_HOST", &cfg.Charm.Host)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("TRACKING_BASE_URL", &cfg.TrackingBaseURL)
	str("GEMINI_API_KEY", &cfg.GeminiAPIKey)
	str("EMAILJS_SERVICE_ID", &cfg.EmailJS.ServiceID)
	str("EMAILJS_TEMPLATE_ID", &cfg.EmailJS.TemplateID)
	str("EMAILJS_PUBLIC_KEY", &cfg.EmailJS.PublicKey)
	str("EMAILJS_PRIVATE_KEY", &cfg.EmailJS.PrivateKey)

	if v := os.Getenv("LEADGEN_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LEADGEN_PORT %q: %w", v, err)
		}
		cfg.Port = port
	}
	if v := os.Getenv("LEADGEN_CHARM_AUTO_SYNC"); v != "" {
		autoSync, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LEADGEN_CHARM_AUTO_SYNC %q: %w", v, err)
		}
		cfg.Charm.AutoSync = autoSync
	}
	if v := os.Getenv("LEADGEN_LOG_PRETTY"); v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LEADGEN_LOG_PRETTY %q: %w", v, err)
		}
		cfg.LogPretty = pretty
	}
	if v := os.Getenv("LEADGEN_GEMINI_MODELS"); v != "" {
		var models []string
		for _, m := range strings.Split(v, ",") {
			if m = strings.TrimSpace(m); m != "" {
				models = append(models, m)
			}
		}
		cfg.GeminiModels = models
	}
	for name, dst := range map[string]*Duration{
		"LEADGEN_SEND_DELAY":        &cfg.SendDelay,
		"LEADGEN_REMINDER_INTERVAL": &cfg.ReminderPeriod,
	} {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", name, v, err)
			}
			*dst = Duration(d)
		}
	}
	return nil
}

// applySecrets fills secrets left empty from the OS keyring. A missing or
// unavailable keyring leaves them empty.
func applySecrets(cfg *Config) {
	for user, dst := range map[string]*string{
		SecretGeminiKey:      &cfg.GeminiAPIKey,
		SecretEmailJSPublic:  &cfg.EmailJS.PublicKey,
		SecretEmailJSPrivate: &cfg.EmailJS.PrivateKey,
	} {
		if *dst != "" {
			continue
		}
		if v, err := keyring.Get(KeyringService, user); err == nil {
			*dst = v
		}
	}
}

var ErrUnknownSecret = errors.New("unknown secret")

// SetSecret stores a secret in the OS keyring.
func SetSecret(name, value string) error {
	switch name {
	case SecretGeminiKey, SecretEmailJSPublic, SecretEmailJSPrivate:
	default:
		return fmt.Errorf("%w: %s (valid: %s, %s, %s)", ErrUnknownSecret, name, SecretGeminiKey, SecretEmailJSPublic, SecretEmailJSPrivate)
	}
	if err := keyring.Set(KeyringService, name, value); err != nil {
		return fmt.Errorf("failed to store secret %s: %w", name, err)
	}
	return nil
}

// Save writes the non-secret settings to path (Path() when empty).
func (c *Config) Save(path string) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// MailerConfig converts the EmailJS section for the mailer package.
func (c *Config) MailerConfig() mailer.Config {
	return mailer.Config{
		ServiceID:  c.EmailJS.ServiceID,
		TemplateID: c.EmailJS.TemplateID,
		PublicKey:  c.EmailJS.PublicKey,
		PrivateKey: c.EmailJS.PrivateKey,
		Endpoint:   c.EmailJS.Endpoint,
	}
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
