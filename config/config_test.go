package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	keyring.MockInit()
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1500*time.Millisecond, time.Duration(cfg.SendDelay))
	assert.Equal(t, time.Minute, time.Duration(cfg.ReminderPeriod))
	assert.NotEmpty(t, cfg.GeminiModels)
}

func TestLoadFileThenEnv(t *testing.T) {
	keyring.MockInit()
	t.Chdir(t.TempDir())
	path := writeConfig(t, `{"port": 9000, "log_level": "debug", "send_delay": "2s", "gemini_models": ["a", "b"]}`)

	t.Setenv("LEADGEN_PORT", "9100")
	t.Setenv("LEADGEN_GEMINI_MODELS", "x, y ,")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, time.Duration(cfg.SendDelay))
	assert.Equal(t, []string{"x", "y"}, cfg.GeminiModels)
}

func TestLoadDotEnv(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LEADGEN_EMAILJS_SERVICE_ID=svc_dotenv\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("LEADGEN_EMAILJS_SERVICE_ID") })

	cfg, err := Load(filepath.Join(dir, "none.json"))
	require.NoError(t, err)
	assert.Equal(t, "svc_dotenv", cfg.EmailJS.ServiceID)
}

func TestSecretsFromKeyring(t *testing.T) {
	keyring.MockInit()
	t.Chdir(t.TempDir())
	require.NoError(t, SetSecret(SecretGeminiKey, "from-keyring"))
	require.NoError(t, SetSecret(SecretEmailJSPrivate, "private"))

	cfg, err := Load(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Equal(t, "from-keyring", cfg.GeminiAPIKey)
	assert.Equal(t, "private", cfg.MailerConfig().PrivateKey)

	t.Setenv("LEADGEN_GEMINI_API_KEY", "from-env")
	cfg, err = Load(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.GeminiAPIKey)
}

func TestSetSecretRejectsUnknownName(t *testing.T) {
	keyring.MockInit()
	assert.ErrorIs(t, SetSecret("password", "x"), ErrUnknownSecret)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	keyring.MockInit()
	t.Chdir(t.TempDir())

	_, err := Load(writeConfig(t, `{"log_level": "loud"}`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `{not json`))
	assert.Error(t, err)

	t.Setenv("LEADGEN_PORT", "eighty")
	_, err = Load(filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)
}

func TestSaveOmitsSecrets(t *testing.T) {
	cfg := Default()
	cfg.GeminiAPIKey = "secret"
	cfg.Port = 9001
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	keyring.MockInit()
	t.Chdir(t.TempDir())
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9001, loaded.Port)
}

func TestLoadCharmFromEnv(t *testing.T) {
	keyring.MockInit()
	t.Chdir(t.TempDir())
	t.Setenv("LEADGEN_CHARM_HOST", "charm.example.com")
	t.Setenv("LEADGEN_CHARM_AUTO_SYNC", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)
	assert.Equal(t, "charm.example.com", cfg.Charm.Host)
	assert.True(t, cfg.Charm.AutoSync)

	t.Setenv("LEADGEN_CHARM_AUTO_SYNC", "sometimes")
	_, err = Load(filepath.Join(t.TempDir(), "none.json"))
	assert.Error(t, err)
}
