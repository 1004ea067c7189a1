// ABOUTME: Configuration CLI commands
// ABOUTME: Show the effective settings and store secrets in the OS keyring
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/harperreed/leadgen/config"
)

// ConfigShowCommand prints the effective configuration. Secrets only show whether they are set.
func ConfigShowCommand(cfg *config.Config, w io.Writer) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s\n", data)
	fmt.Fprintf(w, "\nconfig file: %s\n", config.Path())
	fmt.Fprintf(w, "gemini key: %s\n", setOrMissing(cfg.GeminiAPIKey))
	fmt.Fprintf(w, "emailjs public key: %s\n", setOrMissing(cfg.EmailJS.PublicKey))
	fmt.Fprintf(w, "emailjs private key: %s\n", setOrMissing(cfg.EmailJS.PrivateKey))
	return nil
}

// ConfigSetSecretCommand stores one secret: set-secret <name> <value>.
func ConfigSetSecretCommand(args []string, w io.Writer) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: leadgen config set-secret <%s|%s|%s> <value>",
			config.SecretGeminiKey, config.SecretEmailJSPublic, config.SecretEmailJSPrivate)
	}
	if err := config.SetSecret(args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(w, "✓ Stored %s in the system keyring\n", args[0])
	return nil
}

// ConfigInitCommand writes the current settings to the config file.
func ConfigInitCommand(cfg *config.Config, path string, w io.Writer) error {
	if path == "" {
		path = config.Path()
	}
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(w, "✓ Wrote %s\n", path)
	return nil
}

func setOrMissing(s string) string {
	if s == "" {
		return "not set"
	}
	return "set"
}
