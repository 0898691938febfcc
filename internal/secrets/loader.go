package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes how to load a secret value.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string `mapstructure:"name"`
	// Value is an inline secret value provided via configuration or flags.
	Value string `mapstructure:"value"`
	// File points to a file containing the secret value.
	File string `mapstructure:"file"`
	// Env names an environment variable holding the secret.
	Env string `mapstructure:"env"`
}

// Load resolves the secret from the first configured of File, Env and Value.
// The returned secret is always trimmed. An error is returned when the chosen
// source is empty or nothing is configured.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		if secret := strings.TrimSpace(string(data)); secret != "" {
			return secret, nil
		}
		return "", fmt.Errorf("%s file %q is empty", name, file)
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
		if strings.TrimSpace(src.Value) == "" {
			return "", fmt.Errorf("%s environment variable %s is not set", name, env)
		}
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}
	return "", fmt.Errorf("%s is not configured", name)
}
