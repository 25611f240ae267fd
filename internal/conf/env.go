// env.go - Environment variable configuration for morphoverify
package conf

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		// The API key is deliberately env-only so it never lands in a config file
		{"morphosource.apikey", "MORPHOSOURCE_API_KEY", nil},

		{"debug", "MORPHOVERIFY_DEBUG", validateEnvBool},
		{"morphosource.endpoint", "MORPHOVERIFY_ENDPOINT", nil},
		{"morphosource.ratelimitms", "MORPHOVERIFY_RATELIMIT_MS", validateEnvNonNegativeInt},
		{"morphosource.tolerance", "MORPHOVERIFY_TOLERANCE", validateEnvPositiveFloat},
		{"output.dir", "MORPHOVERIFY_OUTPUT_DIR", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	for _, binding := range getEnvBindings() {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			return fmt.Errorf("failed to bind %s: %w", binding.EnvVar, err)
		}

		if binding.Validate == nil {
			continue
		}
		if value, ok := os.LookupEnv(binding.EnvVar); ok {
			if err := binding.Validate(value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", binding.EnvVar, err)
			}
		}
	}

	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("expected boolean, got %q", value)
	}
	return nil
}

func validateEnvNonNegativeInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("expected integer, got %q", value)
	}
	if n < 0 {
		return fmt.Errorf("expected non-negative integer, got %d", n)
	}
	return nil
}

func validateEnvPositiveFloat(value string) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("expected number, got %q", value)
	}
	if f <= 0 {
		return fmt.Errorf("expected positive number, got %g", f)
	}
	return nil
}
