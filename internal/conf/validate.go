// validate.go - validation of loaded settings
package conf

import (
	"github.com/morphotools/morphoverify/internal/errors"
)

// ValidateSettings checks loaded settings for structurally invalid values.
// Credential presence is enforced separately, right before any row is
// processed, so read-only commands still work without a key.
func ValidateSettings(settings *Settings) error {
	if settings.MorphoSource.Endpoint == "" {
		return errors.Newf("MorphoSource endpoint must not be empty").
			Category(errors.CategoryConfiguration).
			Component("conf").
			Build()
	}
	if settings.MorphoSource.Timeout <= 0 {
		return errors.Newf("request timeout must be positive, got %d", settings.MorphoSource.Timeout).
			Category(errors.CategoryConfiguration).
			Context("timeout", settings.MorphoSource.Timeout).
			Component("conf").
			Build()
	}
	if settings.MorphoSource.RateLimitMS < 0 {
		return errors.Newf("rate limit must not be negative, got %d", settings.MorphoSource.RateLimitMS).
			Category(errors.CategoryConfiguration).
			Context("ratelimit_ms", settings.MorphoSource.RateLimitMS).
			Component("conf").
			Build()
	}
	if settings.MorphoSource.Tolerance <= 0 {
		return errors.Newf("spacing tolerance must be positive, got %g", settings.MorphoSource.Tolerance).
			Category(errors.CategoryConfiguration).
			Context("tolerance", settings.MorphoSource.Tolerance).
			Component("conf").
			Build()
	}
	if settings.Dump.Enabled && settings.Dump.Count < 0 {
		return errors.Newf("dump count must not be negative, got %d", settings.Dump.Count).
			Category(errors.CategoryConfiguration).
			Context("dump_count", settings.Dump.Count).
			Component("conf").
			Build()
	}

	return nil
}

// RequireAPIKey returns a fatal configuration error when no credential is set.
// Called before batch processing starts so no row is ever attempted without one.
func RequireAPIKey(settings *Settings) error {
	if settings.MorphoSource.APIKey == "" {
		return errors.Newf("MorphoSource API key is not set, export MORPHOSOURCE_API_KEY").
			Category(errors.CategoryConfiguration).
			Component("conf").
			Build()
	}
	return nil
}
