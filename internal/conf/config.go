// config.go: settings struct and loading for the morphoverify CLI.
package conf

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// MorphoSourceSettings contains settings for the MorphoSource registry client.
type MorphoSourceSettings struct {
	APIKey      string  // bearer token, supplied via MORPHOSOURCE_API_KEY
	Endpoint    string  // media search endpoint
	Timeout     int     // request timeout in seconds
	RateLimitMS int     // mandatory pause between searches in milliseconds
	PerPage     int     // search page size
	Tolerance   float64 // voxel spacing comparison tolerance
	Debug       bool    // true to enable debug mode
}

// DumpSettings controls persistence of raw registry responses for troubleshooting.
type DumpSettings struct {
	Enabled bool   // true to save the first few raw responses
	Count   int    // how many responses to save
	Path    string // directory for dump files
}

// OutputSettings contains settings for the annotated output table.
type OutputSettings struct {
	Dir string // directory for the matched-<input>.csv file
}

// Settings contains all application settings.
type Settings struct {
	Debug bool // true to enable debug output

	InputFile string `yaml:"-"` // runtime value, set from command line args

	MorphoSource MorphoSourceSettings
	Dump         DumpSettings
	Output       OutputSettings
}

// RequestTimeout returns the registry request timeout as a duration.
func (s *Settings) RequestTimeout() time.Duration {
	return time.Duration(s.MorphoSource.Timeout) * time.Second
}

// RateLimit returns the mandatory inter-call pause as a duration.
func (s *Settings) RateLimit() time.Duration {
	return time.Duration(s.MorphoSource.RateLimitMS) * time.Millisecond
}

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	// Initialize viper and read config
	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	// Unmarshal the config into settings
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	// Validate settings
	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/morphoverify")

	// Set default values for each configuration parameter
	// function defined in defaults.go
	setDefaultConfig()

	// Bind environment variables, most importantly the API key
	// function defined in env.go
	if err := bindEnvVars(); err != nil {
		return err
	}

	// Read configuration file, a missing file is fine since all
	// parameters have defaults or environment bindings
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("fatal error reading config file: %w", err)
		}
	}

	return nil
}

// Setting returns the current settings instance, or nil before Load has run.
func Setting() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}
