// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("morphosource.endpoint", "https://www.morphosource.org/catalog/media")
	viper.SetDefault("morphosource.timeout", 30)
	viper.SetDefault("morphosource.ratelimitms", 500)
	viper.SetDefault("morphosource.perpage", 100)
	viper.SetDefault("morphosource.tolerance", 0.001)
	viper.SetDefault("morphosource.debug", false)

	viper.SetDefault("dump.enabled", true)
	viper.SetDefault("dump.count", 5)
	viper.SetDefault("dump.path", "debug")

	viper.SetDefault("output.dir", "data/output")
}
