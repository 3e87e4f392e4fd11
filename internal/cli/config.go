package cli

import (
	"strings"

	"github.com/spf13/viper"
)

// Config controls CLI behavior. Values come from flags, PULLBACK_* environment
// variables, or an optional pullback.yml in the working directory.
type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	Precision int    `mapstructure:"precision"`
}

// LoadConfig reads the CLI configuration. A missing config file is not an
// error; defaults and environment variables still apply.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetDefault("log_level", "warn")
	v.SetDefault("precision", 6)

	v.SetConfigName("pullback")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PULLBACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
