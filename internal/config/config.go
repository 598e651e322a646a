package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	AppPort             int    `mapstructure:"APP_PORT"`
	DatabasePath        string `mapstructure:"DATABASE_PATH"`
	GatewayURL          string `mapstructure:"GATEWAY_URL"`
	InitialSystemPrompt string `mapstructure:"INITIAL_SYSTEM_PROMPT"`
	DefaultModel        string `mapstructure:"DEFAULT_MODEL"`
	LogLevel            string `mapstructure:"LOG_LEVEL"`
}

// BootstrapConfig carries the first-run defaults handed to the settings
// smart initialization.
type BootstrapConfig struct {
	SystemPrompt string
	MainModel    string
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_PORT", 3000)
	viper.SetDefault("DATABASE_PATH", "/data/parley.db")
	viper.SetDefault("GATEWAY_URL", "http://gateway:8080")
	viper.SetDefault("INITIAL_SYSTEM_PROMPT", "You are a helpful assistant.")
	viper.SetDefault("DEFAULT_MODEL", "")
	viper.SetDefault("LOG_LEVEL", "INFO")

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Bootstrap extracts the settings-initialization defaults.
func (c *Config) Bootstrap() *BootstrapConfig {
	return &BootstrapConfig{
		SystemPrompt: c.InitialSystemPrompt,
		MainModel:    c.DefaultModel,
	}
}
