package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Keys understood by Load. Command-line flags are bound under the same names.
const (
	KeyTimeout        = "timeout"
	KeyTemperature    = "temperature"
	KeyTopP           = "top_p"
	KeyRetries        = "retries"
	KeyRetryInterval  = "retry_interval"
	KeyMaxGroupTokens = "max_group_tokens"
	KeyConcurrency    = "concurrency"

	KeyService     = "service"
	KeyModel       = "model"
	KeyBaseURL     = "base_url"
	KeyAPIKey      = "api_key"
	KeyCredentials = "credentials"
	KeyDB          = "db"
)

// EnvPrefix is the prefix of environment variables read by viper.
const EnvPrefix = "BOOKTRAN"

// Service selects and configures the translation service behind the engine.
type Service struct {
	Name    string `mapstructure:"service"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	// service account file for google
	Credentials string `mapstructure:"credentials"`
}

// NewViper returns a viper instance reading BOOKTRAN_* environment variables
// and, when present, the config file. With an empty path it looks for
// .booktran.yaml in the home directory; a missing default file is not an error.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyService, "ollama")
	v.SetDefault(KeyModel, "")
	v.SetDefault(KeyBaseURL, "")
	v.SetDefault(KeyAPIKey, "")
	v.SetDefault(KeyCredentials, "")
	v.SetDefault(KeyDB, "./data/booktran.db")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
		return v, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.SetConfigName(".booktran")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// Load extracts the knob overrides and service settings from v. Only keys that
// are explicitly set (file, environment or changed flag) become overrides.
func Load(v *viper.Viper) (Overrides, Service, error) {
	var o Overrides

	if v.IsSet(KeyTimeout) {
		f := v.GetFloat64(KeyTimeout)
		o.TimeoutSeconds = &f
	}
	if v.IsSet(KeyTemperature) {
		f := v.GetFloat64(KeyTemperature)
		o.Temperature = &f
	}
	if v.IsSet(KeyTopP) {
		f := v.GetFloat64(KeyTopP)
		o.TopP = &f
	}
	if v.IsSet(KeyRetries) {
		n := v.GetInt(KeyRetries)
		o.RetryCount = &n
	}
	if v.IsSet(KeyRetryInterval) {
		f := v.GetFloat64(KeyRetryInterval)
		o.RetryIntervalSeconds = &f
	}
	if v.IsSet(KeyMaxGroupTokens) {
		n := v.GetInt(KeyMaxGroupTokens)
		o.MaxGroupTokens = &n
	}
	if v.IsSet(KeyConcurrency) {
		n := v.GetInt(KeyConcurrency)
		o.Concurrency = &n
	}

	var svc Service
	if err := v.Unmarshal(&svc); err != nil {
		return Overrides{}, Service{}, fmt.Errorf("failed to decode service settings: %w", err)
	}
	return o, svc, nil
}
