package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName = "explorer"
	configType = "yaml"
	envPrefix  = "EXPLORER"
)

type Error struct {
	Name string
}

func (e *Error) Error() string {
	return fmt.Sprintf("unable to access configuration key: %s", e.Name)
}

type TypeError struct {
	Name string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("unable to convert configuration key: %s", e.Name)
}

// Load reads the configuration file and layers environment variables on top
// of it. An explicit path must exist; otherwise the default search locations
// are tried and a missing file leaves only the environment as a source.
func Load(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("datadog.api_key", "EXPLORER_DATADOG_API_KEY", "DD_API_KEY")
	_ = v.BindEnv("datadog.app_key", "EXPLORER_DATADOG_APP_KEY", "DD_APP_KEY")
	_ = v.BindEnv("datadog.site", "EXPLORER_DATADOG_SITE", "DD_SITE")

	_ = v.BindEnv(requestTimeoutKey, "EXPLORER_REQUEST_TIMEOUT", "REQUEST_TIMEOUT")
	_ = v.BindEnv(statementTimeoutKey, "EXPLORER_STATEMENT_TIMEOUT", "STATEMENT_TIMEOUT")

	v.SetDefault(requestTimeoutKey, DefaultRequestTimeout.String())
	v.SetDefault(statementTimeoutKey, DefaultStatementTimeout.String())
	v.SetDefault("vpn.enabled", true)
	v.SetDefault("vpn.command", "tailscale")

	if path == "" {
		path = os.Getenv("EXPLORER_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(filepath.Clean(path))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read configuration file: %w", err)
		}
		return v, nil
	}

	v.SetConfigName(configName)
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", configName))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("unable to read configuration file: %w", err)
	}

	return v, nil
}
