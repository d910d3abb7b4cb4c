package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/linkgraph/internal/logging"
	"github.com/mesh-intelligence/linkgraph/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "LINKGRAPH"

	// Config keys.
	cfgKeyFatalPolicy = "fatal_policy"
	cfgKeyMetrics     = "metrics"
	cfgKeyLogLevel    = "log_level"
	cfgKeyLogFormat   = "log_format"
	cfgKeyOutput      = "output"
)

// Output modes.
const (
	outputText = "text"
	outputJSON = "json"
)

var errOutputUnknown = errors.New("unknown output mode")

// settings is the decoded config.yaml.
type settings struct {
	FatalPolicy string `yaml:"fatal_policy"`
	Metrics     bool   `yaml:"metrics"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	Output      string `yaml:"output"`
}

func defaultSettings() settings {
	return settings{
		FatalPolicy: types.FatalPanic,
		LogLevel:    "warn",
		LogFormat:   logging.FormatConsole,
		Output:      outputText,
	}
}

// graphConfig returns the store configuration.
func (s settings) graphConfig() types.Config {
	return types.Config{FatalPolicy: s.FatalPolicy, Metrics: s.Metrics}
}

// loadSettings reads config.yaml from configDir using Viper. A missing file
// is not an error; LINKGRAPH_* environment variables override file values.
func loadSettings(configDir string) (settings, error) {
	def := defaultSettings()

	v := viper.New()
	v.SetDefault(cfgKeyFatalPolicy, def.FatalPolicy)
	v.SetDefault(cfgKeyMetrics, def.Metrics)
	v.SetDefault(cfgKeyLogLevel, def.LogLevel)
	v.SetDefault(cfgKeyLogFormat, def.LogFormat)
	v.SetDefault(cfgKeyOutput, def.Output)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	s := settings{
		FatalPolicy: v.GetString(cfgKeyFatalPolicy),
		Metrics:     v.GetBool(cfgKeyMetrics),
		LogLevel:    v.GetString(cfgKeyLogLevel),
		LogFormat:   v.GetString(cfgKeyLogFormat),
		Output:      strings.ToLower(v.GetString(cfgKeyOutput)),
	}
	if err := s.graphConfig().Validate(); err != nil {
		return settings{}, fmt.Errorf("config %s %q: %w", cfgKeyFatalPolicy, s.FatalPolicy, err)
	}
	if s.Output != outputText && s.Output != outputJSON {
		return settings{}, fmt.Errorf("config %s %q: %w", cfgKeyOutput, s.Output, errOutputUnknown)
	}
	return s, nil
}
