package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Global settings
	Prefix  string `mapstructure:"prefix"`
	Verbose bool   `mapstructure:"verbose"`

	// Trace category toggles applied to every session the CLI opens
	Trace TraceConfig `mapstructure:"trace"`
}

// TraceConfig holds the per-category logging toggles
type TraceConfig struct {
	FunctionCalls       bool `mapstructure:"function_calls"`
	AttributeAccess     bool `mapstructure:"attribute_access"`
	AttributeAssignment bool `mapstructure:"attribute_assignment"`
	AttributeDeletion   bool `mapstructure:"attribute_deletion"`
	ShowMethodAccess    bool `mapstructure:"show_method_access"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Prefix:  "Insight: ",
		Verbose: false,
		Trace: TraceConfig{
			FunctionCalls:       true,
			AttributeAccess:     true,
			AttributeAssignment: true,
			AttributeDeletion:   true,
			ShowMethodAccess:    false,
		},
	}
}

// Load loads configuration from files and environment
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and type
	v.SetConfigName("insightful")
	v.SetConfigType("yaml")

	// Add config paths (in order of precedence, lowest first)
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "insightful"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".insightful")
	}
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("INSIGHTFUL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.BindEnv("prefix", "INSIGHTFUL_PREFIX")
	v.BindEnv("verbose", "INSIGHTFUL_VERBOSE")

	// Set defaults
	cfg := Default()
	v.SetDefault("prefix", cfg.Prefix)
	v.SetDefault("verbose", cfg.Verbose)
	v.SetDefault("trace.function_calls", cfg.Trace.FunctionCalls)
	v.SetDefault("trace.attribute_access", cfg.Trace.AttributeAccess)
	v.SetDefault("trace.attribute_assignment", cfg.Trace.AttributeAssignment)
	v.SetDefault("trace.attribute_deletion", cfg.Trace.AttributeDeletion)
	v.SetDefault("trace.show_method_access", cfg.Trace.ShowMethodAccess)

	// Try to read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error occurred
			return nil, err
		}
		// Config file not found; use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ConfigFile returns the path to the config file that was loaded
func ConfigFile() string {
	v := viper.New()

	v.SetConfigName("insightful")
	v.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed()
	}

	// Try the dotfile form
	v.SetConfigName(".insightful")
	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed()
	}

	return ""
}
