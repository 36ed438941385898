package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/woliveiras/addoverlay/pkg/overlay"
)

const (
	// AppName is the application name.
	AppName = "addoverlay"
	// DefaultConfigDir is searched for config.toml when --config is not set.
	DefaultConfigDir = "/etc/addoverlay"
	// EnvPrefix prefixes environment overrides, e.g. ADDOVERLAY_BOOT_DIR.
	EnvPrefix = "ADDOVERLAY"
)

// Config is the effective configuration of a run.
type Config struct {
	BootDir       string      `mapstructure:"boot_dir" toml:"boot_dir"`
	ModelPath     string      `mapstructure:"model_path" toml:"model_path"`
	ScratchDir    string      `mapstructure:"scratch_dir" toml:"scratch_dir"`
	InterfacesDir string      `mapstructure:"interfaces_dir" toml:"interfaces_dir"`
	StateLog      string      `mapstructure:"state_log" toml:"state_log"`
	LogLevel      string      `mapstructure:"log_level" toml:"log_level"`
	Patch         PatchConfig `mapstructure:"patch" toml:"patch"`
}

// PatchConfig tunes how overlays are matched in boot configuration files.
type PatchConfig struct {
	// ExactMatch compares whole tokens instead of substrings.
	ExactMatch bool `mapstructure:"exact_match" toml:"exact_match"`
	// LegacyAppend re-appends extlinux overlay paths that are already listed.
	LegacyAppend bool `mapstructure:"legacy_append" toml:"legacy_append"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		BootDir:       overlay.DefaultBootDir,
		ModelPath:     overlay.DefaultModelPath,
		ScratchDir:    os.TempDir(),
		InterfacesDir: DefaultConfigDir + "/interfaces.d",
		LogLevel:      "info",
	}
}

// DocumentOptions converts the patch settings for the overlay package.
func (c Config) DocumentOptions() overlay.DocumentOptions {
	return overlay.DocumentOptions{
		ExactMatch:   c.Patch.ExactMatch,
		LegacyAppend: c.Patch.LegacyAppend,
	}
}

// LoadConfig reads the configuration from path, or from
// DefaultConfigDir/config.toml when path is empty. A missing default file
// is not an error; a missing explicit file is.
func LoadConfig(fs afero.Fs, path string) (Config, error) {
	v := viper.New()
	v.SetFs(fs)

	defaults := DefaultConfig()
	v.SetDefault("boot_dir", defaults.BootDir)
	v.SetDefault("model_path", defaults.ModelPath)
	v.SetDefault("scratch_dir", defaults.ScratchDir)
	v.SetDefault("interfaces_dir", defaults.InterfacesDir)
	v.SetDefault("state_log", defaults.StateLog)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("patch.exact_match", defaults.Patch.ExactMatch)
	v.SetDefault("patch.legacy_append", defaults.Patch.LegacyAppend)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if ok, _ := afero.Exists(fs, path); !ok {
			return Config{}, fmt.Errorf("config file not found: %s", path)
		}
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(DefaultConfigDir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// MarshalConfig renders cfg as TOML, the format LoadConfig reads.
func MarshalConfig(cfg Config) (string, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return string(data), nil
}
