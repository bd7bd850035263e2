package config

import (
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rileyhilliard/lookout/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = "lookout.yaml"
	// LegacyConfigFileName is the JSON file name older dashboards shipped with.
	LegacyConfigFileName = "Config.json"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/lookout"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
)

// localNames are tried, in order, in the working directory and next to the
// executable.
var localNames = []string{ConfigFileName, "lookout.yml", LegacyConfigFileName}

// Load reads config from the specified path. The result is not validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Create lookout.yaml, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML or JSON")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. lookout.yaml, lookout.yml or Config.json in the current directory
// 3. the same names next to the running executable
// 4. ~/.config/lookout/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}
	if p := firstExisting(cwd); p != "" {
		return p, nil
	}

	if exe, err := os.Executable(); err == nil {
		if p := firstExisting(filepath.Dir(exe)); p != "" {
			return p, nil
		}
	}

	if home, _ := os.UserHomeDir(); home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

func firstExisting(dir string) string {
	for _, name := range localNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// LoadOrDefault loads config from the found path, or returns defaults if not
// found. The returned path is empty when no file was found.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		return DefaultConfig(), "", nil
	}

	cfg, err := Load(path)
	return cfg, path, err
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(v)

	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsToDurationHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the syntax in "+path)
	}

	return cfg, nil
}

// setDefaults mirrors DefaultConfig for keys that viper should report even
// when the file omits them.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("geo.provider", d.Geo.Provider)
	v.SetDefault("geo.rate_per_minute", d.Geo.RatePerMinute)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.push_interval", d.Server.PushInterval.String())
	v.SetDefault("log.level", d.Log.Level)
}

var durationType = reflect.TypeOf(time.Duration(0))

// secondsToDurationHook reads bare numbers as seconds, the unit JSON configs
// have always used. Duration strings are left to StringToTimeDurationHookFunc.
func secondsToDurationHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != durationType || from == durationType {
			return data, nil
		}
		switch n := data.(type) {
		case int:
			return time.Duration(n) * time.Second, nil
		case int64:
			return time.Duration(n) * time.Second, nil
		case uint64:
			return time.Duration(n) * time.Second, nil
		case float64:
			return time.Duration(n * float64(time.Second)), nil
		case float32:
			return time.Duration(float64(n) * float64(time.Second)), nil
		}
		return data, nil
	}
}
