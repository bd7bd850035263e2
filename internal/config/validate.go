package config

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/lookout/internal/errors"
	"github.com/rileyhilliard/lookout/internal/probe"
)

// Validate checks the config for errors and returns structured error messages.
// A config without servers or groups is reported as invalid; callers that
// want to run in the "no configuration" state check IsValid first.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but lookout only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade lookout to a newer release")
	}

	if !cfg.IsValid() {
		return errors.NewConfigInvalid("")
	}

	if err := validateSettings("top level", cfg.Settings); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Durations must be positive, like '5s' or 2.5")
	}

	switch cfg.Geo.Provider {
	case "", GeoProviderIPAPI, GeoProviderNone:
	case GeoProviderMaxMind:
		if cfg.Geo.Database == "" {
			return errors.New(errors.ErrConfig,
				"geo.provider is 'maxmind' but geo.database is empty",
				"Point geo.database at a GeoLite2-City.mmdb file")
		}
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown geo provider '%s'", cfg.Geo.Provider),
			"Use one of: ip-api, maxmind, none")
	}

	if cfg.Geo.RatePerMinute < 0 {
		return errors.New(errors.ErrConfig,
			"geo.rate_per_minute can't be negative",
			"Set it to 45 for the free ip-api tier")
	}

	if err := validateServers("top level", cfg.Servers); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'servers' section in your config file.")
	}
	if err := validateGroups(nil, cfg.Groups); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'groups' section in your config file.")
	}

	return nil
}

func validateGroups(path []string, groups []GroupNode) error {
	for i, g := range groups {
		caption := g.Caption
		if caption == "" {
			caption = fmt.Sprintf("#%d", i+1)
		}
		p := append(append([]string(nil), path...), caption)
		where := "group '" + strings.Join(p, "/") + "'"
		if err := validateSettings(where, g.Settings); err != nil {
			return err
		}
		if err := validateServers(where, g.Servers); err != nil {
			return err
		}
		if err := validateGroups(p, g.Groups); err != nil {
			return err
		}
	}
	return nil
}

func validateServers(where string, servers []ServerNode) error {
	for i, s := range servers {
		if strings.TrimSpace(s.Host) == "" {
			return fmt.Errorf("server #%d in %s needs a 'host'", i+1, where)
		}
		if s.Port < 0 || s.Port > 65535 {
			return fmt.Errorf("server '%s' has port %d, which is out of range", s.Host, s.Port)
		}
		for _, name := range s.Protocols {
			if _, err := probe.ParseProtocol(name); err != nil {
				return fmt.Errorf("server '%s': %w", s.Host, err)
			}
		}
		if err := validateSettings("server '"+s.Host+"'", s.Settings); err != nil {
			return err
		}
	}
	return nil
}

func validateSettings(where string, s Settings) error {
	durations := map[string]int64{
		"refresh_rate":      int64(s.RefreshRate),
		"refresh_rate_ping": int64(s.RefreshRatePing),
		"refresh_rate_tcp":  int64(s.RefreshRateTCP),
		"refresh_rate_rest": int64(s.RefreshRateRest),
		"timeout":           int64(s.Timeout),
		"timeout_ping":      int64(s.TimeoutPing),
		"timeout_tcp":       int64(s.TimeoutTCP),
		"timeout_rest":      int64(s.TimeoutRest),
	}
	for key, v := range durations {
		if v < 0 {
			return fmt.Errorf("%s in %s can't be negative", key, where)
		}
	}
	if s.WarningPing < 0 {
		return fmt.Errorf("warning_ping in %s can't be negative", where)
	}
	return nil
}
