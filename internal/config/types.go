package config

import (
	"time"

	"github.com/rileyhilliard/lookout/internal/probe"
)

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Settings are the inheritable timing and threshold values. Every node of the
// tree (root, group, server) carries a partial copy; zero means "inherit".
type Settings struct {
	// RefreshRate is the catch-all probe interval.
	RefreshRate     time.Duration `yaml:"refresh_rate,omitempty" mapstructure:"refresh_rate"`
	RefreshRatePing time.Duration `yaml:"refresh_rate_ping,omitempty" mapstructure:"refresh_rate_ping"`
	RefreshRateTCP  time.Duration `yaml:"refresh_rate_tcp,omitempty" mapstructure:"refresh_rate_tcp"`
	RefreshRateRest time.Duration `yaml:"refresh_rate_rest,omitempty" mapstructure:"refresh_rate_rest"`

	// Timeout is the catch-all time a probe may stay in flight.
	Timeout     time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	TimeoutPing time.Duration `yaml:"timeout_ping,omitempty" mapstructure:"timeout_ping"`
	TimeoutTCP  time.Duration `yaml:"timeout_tcp,omitempty" mapstructure:"timeout_tcp"`
	TimeoutRest time.Duration `yaml:"timeout_rest,omitempty" mapstructure:"timeout_rest"`

	// WarningPing is the reachability latency in milliseconds above which a
	// reply counts as a warning.
	WarningPing int `yaml:"warning_ping,omitempty" mapstructure:"warning_ping"`

	// ChartLength is the history capacity per protocol. Negative disables
	// history for the subtree.
	ChartLength int `yaml:"chart_length,omitempty" mapstructure:"chart_length"`
}

// Config represents the complete lookout configuration file.
type Config struct {
	Version  int `yaml:"version" mapstructure:"version"`
	Settings `yaml:",inline" mapstructure:",squash"`

	// GeoMode turns on geo/route resolution for all targets.
	GeoMode bool `yaml:"geo_mode" mapstructure:"geo_mode"`
	// Trace enables traceroute for every target, in addition to per-server trace.
	Trace bool `yaml:"trace" mapstructure:"trace"`

	Geo    GeoConfig    `yaml:"geo" mapstructure:"geo"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	Probe  ProbeConfig  `yaml:"probe" mapstructure:"probe"`

	Servers []ServerNode `yaml:"servers,omitempty" mapstructure:"servers"`
	Groups  []GroupNode  `yaml:"groups,omitempty" mapstructure:"groups"`
}

// GroupNode is a captioned group of servers and nested groups.
type GroupNode struct {
	Caption  string `yaml:"caption" mapstructure:"caption"`
	Settings `yaml:",inline" mapstructure:",squash"`

	Servers []ServerNode `yaml:"servers,omitempty" mapstructure:"servers"`
	Groups  []GroupNode  `yaml:"groups,omitempty" mapstructure:"groups"`
}

// ServerNode is a single monitored host.
type ServerNode struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port,omitempty" mapstructure:"port"`

	// ProtocolPrefix is the URL scheme for request probes. Defaults to http.
	ProtocolPrefix string `yaml:"protocol_prefix,omitempty" mapstructure:"protocol_prefix"`
	// Method is the request path appended to the base URL.
	Method      string `yaml:"method,omitempty" mapstructure:"method"`
	Description string `yaml:"description,omitempty" mapstructure:"description"`
	Trace       bool   `yaml:"trace,omitempty" mapstructure:"trace"`

	// Protocols lists probe names in display order: ping, tcp, GET, POST, PUT, DELETE, HEAD.
	Protocols []string `yaml:"protocols" mapstructure:"protocols"`

	Settings `yaml:",inline" mapstructure:",squash"`
}

// GeoConfig selects the geo-IP backend.
type GeoConfig struct {
	// Provider is "ip-api", "maxmind" or "none".
	Provider string `yaml:"provider" mapstructure:"provider"`
	// Database is the MaxMind .mmdb path.
	Database string `yaml:"database" mapstructure:"database"`
	// RatePerMinute throttles the ip-api backend.
	RatePerMinute int `yaml:"rate_per_minute" mapstructure:"rate_per_minute"`
}

// ServerConfig controls the HTTP status API.
type ServerConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	PushInterval   time.Duration `yaml:"push_interval" mapstructure:"push_interval"`
}

// LogConfig controls log output.
type LogConfig struct {
	// Dir sends logs to a rotating file in this directory. Empty means stderr.
	Dir   string `yaml:"dir" mapstructure:"dir"`
	Level string `yaml:"level" mapstructure:"level"`
}

// ProbeConfig holds transport-level knobs shared by all probes.
type ProbeConfig struct {
	// Privileged uses raw ICMP sockets instead of unprivileged UDP pings.
	Privileged bool `yaml:"privileged" mapstructure:"privileged"`
}

// Geo providers.
const (
	GeoProviderIPAPI   = "ip-api"
	GeoProviderMaxMind = "maxmind"
	GeoProviderNone    = "none"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Settings: Settings{
			RefreshRate: 5 * time.Second,
			Timeout:     3 * time.Second,
			WarningPing: 150,
			ChartLength: 60,
		},
		Geo: GeoConfig{
			Provider:      GeoProviderIPAPI,
			RatePerMinute: 45,
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8080",
			PushInterval: time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// IsValid reports whether the tree has anything to watch. A file with
// neither a servers nor a groups section is invalid.
func (c *Config) IsValid() bool {
	return c != nil && (c.Servers != nil || c.Groups != nil)
}

// RefreshFor returns the interval for the protocol class, falling back
// to the catch-all value.
func (s Settings) RefreshFor(k probe.Kind) time.Duration {
	var v time.Duration
	switch k {
	case probe.Reachability:
		v = s.RefreshRatePing
	case probe.Connection:
		v = s.RefreshRateTCP
	case probe.Request:
		v = s.RefreshRateRest
	}
	if v > 0 {
		return v
	}
	return s.RefreshRate
}

// TimeoutFor returns the timeout for the protocol class, falling back
// to the catch-all value.
func (s Settings) TimeoutFor(k probe.Kind) time.Duration {
	var v time.Duration
	switch k {
	case probe.Reachability:
		v = s.TimeoutPing
	case probe.Connection:
		v = s.TimeoutTCP
	case probe.Request:
		v = s.TimeoutRest
	}
	if v > 0 {
		return v
	}
	return s.Timeout
}

// HistoryCapacity is ChartLength with the disable sentinel mapped to zero.
func (s Settings) HistoryCapacity() int {
	if s.ChartLength < 0 {
		return 0
	}
	return s.ChartLength
}

// WarningThreshold returns WarningPing as a duration.
func (s Settings) WarningThreshold() time.Duration {
	return time.Duration(s.WarningPing) * time.Millisecond
}

// Merge returns own laid over inherited: each field of own wins when it is
// set, otherwise the inherited value is kept.
func Merge(inherited, own Settings) Settings {
	out := inherited
	pickDur := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	pickDur(&out.RefreshRate, own.RefreshRate)
	pickDur(&out.RefreshRatePing, own.RefreshRatePing)
	pickDur(&out.RefreshRateTCP, own.RefreshRateTCP)
	pickDur(&out.RefreshRateRest, own.RefreshRateRest)
	pickDur(&out.Timeout, own.Timeout)
	pickDur(&out.TimeoutPing, own.TimeoutPing)
	pickDur(&out.TimeoutTCP, own.TimeoutTCP)
	pickDur(&out.TimeoutRest, own.TimeoutRest)
	if own.WarningPing > 0 {
		out.WarningPing = own.WarningPing
	}
	if own.ChartLength != 0 {
		out.ChartLength = own.ChartLength
	}
	return out
}
