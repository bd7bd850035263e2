package cli

import (
	"io"
	"time"

	"github.com/rileyhilliard/lookout/internal/config"
	"github.com/rileyhilliard/lookout/internal/probe"
	"github.com/rileyhilliard/lookout/internal/scheduler"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// flatTarget is one target of `resolve --flat`.
type flatTarget struct {
	ID          string         `yaml:"id"`
	Address     string         `yaml:"address"`
	Description string         `yaml:"description,omitempty"`
	Trace       bool           `yaml:"trace,omitempty"`
	Protocols   []flatProtocol `yaml:"protocols"`
}

// flatProtocol carries the settings a protocol's scheduler will run with.
type flatProtocol struct {
	Protocol string        `yaml:"protocol"`
	Refresh  time.Duration `yaml:"refresh"`
	Timeout  time.Duration `yaml:"timeout"`
	Warning  time.Duration `yaml:"warning,omitempty"`
	History  int           `yaml:"history"`
}

func resolveCommand(cmd *cobra.Command, flat bool) error {
	cfg, _, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	resolved, err := config.Resolve(cfg)
	if err != nil {
		return err
	}
	return writeResolved(cmd.OutOrStdout(), resolved, flat)
}

func writeResolved(w io.Writer, r *config.Resolved, flat bool) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()

	if !flat {
		return enc.Encode(r)
	}
	return enc.Encode(flattenTargets(r.Targets))
}

func flattenTargets(targets []*config.ResolvedTarget) []flatTarget {
	out := make([]flatTarget, 0, len(targets))
	for _, t := range targets {
		ft := flatTarget{
			ID:          t.ID,
			Address:     t.Address(),
			Description: t.Description,
			Trace:       t.Trace,
			Protocols:   make([]flatProtocol, 0, len(t.Protocols)),
		}
		for _, p := range t.Protocols {
			ft.Protocols = append(ft.Protocols, effectiveProtocol(t.Settings, p))
		}
		out = append(out, ft)
	}
	return out
}

// effectiveProtocol applies the same fallbacks the schedulers do.
func effectiveProtocol(s config.Settings, p probe.Protocol) flatProtocol {
	fp := flatProtocol{
		Protocol: p.String(),
		Refresh:  s.RefreshFor(p.Kind),
		Timeout:  s.TimeoutFor(p.Kind),
		History:  s.HistoryCapacity(),
	}
	if fp.Refresh <= 0 {
		fp.Refresh = scheduler.DefaultRefresh
	}
	if fp.Timeout <= 0 {
		fp.Timeout = probe.DefaultTimeout
	}
	if p.Kind == probe.Reachability {
		fp.Warning = s.WarningThreshold()
	}
	return fp
}
