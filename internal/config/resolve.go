package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rileyhilliard/lookout/internal/errors"
	"github.com/rileyhilliard/lookout/internal/probe"
)

// ResolvedTarget is one server with its settings fully inherited.
type ResolvedTarget struct {
	ID          string           `yaml:"id"`
	Host        string           `yaml:"host"`
	Port        int              `yaml:"port,omitempty"`
	Scheme      string           `yaml:"scheme"`
	Path        string           `yaml:"path,omitempty"`
	Description string           `yaml:"description,omitempty"`
	Trace       bool             `yaml:"trace,omitempty"`
	GroupPath   []string         `yaml:"group_path,omitempty"`
	Protocols   []probe.Protocol `yaml:"protocols"`
	Settings    Settings         `yaml:"settings"`
}

// Address returns host or host:port.
func (t *ResolvedTarget) Address() string {
	if t.Port > 0 {
		return t.Host + ":" + strconv.Itoa(t.Port)
	}
	return t.Host
}

// ResolvedGroup mirrors a GroupNode with resolved children. The root group
// has an empty caption and holds the top-level servers.
type ResolvedGroup struct {
	Caption  string            `yaml:"caption,omitempty"`
	Path     []string          `yaml:"-"`
	Settings Settings          `yaml:"settings"`
	Targets  []*ResolvedTarget `yaml:"targets,omitempty"`
	Groups   []*ResolvedGroup  `yaml:"groups,omitempty"`
}

// Resolved is the output of Resolve.
type Resolved struct {
	Root    *ResolvedGroup    `yaml:"root"`
	Targets []*ResolvedTarget `yaml:"-"`
}

// Resolve walks the configuration tree depth first and merges each node's
// own settings over those inherited from its parent. It fails with an
// ErrConfig error when the tree has neither servers nor groups.
func Resolve(cfg *Config) (*Resolved, error) {
	if !cfg.IsValid() {
		return nil, errors.NewConfigInvalid("")
	}

	r := &Resolved{}
	root, err := resolveGroup(r, cfg, "", nil, cfg.Settings, cfg.Servers, cfg.Groups)
	if err != nil {
		return nil, err
	}
	r.Root = root
	return r, nil
}

func resolveGroup(r *Resolved, cfg *Config, caption string, path []string, settings Settings, servers []ServerNode, groups []GroupNode) (*ResolvedGroup, error) {
	g := &ResolvedGroup{
		Caption:  caption,
		Path:     path,
		Settings: settings,
	}

	for i, s := range servers {
		t, err := resolveTarget(cfg, path, settings, s, len(r.Targets))
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Invalid server #%d in %s", i+1, groupLabel(path)),
				"Check the 'servers' entries in your config file")
		}
		g.Targets = append(g.Targets, t)
		r.Targets = append(r.Targets, t)
	}

	for _, child := range groups {
		childPath := append(append([]string(nil), path...), child.Caption)
		cg, err := resolveGroup(r, cfg, child.Caption, childPath, Merge(settings, child.Settings), child.Servers, child.Groups)
		if err != nil {
			return nil, err
		}
		g.Groups = append(g.Groups, cg)
	}

	return g, nil
}

func resolveTarget(cfg *Config, path []string, inherited Settings, s ServerNode, index int) (*ResolvedTarget, error) {
	host := strings.TrimSpace(s.Host)
	if host == "" {
		return nil, fmt.Errorf("host is required")
	}

	protocols := make([]probe.Protocol, 0, len(s.Protocols))
	for _, name := range s.Protocols {
		p, err := probe.ParseProtocol(name)
		if err != nil {
			return nil, err
		}
		protocols = append(protocols, p)
	}

	scheme := strings.TrimSuffix(strings.ToLower(s.ProtocolPrefix), "://")
	if scheme == "" {
		scheme = "http"
	}

	t := &ResolvedTarget{
		Host:        host,
		Port:        s.Port,
		Scheme:      scheme,
		Path:        s.Method,
		Description: s.Description,
		Trace:       s.Trace || cfg.Trace,
		GroupPath:   path,
		Protocols:   protocols,
		Settings:    Merge(inherited, s.Settings),
	}
	t.ID = fmt.Sprintf("%s/%s#%d", strings.Join(path, "/"), t.Address(), index)
	return t, nil
}

func groupLabel(path []string) string {
	if len(path) == 0 {
		return "the top level"
	}
	return "group '" + strings.Join(path, "/") + "'"
}
