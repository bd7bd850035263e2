package config

import (
	"testing"
	"time"

	"github.com/rileyhilliard/lookout/internal/errors"
	"github.com/rileyhilliard/lookout/internal/probe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge(t *testing.T) {
	inherited := Settings{
		RefreshRate:     5 * time.Second,
		RefreshRatePing: 2 * time.Second,
		Timeout:         3 * time.Second,
		WarningPing:     150,
		ChartLength:     60,
	}

	tests := []struct {
		name string
		own  Settings
		want Settings
	}{
		{
			name: "empty own inherits everything",
			own:  Settings{},
			want: inherited,
		},
		{
			name: "positive own wins per field",
			own:  Settings{RefreshRatePing: time.Second, TimeoutRest: 8 * time.Second, WarningPing: 80},
			want: Settings{
				RefreshRate:     5 * time.Second,
				RefreshRatePing: time.Second,
				Timeout:         3 * time.Second,
				TimeoutRest:     8 * time.Second,
				WarningPing:     80,
				ChartLength:     60,
			},
		},
		{
			name: "negative chart length disables history",
			own:  Settings{ChartLength: -1},
			want: Settings{
				RefreshRate:     5 * time.Second,
				RefreshRatePing: 2 * time.Second,
				Timeout:         3 * time.Second,
				WarningPing:     150,
				ChartLength:     -1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(inherited, tt.own))
		})
	}
}

func TestResolve_Inheritance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RefreshRate = 4 * time.Second
	cfg.Servers = []ServerNode{
		{Host: "top.example", Protocols: []string{"ping"}},
	}
	cfg.Groups = []GroupNode{
		{
			Caption:  "Prod",
			Settings: Settings{RefreshRatePing: time.Second, WarningPing: 50},
			Servers: []ServerNode{
				{Host: "api.example", Port: 8443, ProtocolPrefix: "https://", Method: "/ping", Protocols: []string{"ping", "get", "tcp"}},
			},
			Groups: []GroupNode{
				{
					Caption:  "DB",
					Settings: Settings{Timeout: 6 * time.Second},
					Servers: []ServerNode{
						{Host: "db.example", Port: 5432, Protocols: []string{"tcp"}, Settings: Settings{WarningPing: 300}},
					},
				},
			},
		},
	}

	r, err := Resolve(cfg)
	require.NoError(t, err)
	require.Len(t, r.Targets, 3)

	top := r.Targets[0]
	assert.Equal(t, "top.example", top.Host)
	assert.Equal(t, 4*time.Second, top.Settings.RefreshFor(probe.Reachability))
	assert.Equal(t, 150, top.Settings.WarningPing)
	assert.Empty(t, top.GroupPath)
	assert.Equal(t, "http", top.Scheme)

	api := r.Targets[1]
	assert.Equal(t, []string{"Prod"}, api.GroupPath)
	assert.Equal(t, time.Second, api.Settings.RefreshFor(probe.Reachability))
	assert.Equal(t, 4*time.Second, api.Settings.RefreshFor(probe.Request))
	assert.Equal(t, 50, api.Settings.WarningPing)
	assert.Equal(t, "https", api.Scheme)
	assert.Equal(t, "/ping", api.Path)
	assert.Equal(t, "api.example:8443", api.Address())
	assert.Equal(t, []probe.Protocol{
		{Kind: probe.Reachability},
		{Kind: probe.Request, Method: "GET"},
		{Kind: probe.Connection},
	}, api.Protocols)

	db := r.Targets[2]
	assert.Equal(t, []string{"Prod", "DB"}, db.GroupPath)
	assert.Equal(t, 6*time.Second, db.Settings.TimeoutFor(probe.Connection))
	assert.Equal(t, time.Second, db.Settings.RefreshFor(probe.Reachability), "grandparent value flows down")
	assert.Equal(t, 300, db.Settings.WarningPing, "leaf value beats ancestors")

	require.Len(t, r.Root.Targets, 1)
	require.Len(t, r.Root.Groups, 1)
	assert.Equal(t, "Prod", r.Root.Groups[0].Caption)
	require.Len(t, r.Root.Groups[0].Groups, 1)
	assert.Same(t, db, r.Root.Groups[0].Groups[0].Targets[0])
}

func TestResolve_UniqueIDs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Servers = []ServerNode{
		{Host: "same.example", Protocols: []string{"ping"}},
		{Host: "same.example", Protocols: []string{"ping"}},
	}

	r, err := Resolve(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, r.Targets[0].ID, r.Targets[1].ID)
}

func TestResolve_Invalid(t *testing.T) {
	_, err := Resolve(DefaultConfig())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))

	_, err = Resolve(nil)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestResolve_EmptySectionsAreValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Groups = []GroupNode{}

	r, err := Resolve(cfg)
	require.NoError(t, err)
	assert.Empty(t, r.Targets)
}

func TestResolve_BadServer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Groups = []GroupNode{{Caption: "G", Servers: []ServerNode{{Host: "x", Protocols: []string{"gopher"}}}}}

	_, err := Resolve(cfg)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), "gopher")
}
