package engine

import (
	"time"

	"github.com/rileyhilliard/lookout/internal/lookup"
	"github.com/rileyhilliard/lookout/internal/probe"
	"github.com/rileyhilliard/lookout/internal/scheduler"
	"github.com/rileyhilliard/lookout/internal/status"
)

// Snapshot is an immutable copy of the engine state after one tick.
type Snapshot struct {
	Configured bool           `json:"configured"`
	Source     string         `json:"source,omitempty"`
	Seq        uint64         `json:"seq"`
	At         time.Time      `json:"at"`
	Global     status.Global  `json:"global"`
	Banner     *status.Event  `json:"banner,omitempty"`
	Root       *GroupView     `json:"root,omitempty"`
	Targets    []TargetView   `json:"targets"`
	index      map[string]int
}

// Target returns the view of one target by ID.
func (s *Snapshot) Target(id string) (TargetView, bool) {
	i, ok := s.index[id]
	if !ok {
		return TargetView{}, false
	}
	return s.Targets[i], true
}

// GroupView is one node of the group tree.
type GroupView struct {
	Caption string       `json:"caption,omitempty"`
	Path    []string     `json:"path,omitempty"`
	Flag    status.State `json:"flag"`
	Targets []string     `json:"targets,omitempty"`
	Groups  []*GroupView `json:"groups,omitempty"`
}

// TargetView is the presentation state of one target.
type TargetView struct {
	ID          string            `json:"id"`
	Host        string            `json:"host"`
	Address     string            `json:"address"`
	Description string            `json:"description,omitempty"`
	GroupPath   []string          `json:"group_path,omitempty"`
	State       status.State      `json:"state"`
	Completed   bool              `json:"completed"`
	Protocols   []ProtocolView    `json:"protocols"`
	Location    *lookup.GeoRecord `json:"location,omitempty"`
	Route       []lookup.RouteHop `json:"route,omitempty"`
}

// ProtocolView is the presentation state of one (target, protocol) pair.
// Text and Classification come from the current probe once it is done and
// from the last retired probe while it is still in flight.
type ProtocolView struct {
	Protocol       string    `json:"protocol"`
	Kind           string    `json:"kind"`
	Pending        bool      `json:"pending"`
	Classification string    `json:"classification"`
	Text           string    `json:"text"`
	RefreshMS      int64     `json:"refresh_ms"`
	TimeoutMS      int64     `json:"timeout_ms"`
	WarningMS      int64     `json:"warning_ms,omitempty"`
	DispatchedAt   time.Time `json:"dispatched_at"`
	History        []float64 `json:"history"`
}

func groupView(g *status.Group) *GroupView {
	v := &GroupView{Caption: g.Caption, Path: g.Path, Flag: g.Flag()}
	for _, t := range g.Targets {
		v.Targets = append(v.Targets, t.ID())
	}
	for _, child := range g.Groups {
		v.Groups = append(v.Groups, groupView(child))
	}
	return v
}

func targetView(t *status.Target) TargetView {
	rt := t.Config()
	v := TargetView{
		ID:          rt.ID,
		Host:        rt.Host,
		Address:     rt.Address(),
		Description: rt.Description,
		GroupPath:   rt.GroupPath,
		State:       t.State(),
		Completed:   t.Completed(),
		Protocols:   make([]ProtocolView, 0, len(t.Schedulers())),
	}
	for _, s := range t.Schedulers() {
		v.Protocols = append(v.Protocols, protocolView(s))
	}
	return v
}

func protocolView(s *scheduler.Scheduler) ProtocolView {
	cur := s.Current()
	v := ProtocolView{
		Protocol:     s.Protocol().String(),
		Kind:         s.Protocol().Kind.String(),
		RefreshMS:    s.Refresh().Milliseconds(),
		TimeoutMS:    s.Timeout().Milliseconds(),
		DispatchedAt: cur.DispatchedAt(),
		History:      s.History().Samples(),
	}
	if s.Protocol().Kind == probe.Reachability {
		v.WarningMS = s.Warning().Milliseconds()
	}

	shown := cur
	if cur.Poll() != probe.Done {
		v.Pending = true
		shown = s.Last()
	}
	if shown != nil {
		v.Classification = shown.Classification().String()
		v.Text = shown.Text()
	} else {
		v.Classification = probe.Unclassified.String()
	}
	return v
}
