package status

import (
	"github.com/rileyhilliard/lookout/internal/config"
	"github.com/rileyhilliard/lookout/internal/probe"
)

// Banner texts of the global status.
const (
	MessageOK        = "All is OK"
	MessageAttention = "All is OK, but some attention required"
	MessageFailing   = "Some services not responding"
	MessageWaiting   = "Waiting for first results"
)

// Group is a node of the status tree. It holds non-owning references to
// the targets of its resolved group and to its child groups.
type Group struct {
	Caption string
	Path    []string
	Targets []*Target
	Groups  []*Group

	flag State
}

// NewTree builds the status tree for a resolved configuration, creating one
// Target per resolved server in the same order as resolved.Targets.
func NewTree(resolved *config.Resolved, d *probe.Dispatcher) (*Group, []*Target) {
	var all []*Target
	root := newGroup(resolved.Root, d, &all)
	return root, all
}

func newGroup(rg *config.ResolvedGroup, d *probe.Dispatcher, all *[]*Target) *Group {
	g := &Group{Caption: rg.Caption, Path: rg.Path}
	for _, rt := range rg.Targets {
		t := NewTarget(rt, d)
		g.Targets = append(g.Targets, t)
		*all = append(*all, t)
	}
	for _, child := range rg.Groups {
		g.Groups = append(g.Groups, newGroup(child, d, all))
	}
	return g
}

// Recompute refreshes the flag of g and every descendant group: Failed if
// any descendant target is Failed, else Warning if any is Warning, else
// Success. Targets without a result yet count as Success.
func (g *Group) Recompute() State {
	flag := Success
	for _, t := range g.Targets {
		if s := t.State(); worse(s, flag) {
			flag = s
		}
	}
	for _, child := range g.Groups {
		if s := child.Recompute(); worse(s, flag) {
			flag = s
		}
	}
	g.flag = flag
	return flag
}

// Flag is the result of the last Recompute.
func (g *Group) Flag() State { return g.flag }

// Walk visits every target below g depth first, own targets before child
// groups.
func (g *Group) Walk(fn func(*Target)) {
	for _, t := range g.Targets {
		fn(t)
	}
	for _, child := range g.Groups {
		child.Walk(fn)
	}
}

// Global is the rollup over every target of the tree.
type Global struct {
	State    State  `json:"state"`
	Awaiting bool   `json:"awaiting"`
	Message  string `json:"message"`
	Total    int    `json:"total"`
	Failed   int    `json:"failed"`
	Warning  int    `json:"warning"`
	Success  int    `json:"success"`
	Pending  int    `json:"pending"`
}

// Summarize derives the global state with the same precedence as groups.
// Awaiting is set while any target has not completed its first cycle.
func Summarize(targets []*Target) Global {
	g := Global{State: Success, Total: len(targets)}
	for _, t := range targets {
		switch t.State() {
		case Failed:
			g.Failed++
		case Warning:
			g.Warning++
		case Success:
			g.Success++
		default:
			g.Pending++
		}
		if worse(t.State(), g.State) {
			g.State = t.State()
		}
	}
	g.Awaiting = g.Pending > 0

	switch {
	case g.Total > 0 && g.Pending == g.Total:
		g.Message = MessageWaiting
	case g.State == Failed:
		g.Message = MessageFailing
	case g.State == Warning:
		g.Message = MessageAttention
	default:
		g.Message = MessageOK
	}
	return g
}
