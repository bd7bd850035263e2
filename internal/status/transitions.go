package status

import "time"

// BannerDuration is how long a transition stays visible.
const BannerDuration = 3 * time.Second

// EventKind names a global transition.
type EventKind int

const (
	ConnectionLost EventKind = iota + 1
	ConnectionRestored
)

// String returns a human-readable representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case ConnectionLost:
		return "connection_lost"
	case ConnectionRestored:
		return "connection_restored"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind as its string form.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event is one global transition.
type Event struct {
	Kind    EventKind `json:"kind"`
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// Transitions watches the global state for lost/restored edges. A Failed
// state observed before any non-Failed one is not reported.
type Transitions struct {
	armed  bool
	failed bool
	last   *Event
}

// Observe feeds the current global state and returns the event it caused,
// if any.
func (tr *Transitions) Observe(s State, now time.Time) (Event, bool) {
	var ev Event
	switch {
	case tr.armed && !tr.failed && s == Failed:
		tr.failed = true
		ev = Event{Kind: ConnectionLost, At: now, Message: MessageFailing}
	case tr.failed && s != Failed:
		tr.failed = false
		ev = Event{Kind: ConnectionRestored, At: now, Message: MessageOK}
	case !tr.armed && s != Failed:
		tr.armed = true
		return Event{}, false
	default:
		return Event{}, false
	}
	tr.last = &ev
	return ev, true
}

// Banner returns the most recent event while it is younger than
// BannerDuration.
func (tr *Transitions) Banner(now time.Time) (Event, bool) {
	if tr.last == nil || now.Sub(tr.last.At) >= BannerDuration {
		return Event{}, false
	}
	return *tr.last, true
}
