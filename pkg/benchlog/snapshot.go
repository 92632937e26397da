package benchlog

import "time"

// SnapshotModule is the module tag of memiavl snapshot lifecycle records.
const SnapshotModule = "memiavl"

// Snapshot lifecycle messages, in the order memiavl emits them.
const (
	msgSnapshotStart    = "start rewriting snapshot"
	msgSnapshotFinished = "finished rewriting snapshot"
	msgSnapshotCatchup  = "finished best-effort WAL catchup"
	msgSnapshotSwitched = "switched to new snapshot"
)

// snapshotTracker follows memiavl snapshot rewrites. Only a start event
// opens a new occurrence; every later phase is recorded on the occurrence
// that is currently open. Phases that arrive with no open occurrence are
// dropped, and a delta is only computed when its earlier endpoint was seen.
type snapshotTracker struct {
	events  []SnapshotEvent
	current int
}

func newSnapshotTracker() *snapshotTracker {
	return &snapshotTracker{current: -1}
}

// observe applies one memiavl message. It reports whether the message was a
// snapshot lifecycle message.
func (s *snapshotTracker) observe(msg string, version int64, at time.Time) bool {
	if msg == msgSnapshotStart {
		s.events = append(s.events, SnapshotEvent{Version: version, Start: at})
		s.current = len(s.events) - 1

		return true
	}

	switch msg {
	case msgSnapshotFinished, msgSnapshotCatchup, msgSnapshotSwitched:
	default:
		return false
	}

	if s.current < 0 {
		return true
	}

	ev := &s.events[s.current]

	switch msg {
	case msgSnapshotFinished:
		ev.End = at
		ev.Duration = since(ev.Start, at)
	case msgSnapshotCatchup:
		ev.WALCatchup = at
		ev.CatchupDuration = since(ev.End, at)
	case msgSnapshotSwitched:
		ev.SwitchTime = at
		ev.SwitchVersion = version
		ev.SyncDuration = since(ev.WALCatchup, at)
	}

	return true
}

// table returns the collected occurrences, or nil when no snapshot was ever
// started.
func (s *snapshotTracker) table() *Table[SnapshotEvent] {
	if len(s.events) == 0 {
		return nil
	}

	t := NewTable(s.events)

	return &t
}

func since(from, to time.Time) time.Duration {
	if from.IsZero() || to.IsZero() {
		return 0
	}

	return to.Sub(from)
}
