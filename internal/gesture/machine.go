package gesture

import (
	"math"
	"sync"
	"time"

	"knowme/internal/deck"
)

// State is the machine's position in the drag lifecycle.
type State int

const (
	// StateIdle means no gesture is in flight.
	StateIdle State = iota
	// StateDragging tracks an active pointer drag.
	StateDragging
	// StateCommitting covers the settle window between a commit decision and
	// its domain effect; the card is not interactive here.
	StateCommitting
)

// Direction is a committed swipe direction.
type Direction int

const (
	DirectionLeft Direction = iota
	DirectionRight
)

const (
	// CommitThreshold is the drag distance a gesture must exceed (strictly)
	// to commit. A drag ending exactly at the threshold snaps back.
	CommitThreshold = 75.0
	// SmallMotionThreshold is the distance past which a gesture counts as a
	// real drag rather than a tap.
	SmallMotionThreshold = 5.0
	// DefaultSettleDuration is how long the exit animation plays before the
	// committed effect fires.
	DefaultSettleDuration = 200 * time.Millisecond
	// ExitOffset is the off-canvas offset applied the instant a commit is
	// decided.
	ExitOffset = 1000.0
)

// Commit is the snapshot captured at the moment a swipe commits. The settle
// effect reads this snapshot, never live machine state, so a filter change
// during the settle window cannot redirect the effect.
type Commit struct {
	Direction Direction
	Mode      deck.FilterMode
	At        time.Time
}

// Config wires a machine to its surroundings.
type Config struct {
	// SettleDuration overrides DefaultSettleDuration when positive.
	SettleDuration time.Duration
	// Mode reports the active deck filter; read once per commit.
	Mode func() deck.FilterMode
	// OnCommit receives the committed snapshot after the settle duration.
	OnCommit func(Commit)
}

// Machine converts continuous drag input into discrete commit decisions.
// All methods are safe for a single logical gesture source; out-of-order
// calls degrade to no-ops rather than errors.
type Machine struct {
	mu       sync.Mutex
	state    State
	originX  float64
	deltaX   float64
	offset   float64
	realDrag bool
	expanded bool
	closed   bool

	settle   time.Duration
	mode     func() deck.FilterMode
	onCommit func(Commit)
	timer    *time.Timer
}

// NewMachine builds an idle machine.
func NewMachine(cfg Config) *Machine {
	settle := cfg.SettleDuration
	if settle <= 0 {
		settle = DefaultSettleDuration
	}
	mode := cfg.Mode
	if mode == nil {
		mode = func() deck.FilterMode { return deck.FilterUnknown }
	}
	return &Machine{
		settle:   settle,
		mode:     mode,
		onCommit: cfg.OnCommit,
	}
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Offset returns the observable horizontal offset: the live drag delta while
// dragging, the exit offset while committing, zero when idle.
func (m *Machine) Offset() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offset
}

// Expanded reports the card's expanded/collapsed display state.
func (m *Machine) Expanded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expanded
}

// DragStart begins tracking a drag from originX. A card mid-exit-animation
// is not interactive, so a start while committing is ignored.
func (m *Machine) DragStart(originX float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.state == StateCommitting {
		return
	}
	m.state = StateDragging
	m.originX = originX
	m.deltaX = 0
	m.offset = 0
	m.realDrag = false
}

// DragMove updates the drag delta. Outside DRAGGING it is a defensive no-op.
func (m *Machine) DragMove(currentX float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateDragging {
		return
	}
	m.deltaX = currentX - m.originX
	m.offset = m.deltaX
	if math.Abs(m.deltaX) > SmallMotionThreshold {
		m.realDrag = true
	}
}

// DragEnd resolves the drag: past the threshold it commits in the drag
// direction, otherwise the card snaps back to rest. Outside DRAGGING it is a
// defensive no-op.
func (m *Machine) DragEnd() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateDragging {
		return
	}
	switch {
	case m.deltaX > CommitThreshold:
		m.commitLocked(DirectionRight)
	case m.deltaX < -CommitThreshold:
		m.commitLocked(DirectionLeft)
	default:
		m.state = StateIdle
		m.deltaX = 0
		m.offset = 0
	}
}

// Commit applies a programmatic swipe (a button press). It produces the same
// committed effect as a drag commit and may fire straight from IDLE. A
// commit already in flight wins; overlapping commits on one card are
// ignored.
func (m *Machine) Commit(direction Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.state == StateCommitting {
		return
	}
	m.commitLocked(direction)
}

// Tap toggles the card's expanded state. It is suppressed while a gesture or
// commit is in flight, and when the preceding pointer-up ended a real drag
// (so releasing a swipe never accidentally expands the card). Returns the
// resulting expanded state.
func (m *Machine) Tap() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle || m.realDrag {
		m.realDrag = false
		return m.expanded
	}
	m.expanded = !m.expanded
	return m.expanded
}

// Close cancels any pending settle effect. No effect fires against a
// torn-down deck or viewer.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.state = StateIdle
	m.offset = 0
}

// commitLocked enters COMMITTING, applies the exit offset synchronously, and
// schedules the snapshot effect after the settle duration. Callers hold m.mu.
func (m *Machine) commitLocked(direction Direction) {
	snapshot := Commit{
		Direction: direction,
		Mode:      m.mode(),
		At:        time.Now().UTC(),
	}
	m.state = StateCommitting
	m.expanded = false
	if direction == DirectionRight {
		m.offset = ExitOffset
	} else {
		m.offset = -ExitOffset
	}
	m.timer = time.AfterFunc(m.settle, func() {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return
		}
		m.state = StateIdle
		m.deltaX = 0
		m.offset = 0
		m.realDrag = false
		m.timer = nil
		onCommit := m.onCommit
		m.mu.Unlock()
		if onCommit != nil {
			onCommit(snapshot)
		}
	})
}
