package game

import "fmt"

// CountdownTimer is the single game clock. It does not own a goroutine: a tick source
// (tea.Tick in the TUI, the Runner in headless mode) calls Tick once per second with the
// generation it was scheduled for. Initialize bumps the generation, so a tick source
// started for an earlier schedule can never advance the clock again.
type CountdownTimer struct {
	remaining  int
	ticksLeft  int
	running    bool
	generation uint64
	observers  []func(remaining int)
	onExpire   func()
}

func NewCountdownTimer() *CountdownTimer {
	return &CountdownTimer{}
}

// Initialize resets the clock to seconds. A positive value schedules exactly that many
// ticks; zero (or less) stops the clock. It returns the generation a tick source must
// present to Tick.
func (t *CountdownTimer) Initialize(seconds int) uint64 {
	if seconds < 0 {
		seconds = 0
	}
	t.generation++
	t.remaining = seconds
	t.ticksLeft = seconds
	t.running = seconds > 0
	t.notify()
	return t.generation
}

// Set shows seconds on the clock without scheduling any ticks. Used while the intro
// plays before exploration starts.
func (t *CountdownTimer) Set(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	t.generation++
	t.remaining = seconds
	t.ticksLeft = 0
	t.running = false
	t.notify()
}

// Tick advances the clock by one second. Ticks from a stale generation, or arriving
// after the schedule ran out, are ignored and report false. When the clock reaches
// zero the expiry handler runs before Tick returns.
func (t *CountdownTimer) Tick(generation uint64) bool {
	if generation != t.generation || !t.running {
		return false
	}

	if t.remaining > 0 {
		t.remaining--
	}
	t.ticksLeft--
	if t.ticksLeft <= 0 || t.remaining == 0 {
		t.running = false
	}
	t.notify()

	if t.remaining == 0 && t.onExpire != nil {
		t.onExpire()
	}
	return true
}

// Observe registers fn to be called with the remaining seconds on every change.
func (t *CountdownTimer) Observe(fn func(remaining int)) {
	t.observers = append(t.observers, fn)
}

// OnExpire sets the handler run synchronously when a tick brings the clock to zero.
func (t *CountdownTimer) OnExpire(fn func()) {
	t.onExpire = fn
}

func (t *CountdownTimer) Remaining() int {
	return t.remaining
}

func (t *CountdownTimer) Running() bool {
	return t.running
}

func (t *CountdownTimer) Generation() uint64 {
	return t.generation
}

func (t *CountdownTimer) notify() {
	for _, fn := range t.observers {
		fn(t.remaining)
	}
}

// FormatClock renders seconds as mm:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
