package game

import (
	"stolenpainting/internal/casefile"
	"stolenpainting/internal/debug"
)

type Phase int

const (
	Exploring Phase = iota
	Guessing
	Results
)

func (p Phase) String() string {
	switch p {
	case Exploring:
		return "exploring"
	case Guessing:
		return "guessing"
	case Results:
		return "results"
	default:
		return "unknown"
	}
}

// PhaseChange is published to subscribers after every transition.
type PhaseChange struct {
	Phase        Phase
	TimerSeconds int
	// Intro is set when a playthrough has just (re)started and the clock is waiting
	// for BeginExploration.
	Intro bool
	// Forced is set when the clock, not the player, caused the transition.
	Forced bool
}

// ChatResetter clears every conversation when a new playthrough starts.
type ChatResetter interface {
	ClearAll()
}

// Draft is the guessing screen state: the highlighted suspect and the explanation
// typed so far.
type Draft struct {
	Suspect     casefile.SuspectID `json:"suspect,omitempty"`
	Explanation string             `json:"explanation,omitempty"`
}

// Controller is the phase state machine. It owns the countdown and is the only caller
// of its Initialize. All methods must be called from the control goroutine.
type Controller struct {
	kase    *casefile.Case
	timer   *CountdownTimer
	tracker *InteractionTracker
	clues   *ClueBoard
	chats   ChatResetter
	debug   *debug.Logger

	phase Phase
	intro bool
	draft Draft
	guess Guess

	listeners []func(PhaseChange)
}

func NewController(kase *casefile.Case, timer *CountdownTimer, tracker *InteractionTracker, clues *ClueBoard, chats ChatResetter, debugLogger *debug.Logger) *Controller {
	c := &Controller{
		kase:    kase,
		timer:   timer,
		tracker: tracker,
		clues:   clues,
		chats:   chats,
		debug:   debugLogger,
		phase:   Exploring,
		intro:   true,
	}
	timer.OnExpire(c.onTimeout)
	return c
}

// Subscribe registers fn for phase change notifications.
func (c *Controller) Subscribe(fn func(PhaseChange)) {
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) Phase() Phase {
	return c.phase
}

// IntroPlaying reports whether the playthrough is waiting for BeginExploration.
func (c *Controller) IntroPlaying() bool {
	return c.intro
}

func (c *Controller) Draft() Draft {
	return c.draft
}

// Guess returns the recorded guess. It is only meaningful in the Results phase.
func (c *Controller) Guess() Guess {
	return c.guess
}

// Result evaluates the recorded guess.
func (c *Controller) Result() (Result, error) {
	if c.phase != Results {
		return Result{}, ErrWrongPhase
	}
	return Evaluate(c.kase, c.guess), nil
}

// Start begins a fresh playthrough: every interaction, clue, conversation and draft is
// cleared and the clock shows the exploration duration without running until the
// intro finishes.
func (c *Controller) Start() {
	c.tracker.Reset()
	c.clues.Reset()
	if c.chats != nil {
		c.chats.ClearAll()
	}
	c.draft = Draft{}
	c.guess = Guess{}
	c.phase = Exploring
	c.intro = true
	c.timer.Set(c.kase.Durations.ExploreSeconds)

	c.debug.Printf("Playthrough started, exploration %ds", c.kase.Durations.ExploreSeconds)
	c.publish(false)
}

// BeginExploration starts the exploration clock once the intro has played.
func (c *Controller) BeginExploration() error {
	if c.phase != Exploring || !c.intro {
		return ErrWrongPhase
	}
	c.intro = false
	c.timer.Initialize(c.kase.Durations.ExploreSeconds)
	c.debug.Printf("Exploration clock running")
	c.publish(false)
	return nil
}

// Restart leaves the results screen for a new playthrough.
func (c *Controller) Restart() error {
	if c.phase != Results {
		return ErrWrongPhase
	}
	c.Start()
	return nil
}

// Tick forwards one second from the tick source to the clock.
func (c *Controller) Tick(generation uint64) bool {
	return c.timer.Tick(generation)
}

// OpenClue shows a clue and counts it as a clue interaction.
func (c *Controller) OpenClue(id string) (ClueView, error) {
	if err := c.exploring(); err != nil {
		return ClueView{}, err
	}
	view, err := c.clues.Open(id)
	if err != nil {
		return ClueView{}, err
	}
	c.tracker.RecordClueInteraction()
	c.debug.Printf("Clue opened: %s", id)
	return view, nil
}

func (c *Controller) UnlockClue(id, password string) (ClueView, error) {
	if err := c.exploring(); err != nil {
		return ClueView{}, err
	}
	return c.clues.Unlock(id, password)
}

// RecordSuspectInteraction marks a completed conversation with a suspect. Outside
// exploration it is ignored.
func (c *Controller) RecordSuspectInteraction(id casefile.SuspectID) bool {
	if c.phase != Exploring {
		return false
	}
	if !c.tracker.RecordSuspectInteraction(id) {
		return false
	}
	c.debug.Printf("Suspect interaction recorded: %s (gate=%v)", id, c.tracker.CanGuess())
	return true
}

// EnterGuessing is the player's "submit guess" on the crime scene.
func (c *Controller) EnterGuessing() error {
	if err := c.exploring(); err != nil {
		return err
	}
	if !c.tracker.CanGuess() {
		return ErrGateNotSatisfied
	}
	c.enterGuessing(false)
	return nil
}

func (c *Controller) SelectSuspect(id casefile.SuspectID) error {
	if c.phase != Guessing {
		return ErrWrongPhase
	}
	if _, ok := c.kase.Suspect(id); !ok {
		return ErrUnknownSuspect
	}
	c.draft.Suspect = id
	return nil
}

func (c *Controller) WriteExplanation(text string) error {
	if c.phase != Guessing {
		return ErrWrongPhase
	}
	c.draft.Explanation = text
	return nil
}

// SubmitGuess accuses the drafted suspect. Both a suspect and a non-blank
// explanation are required.
func (c *Controller) SubmitGuess() error {
	if c.phase != Guessing {
		return ErrWrongPhase
	}
	if !c.draftGuess(false).Complete() {
		return ErrIncompleteGuess
	}
	c.submit(false)
	return nil
}

// onTimeout runs inside the tick that brought the clock to zero, so the gate is read
// in the same step as the expiry.
func (c *Controller) onTimeout() {
	switch c.phase {
	case Exploring:
		if c.tracker.CanGuess() {
			c.debug.Printf("Exploration timed out with gate satisfied")
			c.enterGuessing(true)
			return
		}
		c.debug.Printf("Exploration timed out with gate unsatisfied")
		c.enterResults(Guess{Forced: true}, true)
	case Guessing:
		c.debug.Printf("Guessing timed out, force submitting %+v", c.draft)
		c.submit(true)
	}
}

func (c *Controller) enterGuessing(forced bool) {
	c.phase = Guessing
	c.draft = Draft{}
	c.clues.Close()
	c.timer.Initialize(c.kase.Durations.GuessSeconds)
	c.debug.Printf("Phase -> guessing (forced=%v)", forced)
	c.publish(forced)
}

func (c *Controller) submit(forced bool) {
	g := c.draftGuess(forced)
	if !g.Complete() {
		// A half-filled draft at timeout counts as no accusation at all.
		g = Guess{Forced: forced}
	}
	c.enterResults(g, forced)
}

func (c *Controller) draftGuess(forced bool) Guess {
	return Guess{
		Suspect:     c.draft.Suspect,
		Explanation: c.draft.Explanation,
		Forced:      forced,
	}
}

func (c *Controller) enterResults(g Guess, forced bool) {
	c.phase = Results
	c.guess = g
	c.timer.Initialize(0)
	c.debug.Printf("Phase -> results (suspect=%q forced=%v)", g.Suspect, forced)
	c.publish(forced)
}

// CanExplore reports why crime scene actions are refused, or nil when they are allowed.
func (c *Controller) CanExplore() error {
	return c.exploring()
}

func (c *Controller) exploring() error {
	if c.phase != Exploring {
		return ErrWrongPhase
	}
	if c.intro {
		return ErrIntroPlaying
	}
	return nil
}

func (c *Controller) publish(forced bool) {
	change := PhaseChange{
		Phase:        c.phase,
		TimerSeconds: c.timer.Remaining(),
		Intro:        c.intro,
		Forced:       forced,
	}
	for _, fn := range c.listeners {
		fn(change)
	}
}
