package game

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stolenpainting/internal/casefile"
	"stolenpainting/internal/chat"
	"stolenpainting/internal/debug"
	"stolenpainting/internal/observability"
)

type Options struct {
	ChatTimeout time.Duration
	Debug       *debug.Logger
	Tracer      trace.Tracer
}

// Engine wires one case to its clock, tracker, clue board, phase controller and
// conversations. Like its parts it is owned by a single control goroutine: the bubbletea
// Update loop in the TUI or a Runner in headless mode.
//
// Chat requests produced by any action are queued; the owner drains them with
// Dispatches, runs each off the control goroutine and hands the reply back to
// ApplyReply.
type Engine struct {
	Case       *casefile.Case
	Timer      *CountdownTimer
	Tracker    *InteractionTracker
	Clues      *ClueBoard
	Controller *Controller
	Chats      *chat.Manager

	debug  *debug.Logger
	tracer trace.Tracer

	playthroughID string
	ctx           context.Context
	span          trace.Span

	outbox      []*chat.Dispatch
	critiqueErr error
	clock       string
}

func NewEngine(kase *casefile.Case, completer chat.Completer, opts Options) *Engine {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("game-engine")
	}

	e := &Engine{
		Case:    kase,
		Timer:   NewCountdownTimer(),
		Tracker: NewInteractionTracker(kase.SuspectIDs()),
		Clues:   NewClueBoard(kase.Clues),
		Chats:   chat.NewManager(kase, completer, opts.ChatTimeout, opts.Debug),
		debug:   opts.Debug,
		tracer:  tracer,
		ctx:     context.Background(),
		clock:   FormatClock(0),
	}
	e.Timer.Observe(func(remaining int) {
		e.clock = FormatClock(remaining)
	})
	e.Controller = NewController(kase, e.Timer, e.Tracker, e.Clues, e.Chats, opts.Debug)
	e.Controller.Subscribe(e.onPhaseChange)
	return e
}

// Start begins the first playthrough.
func (e *Engine) Start() {
	e.Controller.Start()
}

// Close ends the current playthrough span.
func (e *Engine) Close() {
	if e.span != nil {
		e.span.End()
		e.span = nil
	}
}

// PlaythroughID identifies the current playthrough in traces and the completion journal.
func (e *Engine) PlaythroughID() string {
	return e.playthroughID
}

// Context carries the playthrough span and session id. Dispatches should run under it.
func (e *Engine) Context() context.Context {
	return e.ctx
}

// Clock is the mm:ss line shown in the header, updated on every timer change.
func (e *Engine) Clock() string {
	return e.clock
}

func (e *Engine) BeginExploration() error {
	return e.Controller.BeginExploration()
}

func (e *Engine) Restart() error {
	return e.Controller.Restart()
}

func (e *Engine) Tick(generation uint64) bool {
	return e.Controller.Tick(generation)
}

func (e *Engine) OpenClue(id string) (ClueView, error) {
	return e.Controller.OpenClue(id)
}

func (e *Engine) UnlockClue(id, password string) (ClueView, error) {
	return e.Controller.UnlockClue(id, password)
}

// CloseClue puts the open clue away.
func (e *Engine) CloseClue() {
	e.Clues.Close()
}

// OpenSuspect switches the interview to a suspect and requests their opening line.
// It returns the request id.
func (e *Engine) OpenSuspect(id casefile.SuspectID) (uint64, error) {
	if err := e.Controller.CanExplore(); err != nil {
		return 0, err
	}
	if _, ok := e.Case.Suspect(id); !ok {
		return 0, ErrUnknownSuspect
	}
	d, err := e.Chats.SwitchTo(chat.SuspectSpeaker(id))
	if err != nil {
		return 0, err
	}
	e.outbox = append(e.outbox, d)
	return d.ID, nil
}

// Talk sends the player's message to a suspect. It returns the request id.
func (e *Engine) Talk(id casefile.SuspectID, text string) (uint64, error) {
	if err := e.Controller.CanExplore(); err != nil {
		return 0, err
	}
	if _, ok := e.Case.Suspect(id); !ok {
		return 0, ErrUnknownSuspect
	}
	d, err := e.Chats.Send(chat.SuspectSpeaker(id), text)
	if err != nil {
		return 0, err
	}
	e.outbox = append(e.outbox, d)
	return d.ID, nil
}

func (e *Engine) EnterGuessing() error {
	return e.Controller.EnterGuessing()
}

func (e *Engine) SelectSuspect(id casefile.SuspectID) error {
	return e.Controller.SelectSuspect(id)
}

func (e *Engine) WriteExplanation(text string) error {
	return e.Controller.WriteExplanation(text)
}

func (e *Engine) SubmitGuess() error {
	return e.Controller.SubmitGuess()
}

// Dispatches hands over the chat requests queued since the last call.
func (e *Engine) Dispatches() []*chat.Dispatch {
	out := e.outbox
	e.outbox = nil
	return out
}

// ApplyReply applies a finished request. A completed reply to a message the player
// typed counts as talking to that suspect.
func (e *Engine) ApplyReply(reply chat.Reply) (chat.Update, error) {
	update, err := e.Chats.Apply(reply)
	if reply.Speaker == chat.Feedback && err != nil && !errors.Is(err, chat.ErrSuperseded) {
		e.critiqueErr = err
	}
	if err != nil {
		return update, err
	}

	if update.UserAuthored && update.Speaker != chat.Feedback {
		e.Controller.RecordSuspectInteraction(casefile.SuspectID(update.Speaker))
	}
	return update, nil
}

// Critique is the feedback speaker's state on the results screen.
type Critique struct {
	Pending bool   `json:"pending"`
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (e *Engine) Critique() Critique {
	c := Critique{Pending: e.Chats.Pending(chat.Feedback)}
	for _, line := range e.Chats.Transcript(chat.Feedback) {
		if line.Role == chat.RoleAssistant {
			c.Text = line.Text
		}
	}
	if e.critiqueErr != nil {
		c.Error = e.critiqueErr.Error()
	}
	return c
}

func (e *Engine) onPhaseChange(change PhaseChange) {
	e.debug.Printf("Engine: phase=%s timer=%d intro=%v forced=%v", change.Phase, change.TimerSeconds, change.Intro, change.Forced)

	switch {
	case change.Phase == Exploring && change.Intro:
		e.newPlaythrough()
	case change.Phase == Results:
		e.requestCritique()
	}
	if e.span != nil {
		e.span.AddEvent("phase", trace.WithAttributes(
			attribute.String("game.phase", change.Phase.String()),
			attribute.Bool("game.forced", change.Forced),
		))
	}
}

func (e *Engine) newPlaythrough() {
	e.Close()
	e.outbox = nil
	e.critiqueErr = nil
	e.playthroughID = uuid.NewString()

	ctx := observability.WithSessionID(context.Background(), e.playthroughID)
	e.ctx, e.span = e.tracer.Start(ctx, "playthrough",
		trace.WithAttributes(observability.PlaythroughAttributes(e.playthroughID, e.Case.Title)...))
	e.debug.Printf("Engine: playthrough %s", e.playthroughID)
}

func (e *Engine) requestCritique() {
	result, err := e.Controller.Result()
	if err != nil || !result.NeedsCritique() {
		return
	}
	d, err := e.Chats.Critique(result.Guess.Explanation)
	if err != nil {
		e.debug.Printf("Engine: critique not requested: %v", err)
		e.critiqueErr = err
		return
	}
	e.outbox = append(e.outbox, d)
}
