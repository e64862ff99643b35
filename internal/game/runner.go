package game

import (
	"context"
	"errors"
	"time"

	"stolenpainting/internal/casefile"
	"stolenpainting/internal/chat"
)

var ErrRunnerStopped = errors.New("game loop stopped")

type applied struct {
	update chat.Update
	err    error
}

// Runner owns an Engine on one goroutine for headless play. Every mutation goes through
// Do, the clock ticks once per interval while it is running, and chat requests run on
// their own goroutines and post their replies back into the loop.
type Runner struct {
	engine   *Engine
	interval time.Duration

	ops  chan func()
	done chan struct{}

	// Loop goroutine only.
	waiters map[uint64]chan applied
	ctx     context.Context
}

func NewRunner(engine *Engine, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = time.Second
	}
	return &Runner{
		engine:   engine,
		interval: interval,
		ops:      make(chan func()),
		done:     make(chan struct{}),
		waiters:  make(map[uint64]chan applied),
	}
}

// Run serves the loop until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)
	r.ctx = ctx

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	generation := r.engine.Timer.Generation()

	for {
		select {
		case <-ctx.Done():
			r.engine.Close()
			return nil
		case op := <-r.ops:
			op()
		case <-ticker.C:
			r.engine.Tick(generation)
		}

		r.flush()
		// A new schedule starts a full interval from now.
		if g := r.engine.Timer.Generation(); g != generation {
			generation = g
			ticker.Reset(r.interval)
		}
	}
}

// Do runs fn on the loop goroutine and waits for it.
func (r *Runner) Do(ctx context.Context, fn func(*Engine) error) error {
	result := make(chan error, 1)
	op := func() { result <- fn(r.engine) }

	select {
	case r.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return ErrRunnerStopped
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State takes a snapshot on the loop goroutine.
func (r *Runner) State(ctx context.Context) (State, error) {
	var s State
	err := r.Do(ctx, func(e *Engine) error {
		s = e.State()
		return nil
	})
	return s, err
}

// Talk sends text to a suspect and waits until the reply has been applied.
func (r *Runner) Talk(ctx context.Context, id casefile.SuspectID, text string) (chat.Update, error) {
	return r.await(ctx, func(e *Engine) (uint64, error) { return e.Talk(id, text) })
}

// OpenSuspect switches to a suspect and waits for their opening line.
func (r *Runner) OpenSuspect(ctx context.Context, id casefile.SuspectID) (chat.Update, error) {
	return r.await(ctx, func(e *Engine) (uint64, error) { return e.OpenSuspect(id) })
}

func (r *Runner) await(ctx context.Context, send func(*Engine) (uint64, error)) (chat.Update, error) {
	var wait chan applied
	err := r.Do(ctx, func(e *Engine) error {
		id, err := send(e)
		if err != nil {
			return err
		}
		wait = make(chan applied, 1)
		r.waiters[id] = wait
		return nil
	})
	if err != nil {
		return chat.Update{}, err
	}

	select {
	case a := <-wait:
		return a.update, a.err
	case <-ctx.Done():
		return chat.Update{}, ctx.Err()
	case <-r.done:
		return chat.Update{}, ErrRunnerStopped
	}
}

func (r *Runner) flush() {
	for _, d := range r.engine.Dispatches() {
		go r.run(r.engine.Context(), d)
	}
}

func (r *Runner) run(ctx context.Context, d *chat.Dispatch) {
	reply := d.Run(ctx)
	op := func() {
		update, err := r.engine.ApplyReply(reply)
		if wait, ok := r.waiters[reply.ID]; ok {
			delete(r.waiters, reply.ID)
			wait <- applied{update: update, err: err}
		}
	}
	select {
	case r.ops <- op:
	case <-r.done:
	case <-r.ctx.Done():
	}
}
