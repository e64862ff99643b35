package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"stolenpainting/internal/casefile"
)

type fakeCompleter struct {
	mu       sync.Mutex
	calls    []CompletionRequest
	reply    string
	err      error
	blocking bool
}

func (f *fakeCompleter) Complete(ctx context.Context, req CompletionRequest) (Message, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if f.blocking {
		<-ctx.Done()
		return Message{}, ctx.Err()
	}
	if f.err != nil {
		return Message{}, f.err
	}
	return Message{Role: RoleAssistant, Content: f.reply}, nil
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestManager(t *testing.T, completer Completer) *Manager {
	t.Helper()
	kase, err := casefile.Load()
	if err != nil {
		t.Fatalf("casefile.Load() error = %v", err)
	}
	return NewManager(kase, completer, time.Second, nil)
}

const guard = SpeakerID("guard")

func TestSendRejectsEmptyText(t *testing.T) {
	fc := &fakeCompleter{reply: "hello"}
	m := newTestManager(t, fc)

	for _, text := range []string{"", "   ", "\n"} {
		d, err := m.Send(guard, text)
		if !errors.Is(err, ErrEmptyMessage) || d != nil {
			t.Errorf("Send(%q) = %v, %v; want nil, ErrEmptyMessage", text, d, err)
		}
	}
	if got := m.History(guard); len(got) != 0 {
		t.Errorf("history mutated by empty send: %v", got)
	}
	if m.Pending(guard) {
		t.Error("empty send left a pending request")
	}
	if fc.callCount() != 0 {
		t.Errorf("collaborator called %d times", fc.callCount())
	}
}

func TestSendOnePendingRequestPerSpeaker(t *testing.T) {
	fc := &fakeCompleter{reply: "I was on my break."}
	m := newTestManager(t, fc)

	first, err := m.Send(guard, "Where were you?")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	before := m.History(guard)
	if _, err := m.Send(guard, "Answer me!"); !errors.Is(err, ErrRequestPending) {
		t.Fatalf("second Send() error = %v, want ErrRequestPending", err)
	}
	if diff := cmp.Diff(before, m.History(guard)); diff != "" {
		t.Errorf("rejected Send changed the history (-before +after):\n%s", diff)
	}

	// A different speaker is independent.
	other, err := m.Send("employee", "Hi")
	if err != nil {
		t.Fatalf("Send() to another speaker error = %v", err)
	}
	if _, err := m.Apply(other.Run(context.Background())); err != nil {
		t.Fatalf("Apply() for another speaker error = %v", err)
	}

	update, err := m.Apply(first.Run(context.Background()))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if !update.UserAuthored || update.Line.Text != "I was on my break." {
		t.Errorf("unexpected update %+v", update)
	}
	if m.Pending(guard) {
		t.Error("pending should clear after apply")
	}
	if fc.callCount() != 2 {
		t.Errorf("collaborator called %d times, want 2", fc.callCount())
	}

	want := []Line{
		{Author: "Me", Role: RoleUser, Text: "Where were you?"},
		{Author: "Security Guard", Role: RoleAssistant, Text: "I was on my break."},
	}
	if diff := cmp.Diff(want, m.Transcript(guard)); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}

	history := m.History(guard)
	if len(history) != 3 || history[0].Role != RoleSystem {
		t.Fatalf("history should be persona + user + assistant, got %+v", history)
	}
	if _, err := m.Send(guard, "And after?"); err != nil {
		t.Errorf("Send() after reply error = %v", err)
	}
}

func TestDispatchCarriesFullHistory(t *testing.T) {
	fc := &fakeCompleter{reply: "ok"}
	m := newTestManager(t, fc)

	d, _ := m.Send(guard, "one")
	m.Apply(d.Run(context.Background()))
	d, _ = m.Send(guard, "two")
	d.Run(context.Background())

	last := fc.calls[len(fc.calls)-1]
	var roles []Role
	for _, msg := range last.History {
		roles = append(roles, msg.Role)
	}
	want := []Role{RoleSystem, RoleUser, RoleAssistant, RoleUser}
	if diff := cmp.Diff(want, roles); diff != "" {
		t.Errorf("history roles mismatch (-want +got):\n%s", diff)
	}
	if last.Speaker != guard {
		t.Errorf("speaker = %q, want guard", last.Speaker)
	}
}

func TestApplyFailureClearsPending(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("rate limited")}
	m := newTestManager(t, fc)

	d, err := m.Send(guard, "Hello?")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	_, err = m.Apply(d.Run(context.Background()))
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("Apply() error = %v, want collaborator failure", err)
	}
	if m.Pending(guard) {
		t.Error("pending should clear after a failure")
	}
	for _, line := range m.Transcript(guard) {
		if line.Role == RoleAssistant {
			t.Errorf("failure appended an assistant line: %+v", line)
		}
	}

	fc.err = nil
	fc.reply = "Sorry, go on."
	d, err = m.Send(guard, "Hello again?")
	if err != nil {
		t.Fatalf("retry Send() error = %v", err)
	}
	if _, err := m.Apply(d.Run(context.Background())); err != nil {
		t.Errorf("retry Apply() error = %v", err)
	}
}

func TestSwitchToReturningDoesNotDuplicateOpening(t *testing.T) {
	fc := &fakeCompleter{reply: "Good evening, detective."}
	m := newTestManager(t, fc)

	d, err := m.SwitchTo(guard)
	if err != nil {
		t.Fatalf("SwitchTo() error = %v", err)
	}
	if d.UserAuthored {
		t.Error("opening line should not be user authored")
	}
	if _, err := m.Apply(d.Run(context.Background())); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	opening := m.Transcript(guard)
	if len(opening) != 1 {
		t.Fatalf("transcript after opening = %+v", opening)
	}

	d, err = m.SwitchTo(guard)
	if err != nil {
		t.Fatalf("second SwitchTo() error = %v", err)
	}
	if diff := cmp.Diff(opening, m.Transcript(guard)); diff != "" {
		t.Errorf("revisit changed the replayed transcript (-want +got):\n%s", diff)
	}

	history := d.History()
	seed := history[len(history)-1]
	if seed.Role != RoleSystem || !strings.Contains(seed.Content, "talked to you before") {
		t.Errorf("revisit should send a returning system turn, got %+v", seed)
	}
	if len(history) != 3 {
		t.Errorf("revisit history = %d messages, want persona + opening + returning", len(history))
	}

	fc.reply = "Back again?"
	if _, err := m.Apply(d.Run(context.Background())); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got := len(m.Transcript(guard)); got != 2 {
		t.Errorf("transcript length = %d, want 2", got)
	}
}

func TestSupersededReplyIsDiscarded(t *testing.T) {
	fc := &fakeCompleter{reply: "late"}
	m := newTestManager(t, fc)

	stale, _ := m.SwitchTo(guard)
	fresh, _ := m.SwitchTo(guard)

	if _, err := m.Apply(stale.Run(context.Background())); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("Apply(stale) error = %v, want ErrSuperseded", err)
	}
	if !m.Pending(guard) {
		t.Fatal("discarding a stale reply must not clear the newer request")
	}
	if _, err := m.Apply(fresh.Run(context.Background())); err != nil {
		t.Fatalf("Apply(fresh) error = %v", err)
	}
	if got := len(m.Transcript(guard)); got != 1 {
		t.Errorf("transcript length = %d, want 1", got)
	}
}

func TestClearAllDiscardsInFlightReplies(t *testing.T) {
	fc := &fakeCompleter{reply: "hi"}
	m := newTestManager(t, fc)

	d, _ := m.Send(guard, "hello")
	m.ClearAll()

	if _, err := m.Apply(d.Run(context.Background())); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("Apply() after ClearAll error = %v, want ErrSuperseded", err)
	}
	if len(m.History(guard)) != 0 || len(m.Transcript(guard)) != 0 {
		t.Error("ClearAll should empty every session")
	}
}

func TestDispatchTimeout(t *testing.T) {
	fc := &fakeCompleter{blocking: true}
	kase, _ := casefile.Load()
	m := NewManager(kase, fc, 10*time.Millisecond, nil)

	d, _ := m.Send(guard, "hello?")
	reply := d.Run(context.Background())
	if !errors.Is(reply.Err, context.DeadlineExceeded) {
		t.Fatalf("reply error = %v, want deadline exceeded", reply.Err)
	}
	if _, err := m.Apply(reply); err == nil {
		t.Fatal("Apply() of a timed out reply should fail")
	}
	if m.Pending(guard) {
		t.Error("timeout should clear pending")
	}
}

func TestNoCompleter(t *testing.T) {
	m := newTestManager(t, nil)

	if _, err := m.Send(guard, "hello"); !errors.Is(err, ErrNoCompleter) {
		t.Errorf("Send() error = %v, want ErrNoCompleter", err)
	}
	if _, err := m.SwitchTo(guard); !errors.Is(err, ErrNoCompleter) {
		t.Errorf("SwitchTo() error = %v, want ErrNoCompleter", err)
	}
	if len(m.History(guard)) != 0 {
		t.Error("history mutated without a completer")
	}
}

func TestCritique(t *testing.T) {
	fc := &fakeCompleter{reply: "Good work on the car."}
	m := newTestManager(t, fc)

	if _, err := m.Critique("  "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("Critique(blank) error = %v, want ErrEmptyMessage", err)
	}

	d, err := m.Critique("the owner's car was in the lane")
	if err != nil {
		t.Fatalf("Critique() error = %v", err)
	}
	history := d.History()
	if len(history) != 1 || !strings.Contains(history[0].Content, "the owner's car was in the lane") {
		t.Errorf("critique seed = %+v", history)
	}
	update, err := m.Apply(d.Run(context.Background()))
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if update.Speaker != Feedback || update.UserAuthored {
		t.Errorf("unexpected update %+v", update)
	}
}

func TestUnknownSpeaker(t *testing.T) {
	m := newTestManager(t, &fakeCompleter{})
	if _, err := m.Send("nobody", "hi"); !errors.Is(err, ErrUnknownSpeaker) {
		t.Errorf("Send() error = %v", err)
	}
	if _, err := m.SwitchTo(Feedback); !errors.Is(err, ErrUnknownSpeaker) {
		t.Errorf("SwitchTo(feedback) error = %v", err)
	}
}
