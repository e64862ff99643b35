package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stolenpainting/internal/casefile"
	"stolenpainting/internal/chat"
	"stolenpainting/internal/game"
)

type echoCompleter struct{}

func (echoCompleter) Complete(ctx context.Context, req chat.CompletionRequest) (chat.Message, error) {
	return chat.Message{Role: chat.RoleAssistant, Content: "hello from " + string(req.Speaker)}, nil
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	kase, err := casefile.Load()
	if err != nil {
		t.Fatalf("casefile.Load() error = %v", err)
	}
	e := game.NewEngine(kase, echoCompleter{}, game.Options{ChatTimeout: time.Second})
	t.Cleanup(e.Close)
	return NewModel(e, nil)
}

// send runs msg through Update and feeds back every chat reply the resulting commands
// produce. Clock ticks and animation frames are dropped.
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	for _, reply := range replies(cmd) {
		m = send(t, m, reply)
	}
	return m
}

func replies(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	out := make(chan tea.Msg, 1)
	go func() { out <- cmd() }()

	select {
	case msg := <-out:
		switch msg := msg.(type) {
		case tea.BatchMsg:
			var all []tea.Msg
			for _, c := range msg {
				all = append(all, replies(c)...)
			}
			return all
		case replyMsg:
			return []tea.Msg{msg}
		}
	case <-time.After(300 * time.Millisecond):
	}
	return nil
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	return send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

// toScene starts a playthrough and skips the intro.
func toScene(t *testing.T, m Model) Model {
	t.Helper()
	m = send(t, m, key(tea.KeyEnter))
	if m.screen != introScreen {
		t.Fatalf("screen after start = %v, want intro", m.screen)
	}
	m = send(t, m, key(tea.KeyEnter))
	if m.screen != sceneScreen {
		t.Fatalf("screen after intro = %v, want scene", m.screen)
	}
	return m
}

func selectItem(t *testing.T, m Model, index int) Model {
	t.Helper()
	for m.cursor > 0 {
		m = send(t, m, key(tea.KeyUp))
	}
	for m.cursor < index {
		m = send(t, m, key(tea.KeyDown))
	}
	return send(t, m, key(tea.KeyEnter))
}

func itemIndex(t *testing.T, m Model, match func(sceneItem) bool) int {
	t.Helper()
	for i, item := range m.sceneItems() {
		if match(item) {
			return i
		}
	}
	t.Fatal("scene item not found")
	return -1
}

func TestIntroHoldsClockUntilContinue(t *testing.T) {
	m := newTestModel(t)
	m = send(t, m, key(tea.KeyEnter))

	if m.screen != introScreen {
		t.Fatalf("screen = %v, want intro", m.screen)
	}
	if m.engine.Timer.Running() {
		t.Error("clock running during intro")
	}
	if got := m.engine.Clock(); got != "05:00" {
		t.Errorf("clock = %q, want 05:00", got)
	}
	if !strings.Contains(m.View(), "Glenn's Art Shop") {
		t.Error("intro text not rendered")
	}

	m = send(t, m, key(tea.KeyEnter))
	if !m.engine.Timer.Running() {
		t.Error("clock not running after intro")
	}
	if m.generation != m.engine.Timer.Generation() {
		t.Errorf("tick chain generation = %d, want %d", m.generation, m.engine.Timer.Generation())
	}
}

func TestTicks(t *testing.T) {
	m := toScene(t, newTestModel(t))

	m = send(t, m, tickMsg{generation: m.generation + 7})
	if got := m.engine.Timer.Remaining(); got != 300 {
		t.Errorf("stale tick moved the clock to %d", got)
	}

	m = send(t, m, tickMsg{generation: m.generation})
	if got := m.engine.Timer.Remaining(); got != 299 {
		t.Errorf("remaining = %d, want 299", got)
	}
}

func TestGuessBeforeGateShowsReminder(t *testing.T) {
	m := toScene(t, newTestModel(t))
	m = selectItem(t, m, itemIndex(t, m, func(i sceneItem) bool { return i.guess }))

	if m.screen != sceneScreen {
		t.Errorf("screen = %v, want scene", m.screen)
	}
	if m.notice != gateReminder {
		t.Errorf("notice = %q, want %q", m.notice, gateReminder)
	}
}

func TestInterview(t *testing.T) {
	m := toScene(t, newTestModel(t))
	m = selectItem(t, m, itemIndex(t, m, func(i sceneItem) bool { return i.suspect == "guard" }))

	if m.screen != interviewScreen {
		t.Fatalf("screen = %v, want interview", m.screen)
	}
	if m.engine.Tracker.TalkedTo("guard") {
		t.Error("opening line counted as talking")
	}

	m = typeText(t, m, "where were you")
	m = send(t, m, key(tea.KeyEnter))

	if !m.engine.Tracker.TalkedTo("guard") {
		t.Error("answered message not counted")
	}
	if m.input != "" {
		t.Errorf("input = %q, want cleared", m.input)
	}
	transcript := m.engine.Chats.Transcript(chat.SuspectSpeaker("guard"))
	if len(transcript) != 3 || transcript[1].Text != "where were you" {
		t.Errorf("transcript = %+v", transcript)
	}
	if !strings.Contains(m.View(), "Me: where were you") {
		t.Error("player line not rendered")
	}

	m = send(t, m, key(tea.KeyEsc))
	if m.screen != sceneScreen {
		t.Errorf("screen after esc = %v, want scene", m.screen)
	}
}

func TestLockedClue(t *testing.T) {
	m := toScene(t, newTestModel(t))
	m = selectItem(t, m, itemIndex(t, m, func(i sceneItem) bool { return i.clue == "computer" }))

	if m.screen != clueScreen {
		t.Fatalf("screen = %v, want clue", m.screen)
	}
	if !m.engine.Tracker.ClueTouched() {
		t.Error("opening a locked clue did not count")
	}

	m = typeText(t, m, "guess")
	m = send(t, m, key(tea.KeyEnter))
	if m.notice != "Wrong password." {
		t.Errorf("notice = %q", m.notice)
	}

	m = typeText(t, m, "HELEN1973")
	m = send(t, m, key(tea.KeyEnter))
	view, _ := m.engine.Clues.Opened()
	if !view.Unlocked {
		t.Fatal("clue still locked")
	}
	if !strings.Contains(m.View(), "insurer") {
		t.Error("unlocked text not rendered")
	}

	m = send(t, m, key(tea.KeyEsc))
	if _, ok := m.engine.Clues.Opened(); ok || m.screen != sceneScreen {
		t.Error("esc did not put the clue away")
	}
}

func TestFullRound(t *testing.T) {
	m := toScene(t, newTestModel(t))

	m = selectItem(t, m, itemIndex(t, m, func(i sceneItem) bool { return i.clue == "radio" }))
	m = send(t, m, key(tea.KeyEsc))
	for _, id := range m.engine.Case.SuspectIDs() {
		id := id
		m = selectItem(t, m, itemIndex(t, m, func(i sceneItem) bool { return i.suspect == id }))
		m = typeText(t, m, "hello")
		m = send(t, m, key(tea.KeyEnter))
		m = send(t, m, key(tea.KeyEsc))
	}

	m = selectItem(t, m, itemIndex(t, m, func(i sceneItem) bool { return i.guess }))
	if m.screen != guessScreen {
		t.Fatalf("screen = %v, want guess (notice %q)", m.screen, m.notice)
	}
	if got := m.engine.Clock(); got != "01:00" {
		t.Errorf("guess clock = %q, want 01:00", got)
	}

	m = send(t, m, key(tea.KeyEnter))
	if m.notice != guessReminder {
		t.Errorf("notice = %q, want %q", m.notice, guessReminder)
	}

	m = send(t, m, key(tea.KeyDown))
	m = typeText(t, m, "the ledger")
	if got := m.engine.Controller.Draft(); got.Suspect != "owner" || got.Explanation != "the ledger" {
		t.Errorf("draft = %+v", got)
	}

	m = send(t, m, key(tea.KeyEnter))
	if m.screen != resultsScreen {
		t.Fatalf("screen = %v, want results", m.screen)
	}
	view := m.View()
	for _, want := range []string{"Thief: the Shop Owner", "hello from feedback"} {
		if !strings.Contains(view, want) {
			t.Errorf("results view missing %q", want)
		}
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if m.screen != introScreen {
		t.Errorf("screen after restart = %v, want intro", m.screen)
	}
	if m.engine.Tracker.CanGuess() {
		t.Error("gate survived restart")
	}
}
