package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"stolenpainting/internal/casefile"
	"stolenpainting/internal/chat"
	"stolenpainting/internal/debug"
	"stolenpainting/internal/game"
)

type screen int

const (
	menuScreen screen = iota
	introScreen
	sceneScreen
	clueScreen
	interviewScreen
	guessScreen
	resultsScreen
)

// Model renders the engine and turns key presses into engine actions. Bubble Tea runs
// Update on a single goroutine, which makes it the engine's control goroutine.
type Model struct {
	engine *game.Engine
	debug  *debug.Logger

	screen  screen
	cursor  int
	input   string
	notice  string
	clue    string
	suspect casefile.SuspectID

	// failures holds the last collaborator error per speaker until they answer again.
	failures map[chat.SpeakerID]string

	// generation is the timer schedule the running tick chain belongs to.
	generation uint64

	width          int
	height         int
	animating      bool
	animationFrame int
}

func NewModel(engine *game.Engine, debugLogger *debug.Logger) Model {
	return Model{
		engine:   engine,
		debug:    debugLogger,
		screen:   menuScreen,
		failures: make(map[chat.SpeakerID]string),
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

type animationTickMsg struct{}

// tickMsg is one second of the countdown scheduled for a timer generation.
type tickMsg struct {
	generation uint64
}

type replyMsg struct {
	reply chat.Reply
}

// sceneItem is one selectable line on the crime scene.
type sceneItem struct {
	label   string
	clue    string
	suspect casefile.SuspectID
	guess   bool
}

func (m Model) sceneItems() []sceneItem {
	var items []sceneItem
	for _, clue := range m.engine.Clues.List() {
		items = append(items, sceneItem{label: "Inspect the " + clue.Name, clue: clue.ID})
	}
	for _, s := range m.engine.Case.Suspects {
		items = append(items, sceneItem{label: "Talk to the " + s.Name, suspect: s.ID})
	}
	return append(items, sceneItem{label: "Submit guess", guess: true})
}

func (m Model) anyPending() bool {
	if m.engine.Chats.Pending(chat.Feedback) {
		return true
	}
	for _, id := range m.engine.Case.SuspectIDs() {
		if m.engine.Chats.Pending(chat.SuspectSpeaker(id)) {
			return true
		}
	}
	return false
}
