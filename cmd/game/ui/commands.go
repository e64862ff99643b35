package ui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"stolenpainting/internal/chat"
	"stolenpainting/internal/game"
)

const (
	gateReminder  = "Interact with any clue and chat with all the suspects before guessing"
	guessReminder = "Select a suspect and write an explanation before guessing"
)

func animationTimer() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return animationTickMsg{}
	})
}

func clockTick(generation uint64) tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg{generation: generation}
	})
}

// runDispatch calls the chat collaborator off the Update goroutine.
func runDispatch(ctx context.Context, d *chat.Dispatch) tea.Cmd {
	return func() tea.Msg {
		return replyMsg{reply: d.Run(ctx)}
	}
}

// sync moves to the screen the engine's phase calls for and schedules whatever the last
// action left behind: chat requests, the next clock tick and the loading animation.
func (m Model) sync() (Model, tea.Cmd) {
	ctrl := m.engine.Controller
	if m.screen != menuScreen {
		switch ctrl.Phase() {
		case game.Exploring:
			if ctrl.IntroPlaying() {
				if m.screen != introScreen {
					m.screen = introScreen
					m.reset()
				}
			} else if m.screen == introScreen || m.screen == guessScreen || m.screen == resultsScreen {
				m.screen = sceneScreen
				m.reset()
			}
		case game.Guessing:
			if m.screen != guessScreen {
				m.screen = guessScreen
				m.reset()
				m.cursor = -1
			}
		case game.Results:
			if m.screen != resultsScreen {
				m.screen = resultsScreen
				m.reset()
			}
		}
	}

	var cmds []tea.Cmd
	for _, d := range m.engine.Dispatches() {
		cmds = append(cmds, runDispatch(m.engine.Context(), d))
	}
	if timer := m.engine.Timer; timer.Running() && timer.Generation() != m.generation {
		m.generation = timer.Generation()
		cmds = append(cmds, clockTick(m.generation))
	}
	if !m.animating && m.anyPending() {
		m.animating = true
		m.animationFrame = 0
		cmds = append(cmds, animationTimer())
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) reset() {
	m.cursor = 0
	m.input = ""
	m.notice = ""
	m.clue = ""
	m.suspect = ""
	if m.screen == introScreen {
		for speaker := range m.failures {
			delete(m.failures, speaker)
		}
	}
}

// noticeFor turns a refused action into the line shown under the current screen.
func noticeFor(err error) string {
	switch {
	case err == nil, errors.Is(err, chat.ErrEmptyMessage):
		return ""
	case errors.Is(err, game.ErrGateNotSatisfied):
		return gateReminder
	case errors.Is(err, game.ErrIncompleteGuess):
		return guessReminder
	case errors.Is(err, game.ErrWrongPassword):
		return "Wrong password."
	case errors.Is(err, chat.ErrRequestPending):
		return "Wait for an answer first."
	case errors.Is(err, chat.ErrNoCompleter):
		return "Nobody is listening. Set OPENAI_API_KEY to talk to the suspects."
	default:
		return err.Error()
	}
}
