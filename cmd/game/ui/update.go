package ui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"stolenpainting/internal/chat"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m.handleTick(msg)
	case replyMsg:
		return m.handleReply(msg)

	case tea.WindowSizeMsg:
		return m.handleWindowResize(msg)
	case animationTickMsg:
		return m.handleAnimation(msg)
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}
	return m, nil
}

func (m Model) handleTick(msg tickMsg) (tea.Model, tea.Cmd) {
	if msg.generation != m.generation {
		return m, nil
	}
	var next tea.Cmd
	if m.engine.Tick(msg.generation) {
		timer := m.engine.Timer
		if timer.Running() && timer.Generation() == msg.generation {
			next = clockTick(msg.generation)
		}
	}
	m, cmd := m.sync()
	return m, tea.Batch(next, cmd)
}

func (m Model) handleReply(msg replyMsg) (tea.Model, tea.Cmd) {
	update, err := m.engine.ApplyReply(msg.reply)
	switch {
	case errors.Is(err, chat.ErrSuperseded):
	case err != nil:
		m.failures[msg.reply.Speaker] = err.Error()
	default:
		delete(m.failures, update.Speaker)
	}
	return m.sync()
}

func (m Model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	return m, nil
}

func (m Model) handleAnimation(msg animationTickMsg) (tea.Model, tea.Cmd) {
	if m.anyPending() {
		m.animationFrame++
		return m, animationTimer()
	}
	m.animating = false
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.screen {
	case menuScreen:
		return m.handleMenuKey(msg)
	case introScreen:
		return m.handleIntroKey(msg)
	case sceneScreen:
		return m.handleSceneKey(msg)
	case clueScreen:
		return m.handleClueKey(msg)
	case interviewScreen:
		return m.handleInterviewKey(msg)
	case guessScreen:
		return m.handleGuessKey(msg)
	case resultsScreen:
		return m.handleResultsKey(msg)
	}
	return m, nil
}

func (m Model) handleMenuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "enter":
		m.engine.Start()
		m.screen = introScreen
		m.reset()
		return m.sync()
	}
	return m, nil
}

func (m Model) handleIntroKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "enter", " ":
		m.notice = noticeFor(m.engine.BeginExploration())
		return m.sync()
	}
	return m, nil
}

func (m Model) handleSceneKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.sceneItems()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(items)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		if m.cursor < 0 || m.cursor >= len(items) {
			return m, nil
		}
		return m.selectSceneItem(items[m.cursor])
	}
	return m, nil
}

func (m Model) selectSceneItem(item sceneItem) (tea.Model, tea.Cmd) {
	m.notice = ""
	switch {
	case item.guess:
		m.notice = noticeFor(m.engine.EnterGuessing())
	case item.clue != "":
		if _, err := m.engine.OpenClue(item.clue); err != nil {
			m.notice = noticeFor(err)
			break
		}
		m.screen = clueScreen
		m.clue = item.clue
		m.input = ""
	default:
		m.screen = interviewScreen
		m.suspect = item.suspect
		m.input = ""
		if _, err := m.engine.OpenSuspect(item.suspect); err != nil {
			m.notice = noticeFor(err)
		}
	}
	return m.sync()
}

func (m Model) handleClueKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view, ok := m.engine.Clues.Opened()
	if msg.Type == tea.KeyEsc || !ok {
		m.engine.CloseClue()
		m.screen = sceneScreen
		m.input = ""
		m.notice = ""
		return m, nil
	}
	if !view.Locked || view.Unlocked {
		return m, nil
	}

	if msg.Type == tea.KeyEnter {
		_, err := m.engine.UnlockClue(view.ID, m.input)
		m.notice = noticeFor(err)
		m.input = ""
		return m.sync()
	}
	m.input = editInput(m.input, msg)
	return m, nil
}

func (m Model) handleInterviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.screen = sceneScreen
		m.input = ""
		m.notice = ""
		return m, nil
	case tea.KeyEnter:
		if strings.TrimSpace(m.input) == "" {
			return m, nil
		}
		if _, err := m.engine.Talk(m.suspect, m.input); err != nil {
			m.notice = noticeFor(err)
			return m.sync()
		}
		m.input = ""
		m.notice = ""
		return m.sync()
	}
	m.input = editInput(m.input, msg)
	return m, nil
}

func (m Model) handleGuessKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	suspects := m.engine.Case.Suspects
	switch msg.Type {
	case tea.KeyUp, tea.KeyDown:
		if msg.Type == tea.KeyUp && m.cursor > 0 {
			m.cursor--
		} else if msg.Type == tea.KeyDown && m.cursor < len(suspects)-1 {
			m.cursor++
		}
		if m.cursor >= 0 {
			m.notice = noticeFor(m.engine.SelectSuspect(suspects[m.cursor].ID))
		}
		return m, nil
	case tea.KeyEnter:
		m.notice = noticeFor(m.engine.SubmitGuess())
		return m.sync()
	}

	m.input = editInput(m.input, msg)
	m.notice = noticeFor(m.engine.WriteExplanation(m.input))
	return m, nil
}

func (m Model) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "m":
		m.screen = menuScreen
		m.reset()
		return m, nil
	case "r":
		m.notice = noticeFor(m.engine.Restart())
		return m.sync()
	}
	return m, nil
}

// editInput applies a typing key to a single-line input.
func editInput(input string, msg tea.KeyMsg) string {
	switch msg.Type {
	case tea.KeyBackspace:
		if r := []rune(input); len(r) > 0 {
			return string(r[:len(r)-1])
		}
	case tea.KeySpace:
		return input + " "
	case tea.KeyRunes:
		return input + string(msg.Runes)
	}
	return input
}
