package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"stolenpainting/internal/chat"
	"stolenpainting/internal/game"
)

var (
	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6"))
)

func (m Model) View() string {
	width := m.width
	if width < 40 {
		width = 80
	}
	height := m.height
	if height < 12 {
		height = 24
	}

	inputHeight := 3
	headerHeight := 1
	bodyHeight := height - headerHeight - 1
	if m.hasInput() {
		bodyHeight -= inputHeight
	}

	panel := lipgloss.NewStyle().
		Width(width - 2).
		Height(bodyHeight - 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1)

	contentWidth := width - 6
	lines := m.body(contentWidth)
	if limit := bodyHeight - 2; limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}

	out := m.header(width) + "\n" + panel.Render(strings.Join(lines, "\n"))
	if m.hasInput() {
		inputStyle := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1).
			Width(width - 4)
		out += "\n" + inputStyle.Render(m.inputLine())
	}
	return out
}

func (m Model) header(width int) string {
	title := titleStyle.Render(m.engine.Case.Title)
	if m.screen == menuScreen {
		return title
	}
	clock := "⏱ " + m.engine.Clock()
	gap := width - lipgloss.Width(title) - lipgloss.Width(clock)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + clock
}

func (m Model) hasInput() bool {
	switch m.screen {
	case interviewScreen, guessScreen:
		return true
	case clueScreen:
		view, ok := m.engine.Clues.Opened()
		return ok && view.Locked && !view.Unlocked
	}
	return false
}

func (m Model) inputLine() string {
	if m.screen == clueScreen {
		return strings.Repeat("*", len([]rune(m.input))) + "│"
	}
	return m.input + "│"
}

func (m Model) body(width int) []string {
	var lines []string
	switch m.screen {
	case menuScreen:
		lines = m.menuView(width)
	case introScreen:
		lines = m.introView(width)
	case sceneScreen:
		lines = m.sceneView(width)
	case clueScreen:
		lines = m.clueView(width)
	case interviewScreen:
		lines = m.interviewView(width)
	case guessScreen:
		lines = m.guessView(width)
	case resultsScreen:
		lines = m.resultsView(width)
	}
	if m.notice != "" {
		lines = append(lines, "", errorStyle.Render(wrapAndIndent(m.notice, width, "")))
	}
	return lines
}

func (m Model) menuView(width int) []string {
	return []string{
		"",
		messageStyle.Render(wrapAndIndent("Someone has stolen a painting from Glenn's Art Shop. Question the suspects, search the shop and name the thief before time runs out.", width, " ")),
		"",
		selectedStyle.Render(" > Start game"),
		"",
		dimStyle.Render(" enter start · q quit"),
	}
}

func (m Model) introView(width int) []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(m.engine.Case.Intro), "\n") {
		lines = append(lines, messageStyle.Render(wrapAndIndent(line, width, " ")))
	}
	return append(lines, "", dimStyle.Render(" enter continue"))
}

func (m Model) sceneView(width int) []string {
	gate := m.engine.Tracker.Gate()
	lines := []string{
		messageStyle.Render(wrapAndIndent("The crime scene. Look around, question everyone, then make your accusation.", width, " ")),
		"",
	}
	for i, item := range m.sceneItems() {
		label := item.label
		if item.suspect != "" && m.engine.Tracker.TalkedTo(item.suspect) {
			label += " ✓"
		}
		if i == m.cursor {
			lines = append(lines, selectedStyle.Render(" > "+label))
		} else {
			lines = append(lines, messageStyle.Render("   "+label))
		}
	}
	clue := "no"
	if gate.ClueTouched {
		clue = "yes"
	}
	lines = append(lines, "",
		dimStyle.Render(fmt.Sprintf(" Clue inspected: %s · Suspects questioned: %d/%d", clue, gate.TalkedTo, gate.RosterSize)),
		dimStyle.Render(" ↑/↓ move · enter select · q quit"),
	)
	return lines
}

func (m Model) clueView(width int) []string {
	view, ok := m.engine.Clues.Opened()
	if !ok {
		return nil
	}
	lines := []string{titleStyle.Render(" " + view.Name), ""}
	lines = append(lines, messageStyle.Render(wrapAndIndent(view.Text, width, " ")), "")
	if view.Locked && !view.Unlocked {
		lines = append(lines, dimStyle.Render(" enter try password · esc back"))
	} else {
		lines = append(lines, dimStyle.Render(" esc back"))
	}
	return lines
}

func (m Model) interviewView(width int) []string {
	speaker := chat.SuspectSpeaker(m.suspect)
	lines := []string{titleStyle.Render(" " + m.engine.Chats.Name(speaker)), ""}

	for _, line := range m.engine.Chats.Transcript(speaker) {
		text := wrapAndIndent(line.Author+": "+line.Text, width, " ")
		if line.Role == chat.RoleUser {
			lines = append(lines, userStyle.Render(text))
		} else {
			lines = append(lines, messageStyle.Render(text))
		}
		lines = append(lines, "")
	}
	if m.engine.Chats.Pending(speaker) {
		lines = append(lines, loadingStyle.Render(" "+getLoadingAnimation(m.animationFrame)))
	}
	if failure, ok := m.failures[speaker]; ok {
		lines = append(lines, errorStyle.Render(wrapAndIndent("Error: "+failure, width, " ")))
	}
	return append(lines, dimStyle.Render(" enter send · esc back"))
}

func (m Model) guessView(width int) []string {
	draft := m.engine.Controller.Draft()
	lines := []string{
		messageStyle.Render(wrapAndIndent("Who stole the painting? Pick a suspect and explain your reasoning.", width, " ")),
		"",
	}
	for _, s := range m.engine.Case.Suspects {
		if s.ID == draft.Suspect {
			lines = append(lines, selectedStyle.Render(" (•) "+s.Name))
		} else {
			lines = append(lines, messageStyle.Render(" ( ) "+s.Name))
		}
	}
	return append(lines, "", dimStyle.Render(" ↑/↓ choose · type your explanation · enter submit"))
}

func (m Model) resultsView(width int) []string {
	result, err := m.engine.Controller.Result()
	if err != nil {
		return nil
	}
	lines := []string{titleStyle.Render(" Thief: " + result.Headline), ""}

	switch {
	case result.Message != "":
		lines = append(lines, messageStyle.Render(wrapAndIndent(result.Message, width, " ")))
	case result.NeedsCritique():
		critique := m.engine.Critique()
		switch {
		case critique.Pending:
			lines = append(lines, loadingStyle.Render(" "+getLoadingAnimation(m.animationFrame)))
		case critique.Error != "":
			lines = append(lines, errorStyle.Render(wrapAndIndent("Error: "+critique.Error, width, " ")))
		default:
			lines = append(lines, messageStyle.Render(wrapAndIndent(critique.Text, width, " ")))
		}
	}
	if result.Outcome == game.OutcomeNotFoundInTime && result.Guess.Forced {
		lines = append(lines, dimStyle.Render(" The clock ran out."))
	}
	return append(lines, "", dimStyle.Render(" r restart · esc menu · q quit"))
}

func wrapAndIndent(text string, width int, indent string) string {
	if len(text) <= width {
		return indent + text
	}

	var result strings.Builder
	words := strings.Fields(text)
	if len(words) == 0 {
		return indent + text
	}

	currentLine := indent + words[0]

	for _, word := range words[1:] {
		if len(currentLine)+1+len(word) <= width {
			currentLine += " " + word
		} else {
			result.WriteString(currentLine + "\n")
			currentLine = indent + word
		}
	}

	result.WriteString(currentLine)
	return result.String()
}

func getLoadingAnimation(frame int) string {
	arc := []string{"◜", "◠", "◝", "◞", "◡", "◟"}
	return arc[frame%len(arc)]
}
