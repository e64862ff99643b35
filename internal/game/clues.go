package game

import (
	"strings"

	"stolenpainting/internal/casefile"
)

// ClueBoard holds the crime scene clues and which of them the player has unlocked.
type ClueBoard struct {
	clues    []casefile.Clue
	unlocked map[string]bool
	opened   string
}

func NewClueBoard(clues []casefile.Clue) *ClueBoard {
	return &ClueBoard{
		clues:    clues,
		unlocked: make(map[string]bool),
	}
}

// ClueView is what the player currently sees of a clue.
type ClueView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Text     string `json:"text"`
	Locked   bool   `json:"locked"`
	Unlocked bool   `json:"unlocked"`
}

func (b *ClueBoard) Reset() {
	b.unlocked = make(map[string]bool)
	b.opened = ""
}

// Open makes id the clue on display. Opening a clue counts as interacting with it
// whether or not it is locked.
func (b *ClueBoard) Open(id string) (ClueView, error) {
	clue, ok := b.find(id)
	if !ok {
		return ClueView{}, ErrUnknownClue
	}
	b.opened = id
	return b.view(clue), nil
}

func (b *ClueBoard) Close() {
	b.opened = ""
}

// Opened returns the clue on display, if any.
func (b *ClueBoard) Opened() (ClueView, bool) {
	if b.opened == "" {
		return ClueView{}, false
	}
	clue, _ := b.find(b.opened)
	return b.view(clue), true
}

// Unlock checks password against a locked clue, ignoring case and surrounding space.
func (b *ClueBoard) Unlock(id, password string) (ClueView, error) {
	clue, ok := b.find(id)
	if !ok {
		return ClueView{}, ErrUnknownClue
	}
	if !clue.Locked() || b.unlocked[id] {
		return b.view(clue), nil
	}
	if !strings.EqualFold(strings.TrimSpace(password), clue.Password) {
		return b.view(clue), ErrWrongPassword
	}
	b.unlocked[id] = true
	return b.view(clue), nil
}

func (b *ClueBoard) List() []ClueView {
	views := make([]ClueView, 0, len(b.clues))
	for _, clue := range b.clues {
		views = append(views, b.view(clue))
	}
	return views
}

func (b *ClueBoard) find(id string) (casefile.Clue, bool) {
	for _, clue := range b.clues {
		if clue.ID == id {
			return clue, true
		}
	}
	return casefile.Clue{}, false
}

func (b *ClueBoard) view(clue casefile.Clue) ClueView {
	v := ClueView{
		ID:       clue.ID,
		Name:     clue.Name,
		Text:     strings.TrimSpace(clue.Description),
		Locked:   clue.Locked(),
		Unlocked: b.unlocked[clue.ID],
	}
	if v.Locked && v.Unlocked {
		v.Text = strings.TrimSpace(clue.Unlocked)
	}
	return v
}
