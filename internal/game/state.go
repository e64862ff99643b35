package game

import (
	"stolenpainting/internal/casefile"
	"stolenpainting/internal/chat"
)

type SuspectState struct {
	ID       casefile.SuspectID `json:"id"`
	Name     string             `json:"name"`
	TalkedTo bool               `json:"talked_to"`
	Pending  bool               `json:"pending"`
}

type ResultState struct {
	Outcome  string `json:"outcome"`
	Headline string `json:"headline"`
	Message  string `json:"message,omitempty"`
	Suspect  string `json:"suspect,omitempty"`
	Forced   bool   `json:"forced"`
}

// State is a read-only snapshot of the engine.
type State struct {
	PlaythroughID string         `json:"playthrough_id"`
	Phase         string         `json:"phase"`
	Intro         bool           `json:"intro"`
	Remaining     int            `json:"remaining_seconds"`
	Clock         string         `json:"clock"`
	CanGuess      bool           `json:"can_guess"`
	ClueTouched   bool           `json:"clue_touched"`
	Suspects      []SuspectState `json:"suspects"`
	Clues         []ClueView     `json:"clues"`
	Draft         *Draft         `json:"draft,omitempty"`
	Result        *ResultState   `json:"result,omitempty"`
	Critique      *Critique      `json:"critique,omitempty"`
}

func (e *Engine) State() State {
	s := State{
		PlaythroughID: e.playthroughID,
		Phase:         e.Controller.Phase().String(),
		Intro:         e.Controller.IntroPlaying(),
		Remaining:     e.Timer.Remaining(),
		Clock:         e.Clock(),
		CanGuess:      e.Tracker.CanGuess(),
		ClueTouched:   e.Tracker.ClueTouched(),
		Clues:         e.Clues.List(),
	}
	for _, suspect := range e.Case.Suspects {
		s.Suspects = append(s.Suspects, SuspectState{
			ID:       suspect.ID,
			Name:     suspect.Name,
			TalkedTo: e.Tracker.TalkedTo(suspect.ID),
			Pending:  e.Chats.Pending(chat.SuspectSpeaker(suspect.ID)),
		})
	}

	switch e.Controller.Phase() {
	case Guessing:
		d := e.Controller.Draft()
		s.Draft = &d
	case Results:
		if r, err := e.Controller.Result(); err == nil {
			s.Result = &ResultState{
				Outcome:  r.Outcome.String(),
				Headline: r.Headline,
				Message:  r.Message,
				Suspect:  string(r.Guess.Suspect),
				Forced:   r.Guess.Forced,
			}
			if r.NeedsCritique() {
				c := e.Critique()
				s.Critique = &c
			}
		}
	}
	return s
}
