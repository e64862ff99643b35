package game

import (
	"strings"

	"stolenpainting/internal/casefile"
)

// Guess is the player's accusation. An empty Suspect means no accusation was made,
// which is what a timeout records when the draft was never completed.
type Guess struct {
	Suspect     casefile.SuspectID
	Explanation string
	Forced      bool
}

func (g Guess) HasSuspect() bool {
	return g.Suspect != ""
}

// Complete reports whether the guess names a suspect and gives a non-blank reason.
func (g Guess) Complete() bool {
	return g.HasSuspect() && strings.TrimSpace(g.Explanation) != ""
}

type Outcome int

const (
	OutcomeNotFoundInTime Outcome = iota
	OutcomeWrong
	OutcomeCorrect
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCorrect:
		return "correct"
	case OutcomeWrong:
		return "wrong"
	default:
		return "not_found_in_time"
	}
}

const wrongSuspectMessage = "Sorry, you have guessed the wrong suspect!"

// Result is what the results screen shows for a guess.
type Result struct {
	Guess    Guess
	Outcome  Outcome
	Headline string
	// Message is fixed text shown in place of a critique. It is empty when the
	// feedback speaker should critique the explanation instead.
	Message string
}

// NeedsCritique reports whether the explanation should be sent to the feedback speaker.
func (r Result) NeedsCritique() bool {
	return r.Outcome == OutcomeCorrect && r.Message == ""
}

// Evaluate turns a guess into the results content.
func Evaluate(c *casefile.Case, g Guess) Result {
	if !g.Complete() {
		return Result{Guess: g, Outcome: OutcomeNotFoundInTime, Headline: "NOT found in time!"}
	}

	suspect, ok := c.Suspect(g.Suspect)
	if !ok {
		return Result{Guess: g, Outcome: OutcomeNotFoundInTime, Headline: "NOT found in time!"}
	}
	if !suspect.Culprit {
		return Result{
			Guess:    g,
			Outcome:  OutcomeWrong,
			Headline: "NOT the " + suspect.Name,
			Message:  wrongSuspectMessage,
		}
	}

	return Result{Guess: g, Outcome: OutcomeCorrect, Headline: "the " + suspect.Name}
}
