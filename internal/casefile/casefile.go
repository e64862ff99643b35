// Package casefile loads the mystery the game is built around: the suspect roster,
// the clues on the crime scene, the speaker prompts and the phase durations.
// The case is embedded at build time; nothing here is user configurable.
package casefile

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed case.yaml
var embeddedCase []byte

// FeedbackID is reserved for the post-guess critique speaker and may not be used
// as a suspect id.
const FeedbackID = "feedback"

// RosterSize is the fixed number of suspects a case must have.
const RosterSize = 3

var ErrInvalidCase = errors.New("invalid case file")

type SuspectID string

type Suspect struct {
	ID      SuspectID `yaml:"id"`
	Name    string    `yaml:"name"`
	Culprit bool      `yaml:"culprit"`
	Persona string    `yaml:"persona"`
}

type Clue struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Password    string `yaml:"password"`
	Unlocked    string `yaml:"unlocked"`
}

// Locked reports whether the clue hides content behind a password.
func (c Clue) Locked() bool {
	return c.Password != ""
}

type Durations struct {
	ExploreSeconds int `yaml:"explore_seconds"`
	GuessSeconds   int `yaml:"guess_seconds"`
}

// Completion holds the sampling parameters used for every chat request.
type Completion struct {
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
}

type Case struct {
	Title           string     `yaml:"title"`
	Intro           string     `yaml:"intro"`
	Durations       Durations  `yaml:"durations"`
	Completion      Completion `yaml:"completion"`
	Suspects        []Suspect  `yaml:"suspects"`
	Clues           []Clue     `yaml:"clues"`
	ReturningPrompt string     `yaml:"returning_prompt"`
	FeedbackPrompt  string     `yaml:"feedback_prompt"`

	personas map[SuspectID]*template.Template
	feedback *template.Template
}

// Load parses and validates the embedded case file.
func Load() (*Case, error) {
	return Parse(embeddedCase)
}

// Parse decodes a case file and validates it. Any failure wraps ErrInvalidCase.
func Parse(data []byte) (*Case, error) {
	var c Case
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCase, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCase, err)
	}
	if err := c.compile(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCase, err)
	}
	return &c, nil
}

func (c *Case) validate() error {
	if c.Durations.ExploreSeconds <= 0 || c.Durations.GuessSeconds <= 0 {
		return fmt.Errorf("durations must be positive, got explore=%d guess=%d",
			c.Durations.ExploreSeconds, c.Durations.GuessSeconds)
	}
	if len(c.Suspects) != RosterSize {
		return fmt.Errorf("expected %d suspects, got %d", RosterSize, len(c.Suspects))
	}

	seen := make(map[SuspectID]bool, len(c.Suspects))
	culprits := 0
	for _, s := range c.Suspects {
		switch {
		case s.ID == "":
			return fmt.Errorf("suspect %q has no id", s.Name)
		case s.ID == FeedbackID:
			return fmt.Errorf("suspect id %q is reserved", FeedbackID)
		case seen[s.ID]:
			return fmt.Errorf("duplicate suspect id %q", s.ID)
		case strings.TrimSpace(s.Name) == "":
			return fmt.Errorf("suspect %q has no name", s.ID)
		case strings.TrimSpace(s.Persona) == "":
			return fmt.Errorf("suspect %q has no persona prompt", s.ID)
		}
		seen[s.ID] = true
		if s.Culprit {
			culprits++
		}
	}
	if culprits != 1 {
		return fmt.Errorf("expected exactly one culprit, got %d", culprits)
	}

	if len(c.Clues) == 0 {
		return errors.New("case has no clues")
	}
	clueIDs := make(map[string]bool, len(c.Clues))
	for _, clue := range c.Clues {
		if clue.ID == "" || clueIDs[clue.ID] {
			return fmt.Errorf("clue id %q is empty or duplicated", clue.ID)
		}
		if clue.Locked() && strings.TrimSpace(clue.Unlocked) == "" {
			return fmt.Errorf("locked clue %q has nothing to reveal", clue.ID)
		}
		clueIDs[clue.ID] = true
	}

	if strings.TrimSpace(c.ReturningPrompt) == "" {
		return errors.New("returning prompt is empty")
	}
	if strings.TrimSpace(c.FeedbackPrompt) == "" {
		return errors.New("feedback prompt is empty")
	}
	return nil
}

func (c *Case) compile() error {
	c.personas = make(map[SuspectID]*template.Template, len(c.Suspects))
	for _, s := range c.Suspects {
		tmpl, err := template.New(string(s.ID)).Option("missingkey=error").Parse(s.Persona)
		if err != nil {
			return fmt.Errorf("persona for %q: %w", s.ID, err)
		}
		c.personas[s.ID] = tmpl
	}
	tmpl, err := template.New(FeedbackID).Option("missingkey=error").Parse(c.FeedbackPrompt)
	if err != nil {
		return fmt.Errorf("feedback prompt: %w", err)
	}
	c.feedback = tmpl
	return nil
}

// Suspect looks up a suspect by id.
func (c *Case) Suspect(id SuspectID) (Suspect, bool) {
	for _, s := range c.Suspects {
		if s.ID == id {
			return s, true
		}
	}
	return Suspect{}, false
}

// Culprit returns the one suspect flagged as guilty.
func (c *Case) Culprit() Suspect {
	for _, s := range c.Suspects {
		if s.Culprit {
			return s
		}
	}
	return Suspect{}
}

// SuspectIDs returns the roster ids in case file order.
func (c *Case) SuspectIDs() []SuspectID {
	ids := make([]SuspectID, 0, len(c.Suspects))
	for _, s := range c.Suspects {
		ids = append(ids, s.ID)
	}
	return ids
}

func (c *Case) Clue(id string) (Clue, bool) {
	for _, clue := range c.Clues {
		if clue.ID == id {
			return clue, true
		}
	}
	return Clue{}, false
}

// PersonaPrompt renders the system prompt for a suspect. When returning is true the
// returning prompt is appended so the suspect acknowledges the revisit.
func (c *Case) PersonaPrompt(id SuspectID, returning bool) (string, error) {
	tmpl, ok := c.personas[id]
	if !ok {
		return "", fmt.Errorf("no persona for suspect %q", id)
	}
	s, _ := c.Suspect(id)

	var b strings.Builder
	if err := tmpl.Execute(&b, struct{ Name string }{Name: s.Name}); err != nil {
		return "", fmt.Errorf("render persona for %q: %w", id, err)
	}
	if returning {
		b.WriteString(c.ReturningPrompt)
	}
	return b.String(), nil
}

// FeedbackPromptFor renders the critique prompt around the player's explanation.
func (c *Case) FeedbackPromptFor(explanation string) (string, error) {
	var b strings.Builder
	if err := c.feedback.Execute(&b, struct{ Explanation string }{Explanation: explanation}); err != nil {
		return "", fmt.Errorf("render feedback prompt: %w", err)
	}
	return b.String(), nil
}
