package game

import "stolenpainting/internal/casefile"

// InteractionTracker remembers what the player has engaged with during exploration.
// Only whether any clue was touched matters, not how many.
type InteractionTracker struct {
	roster      map[casefile.SuspectID]bool
	clueTouched bool
	talkedTo    map[casefile.SuspectID]bool
}

// NewInteractionTracker builds a tracker for the given roster. Suspect ids outside the
// roster are never counted towards the gate.
func NewInteractionTracker(roster []casefile.SuspectID) *InteractionTracker {
	members := make(map[casefile.SuspectID]bool, len(roster))
	for _, id := range roster {
		members[id] = true
	}
	return &InteractionTracker{
		roster:   members,
		talkedTo: make(map[casefile.SuspectID]bool, len(roster)),
	}
}

func (t *InteractionTracker) Reset() {
	t.clueTouched = false
	t.talkedTo = make(map[casefile.SuspectID]bool, len(t.roster))
}

func (t *InteractionTracker) RecordClueInteraction() {
	t.clueTouched = true
}

// RecordSuspectInteraction marks a suspect as talked to. It reports false for ids
// outside the roster.
func (t *InteractionTracker) RecordSuspectInteraction(id casefile.SuspectID) bool {
	if !t.roster[id] {
		return false
	}
	t.talkedTo[id] = true
	return true
}

// CanGuess is the gate: at least one clue touched and every suspect talked to.
func (t *InteractionTracker) CanGuess() bool {
	return t.clueTouched && len(t.talkedTo) == len(t.roster)
}

func (t *InteractionTracker) ClueTouched() bool {
	return t.clueTouched
}

func (t *InteractionTracker) TalkedTo(id casefile.SuspectID) bool {
	return t.talkedTo[id]
}

// Gate summarizes the tracker for the presentation layer.
type Gate struct {
	CanGuess    bool
	ClueTouched bool
	TalkedTo    int
	RosterSize  int
}

func (t *InteractionTracker) Gate() Gate {
	return Gate{
		CanGuess:    t.CanGuess(),
		ClueTouched: t.clueTouched,
		TalkedTo:    len(t.talkedTo),
		RosterSize:  len(t.roster),
	}
}
