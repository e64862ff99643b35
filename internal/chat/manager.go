package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stolenpainting/internal/casefile"
	"stolenpainting/internal/debug"
)

// Manager owns every speaker's session. Its methods must be called from the control
// goroutine; only Dispatch.Run is safe to call elsewhere.
type Manager struct {
	kase      *casefile.Case
	completer Completer
	timeout   time.Duration
	debug     *debug.Logger

	sessions map[SpeakerID]*session
	nextID   uint64
}

// NewManager creates sessions for every suspect and the feedback speaker. A nil
// completer is allowed: every send then fails with ErrNoCompleter.
func NewManager(kase *casefile.Case, completer Completer, timeout time.Duration, debugLogger *debug.Logger) *Manager {
	m := &Manager{
		kase:      kase,
		completer: completer,
		timeout:   timeout,
		debug:     debugLogger,
		sessions:  make(map[SpeakerID]*session, len(kase.Suspects)+1),
	}
	for _, s := range kase.Suspects {
		m.sessions[SuspectSpeaker(s.ID)] = &session{speaker: SuspectSpeaker(s.ID), name: s.Name}
	}
	m.sessions[Feedback] = &session{speaker: Feedback, name: "Feedback"}
	return m
}

// Dispatch is one request ready to run on a worker. It holds a private copy of the
// history so the session can keep changing while it runs.
type Dispatch struct {
	ID      uint64
	Speaker SpeakerID
	// UserAuthored is set when the request answers a message the player typed, as
	// opposed to an opening line or a critique.
	UserAuthored bool

	history   []Message
	completer Completer
	timeout   time.Duration
}

// Reply is the outcome of a Dispatch, applied with Manager.Apply.
type Reply struct {
	ID           uint64
	Speaker      SpeakerID
	UserAuthored bool
	Message      Message
	Err          error
	Elapsed      time.Duration
}

// Run calls the collaborator. It blocks and is meant to run off the control goroutine.
func (d *Dispatch) Run(ctx context.Context) Reply {
	reply := Reply{ID: d.ID, Speaker: d.Speaker, UserAuthored: d.UserAuthored}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	msg, err := d.completer.Complete(ctx, CompletionRequest{Speaker: d.Speaker, History: d.history})
	reply.Elapsed = time.Since(start)
	if err != nil {
		reply.Err = err
		return reply
	}
	msg.Role = RoleAssistant
	msg.Content = strings.TrimSpace(msg.Content)
	reply.Message = msg
	return reply
}

// History returns the messages the request will send.
func (d *Dispatch) History() []Message {
	return append([]Message(nil), d.history...)
}

// Update is a reply that made it into a session.
type Update struct {
	Speaker      SpeakerID
	UserAuthored bool
	Line         Line
}

// Send appends the player's message and prepares the request for it. Empty text and
// sessions already waiting on a reply are rejected without touching the history.
func (m *Manager) Send(speaker SpeakerID, text string) (*Dispatch, error) {
	s, ok := m.sessions[speaker]
	if !ok {
		return nil, ErrUnknownSpeaker
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if s.pending != 0 {
		return nil, ErrRequestPending
	}
	if m.completer == nil {
		return nil, ErrNoCompleter
	}

	if len(s.history) == 0 && speaker != Feedback {
		prompt, err := m.kase.PersonaPrompt(casefile.SuspectID(speaker), false)
		if err != nil {
			return nil, fmt.Errorf("send to %s: %w", speaker, err)
		}
		s.history = []Message{{Role: RoleSystem, Content: prompt}}
	}

	msg := Message{Role: RoleUser, Content: text}
	s.history = append(s.history, msg)
	s.transcript = append(s.transcript, Line{Author: playerAuthor, Role: RoleUser, Text: text})
	return m.dispatch(s, true), nil
}

// SwitchTo opens a suspect's conversation. A first visit seeds the persona and asks
// for an opening line. A revisit keeps the transcript as it is and only sends a fresh
// system turn with the returning prompt so the suspect can acknowledge the return.
// Any request still in flight for the speaker is superseded.
func (m *Manager) SwitchTo(speaker SpeakerID) (*Dispatch, error) {
	s, ok := m.sessions[speaker]
	if !ok || speaker == Feedback {
		return nil, ErrUnknownSpeaker
	}
	if m.completer == nil {
		return nil, ErrNoCompleter
	}

	returning := len(s.transcript) > 0
	prompt, err := m.kase.PersonaPrompt(casefile.SuspectID(speaker), returning)
	if err != nil {
		return nil, fmt.Errorf("switch to %s: %w", speaker, err)
	}

	seed := Message{Role: RoleSystem, Content: prompt}
	if returning {
		s.history = append(s.history, seed)
	} else {
		s.history = []Message{seed}
	}
	if s.pending != 0 {
		m.debug.Printf("Chat %s: request %d superseded by switch", speaker, s.pending)
	}
	return m.dispatch(s, false), nil
}

// Critique restarts the feedback conversation around the player's explanation.
func (m *Manager) Critique(explanation string) (*Dispatch, error) {
	s := m.sessions[Feedback]
	if strings.TrimSpace(explanation) == "" {
		return nil, ErrEmptyMessage
	}
	if m.completer == nil {
		return nil, ErrNoCompleter
	}

	prompt, err := m.kase.FeedbackPromptFor(explanation)
	if err != nil {
		return nil, fmt.Errorf("critique: %w", err)
	}
	s.reset()
	s.history = []Message{{Role: RoleSystem, Content: prompt}}
	return m.dispatch(s, false), nil
}

// Apply hands a worker's reply back to its session. Replies for a request that is no
// longer the latest one for that speaker are discarded with ErrSuperseded. A failed
// reply clears the pending request and appends nothing.
func (m *Manager) Apply(reply Reply) (Update, error) {
	s, ok := m.sessions[reply.Speaker]
	if !ok {
		return Update{}, ErrUnknownSpeaker
	}
	if reply.ID == 0 || reply.ID != s.pending {
		m.debug.Printf("Chat %s: discarding reply %d (pending=%d)", reply.Speaker, reply.ID, s.pending)
		return Update{}, ErrSuperseded
	}
	s.pending = 0

	if reply.Err != nil {
		m.debug.Printf("Chat %s: request %d failed after %v: %v", reply.Speaker, reply.ID, reply.Elapsed, reply.Err)
		return Update{}, fmt.Errorf("%s did not answer: %w", s.name, reply.Err)
	}

	s.history = append(s.history, reply.Message)
	line := Line{Author: s.name, Role: RoleAssistant, Text: reply.Message.Content}
	s.transcript = append(s.transcript, line)
	m.debug.Printf("Chat %s: request %d answered in %v", reply.Speaker, reply.ID, reply.Elapsed)

	return Update{Speaker: reply.Speaker, UserAuthored: reply.UserAuthored, Line: line}, nil
}

// ClearAll wipes every session. Replies still in flight will be discarded.
func (m *Manager) ClearAll() {
	for _, s := range m.sessions {
		s.reset()
	}
	m.debug.Printf("Chat: all sessions cleared")
}

// Transcript returns a copy of the displayed conversation for speaker.
func (m *Manager) Transcript(speaker SpeakerID) []Line {
	s, ok := m.sessions[speaker]
	if !ok {
		return nil
	}
	return append([]Line(nil), s.transcript...)
}

// History returns a copy of the messages sent to the collaborator for speaker.
func (m *Manager) History(speaker SpeakerID) []Message {
	s, ok := m.sessions[speaker]
	if !ok {
		return nil
	}
	return append([]Message(nil), s.history...)
}

func (m *Manager) Pending(speaker SpeakerID) bool {
	s, ok := m.sessions[speaker]
	return ok && s.pending != 0
}

// Name returns the display name for speaker.
func (m *Manager) Name(speaker SpeakerID) string {
	if s, ok := m.sessions[speaker]; ok {
		return s.name
	}
	return string(speaker)
}

func (m *Manager) dispatch(s *session, userAuthored bool) *Dispatch {
	m.nextID++
	s.pending = m.nextID
	m.debug.Printf("Chat %s: dispatching request %d (%d messages, user=%v)", s.speaker, m.nextID, len(s.history), userAuthored)
	return &Dispatch{
		ID:           m.nextID,
		Speaker:      s.speaker,
		UserAuthored: userAuthored,
		history:      append([]Message(nil), s.history...),
		completer:    m.completer,
		timeout:      m.timeout,
	}
}
