// Package chat keeps one conversation per speaker and relays it to a chat-completion
// collaborator. Requests are built on the control goroutine, run on a worker via
// Dispatch.Run, and their Reply is handed back to Manager.Apply on the control
// goroutine. Workers never touch session state.
package chat

import (
	"context"
	"errors"

	"stolenpainting/internal/casefile"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SpeakerID names a conversation: one per suspect plus the feedback speaker.
type SpeakerID string

const Feedback SpeakerID = casefile.FeedbackID

func SuspectSpeaker(id casefile.SuspectID) SpeakerID {
	return SpeakerID(id)
}

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrRequestPending = errors.New("waiting for a reply")
	ErrUnknownSpeaker = errors.New("unknown speaker")
	ErrNoCompleter    = errors.New("no chat completion service available")
	ErrSuperseded     = errors.New("reply superseded")
)

// CompletionRequest carries the full running history for one speaker. The
// collaborator is treated as stateless between calls.
type CompletionRequest struct {
	Speaker SpeakerID
	History []Message
}

// Completer is the chat-completion collaborator.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (Message, error)
}

// Line is one entry of the displayed transcript.
type Line struct {
	Author string
	Role   Role
	Text   string
}

const playerAuthor = "Me"

type session struct {
	speaker    SpeakerID
	name       string
	history    []Message
	transcript []Line
	// pending is the id of the in-flight request, zero when idle.
	pending uint64
}

func (s *session) reset() {
	s.history = nil
	s.transcript = nil
	s.pending = 0
}
