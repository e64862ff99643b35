package game

import "errors"

var (
	ErrWrongPhase       = errors.New("action not available in the current phase")
	ErrGateNotSatisfied = errors.New("interact with any clue and chat with all the suspects before guessing")
	ErrIncompleteGuess  = errors.New("select a suspect and write an explanation before guessing")
	ErrUnknownSuspect   = errors.New("unknown suspect")
	ErrUnknownClue      = errors.New("unknown clue")
	ErrWrongPassword    = errors.New("wrong password")
	ErrIntroPlaying     = errors.New("the introduction is still playing")
)
