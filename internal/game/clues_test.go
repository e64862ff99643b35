package game

import (
	"errors"
	"testing"

	"stolenpainting/internal/casefile"
)

func testBoard(t *testing.T) *ClueBoard {
	t.Helper()
	kase, err := casefile.Load()
	if err != nil {
		t.Fatalf("casefile.Load() error = %v", err)
	}
	return NewClueBoard(kase.Clues)
}

func TestClueBoardUnlock(t *testing.T) {
	b := testBoard(t)

	view, err := b.Open("computer")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if !view.Locked || view.Unlocked {
		t.Fatalf("computer should start locked: %+v", view)
	}

	if _, err := b.Unlock("computer", "password"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("Unlock(wrong) error = %v", err)
	}
	view, err = b.Unlock("computer", "  HELEN1973 ")
	if err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	if !view.Unlocked || view.Text == "" {
		t.Fatalf("unlocked view = %+v", view)
	}
	if opened, ok := b.Opened(); !ok || opened.ID != "computer" || !opened.Unlocked {
		t.Errorf("Opened() = %+v, %v", opened, ok)
	}

	b.Reset()
	if _, ok := b.Opened(); ok {
		t.Error("Reset should close the open clue")
	}
	for _, v := range b.List() {
		if v.Unlocked {
			t.Errorf("Reset left %s unlocked", v.ID)
		}
	}
}

func TestClueBoardUnknown(t *testing.T) {
	b := testBoard(t)
	if _, err := b.Open("knife"); !errors.Is(err, ErrUnknownClue) {
		t.Errorf("Open() error = %v", err)
	}
	if _, err := b.Unlock("knife", "x"); !errors.Is(err, ErrUnknownClue) {
		t.Errorf("Unlock() error = %v", err)
	}
	if view, err := b.Unlock("radio", "anything"); err != nil || view.Locked {
		t.Errorf("Unlock() on an open clue = %+v, %v", view, err)
	}
}
