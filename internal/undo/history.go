package undo

import (
	"context"
	"errors"
	"sync"
)

// ErrNothingToUndo is returned by Undo on an empty undo stack.
var ErrNothingToUndo = errors.New("nothing to undo")

// ErrNothingToRedo is returned by Redo on an empty redo stack.
var ErrNothingToRedo = errors.New("nothing to redo")

// History holds the undo and redo stacks.
type History struct {
	mu        sync.Mutex
	undos     []*Transaction
	redos     []*Transaction
	listeners []func()
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{}
}

// OnChange registers fn to be called after every change of the stacks.
func (h *History) OnChange(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Add records an executed transaction and clears the redo stack.
func (h *History) Add(t *Transaction) {
	h.mu.Lock()
	h.undos = append(h.undos, t)
	h.redos = nil
	h.mu.Unlock()
	h.changed()
}

// Undo reverts the most recent transaction and moves it to the redo stack.
// The transaction moves even when some of its steps fail.
func (h *History) Undo(ctx context.Context) error {
	h.mu.Lock()
	if len(h.undos) == 0 {
		h.mu.Unlock()
		return ErrNothingToUndo
	}
	t := h.undos[len(h.undos)-1]
	h.undos = h.undos[:len(h.undos)-1]
	h.redos = append(h.redos, t)
	h.mu.Unlock()

	err := t.Undo(ctx)
	h.changed()
	return err
}

// Redo replays the most recently undone transaction.
func (h *History) Redo(ctx context.Context) error {
	h.mu.Lock()
	if len(h.redos) == 0 {
		h.mu.Unlock()
		return ErrNothingToRedo
	}
	t := h.redos[len(h.redos)-1]
	h.redos = h.redos[:len(h.redos)-1]
	h.undos = append(h.undos, t)
	h.mu.Unlock()

	err := t.Redo(ctx)
	h.changed()
	return err
}

func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undos) > 0
}

func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redos) > 0
}

// NextUndoName returns the name of the transaction Undo would revert, or "".
func (h *History) NextUndoName() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.undos) == 0 {
		return ""
	}
	return h.undos[len(h.undos)-1].Name()
}

// NextRedoName returns the name of the transaction Redo would replay, or "".
func (h *History) NextRedoName() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.redos) == 0 {
		return ""
	}
	return h.redos[len(h.redos)-1].Name()
}

// Clear empties both stacks.
func (h *History) Clear() {
	h.mu.Lock()
	h.undos = nil
	h.redos = nil
	h.mu.Unlock()
	h.changed()
}

func (h *History) changed() {
	h.mu.Lock()
	listeners := append([]func(){}, h.listeners...)
	h.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}
