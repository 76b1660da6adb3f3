// Package undo keeps a linear undo/redo history of transactions. A
// transaction is a named list of reversible commands run as one user
// action.
package undo

import (
	"context"
	"errors"
	"fmt"
)

// Command is one reversible step.
type Command interface {
	Redo(ctx context.Context) error
	Undo(ctx context.Context) error
}

// ValueCommand is a command whose forward step produces a value that the
// reverse step needs, such as the id of a created row.
type ValueCommand[T any] struct {
	redo  func(ctx context.Context) (T, error)
	undo  func(ctx context.Context, v T) error
	value T
}

// NewCommand creates a command. undo receives the value returned by the
// latest successful redo.
func NewCommand[T any](redo func(ctx context.Context) (T, error), undo func(ctx context.Context, v T) error) *ValueCommand[T] {
	return &ValueCommand[T]{redo: redo, undo: undo}
}

// Func creates a command from two functions without a value.
func Func(redo, undo func(ctx context.Context) error) Command {
	return NewCommand(
		func(ctx context.Context) (struct{}, error) { return struct{}{}, redo(ctx) },
		func(ctx context.Context, _ struct{}) error { return undo(ctx) },
	)
}

func (c *ValueCommand[T]) Redo(ctx context.Context) error {
	v, err := c.redo(ctx)
	if err != nil {
		return err
	}
	c.value = v
	return nil
}

func (c *ValueCommand[T]) Undo(ctx context.Context) error {
	return c.undo(ctx, c.value)
}

// Value returns the value of the latest successful redo.
func (c *ValueCommand[T]) Value() T { return c.value }

// Transaction is a named sequence of commands.
type Transaction struct {
	name string
	cmds []Command
	done []bool
}

// NewTransaction creates an empty transaction.
func NewTransaction(name string) *Transaction {
	return &Transaction{name: name}
}

// Name returns the transaction label.
func (t *Transaction) Name() string { return t.name }

// Len returns the number of commands.
func (t *Transaction) Len() int { return len(t.cmds) }

// Applied returns the number of commands currently applied.
func (t *Transaction) Applied() int {
	n := 0
	for _, d := range t.done {
		if d {
			n++
		}
	}
	return n
}

// Add appends a command without running it.
func (t *Transaction) Add(c Command) {
	t.cmds = append(t.cmds, c)
	t.done = append(t.done, false)
}

// Execute runs every command in order. A failing command does not stop
// the others; the failures are joined into the returned error and only
// the commands that succeeded are undone later.
func (t *Transaction) Execute(ctx context.Context) error {
	return t.Redo(ctx)
}

// Redo runs every command forward.
func (t *Transaction) Redo(ctx context.Context) error {
	var errs []error
	for i, c := range t.cmds {
		if err := c.Redo(ctx); err != nil {
			t.done[i] = false
			errs = append(errs, fmt.Errorf("%s: step %d: %w", t.name, i+1, err))
			continue
		}
		t.done[i] = true
	}
	return errors.Join(errs...)
}

// Undo reverts the applied commands, last first.
func (t *Transaction) Undo(ctx context.Context) error {
	var errs []error
	for i := len(t.cmds) - 1; i >= 0; i-- {
		if !t.done[i] {
			continue
		}
		if err := t.cmds[i].Undo(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: undo step %d: %w", t.name, i+1, err))
			continue
		}
		t.done[i] = false
	}
	return errors.Join(errs...)
}
