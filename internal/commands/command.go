// Package commands implements undoable edit commands over session state.
package commands

import (
	"errors"
	"log/slog"
)

// ErrNothingToUndo is returned when the undo stack is empty.
var ErrNothingToUndo = errors.New("nothing to undo")

// ErrNothingToRedo is returned when the redo stack is empty.
var ErrNothingToRedo = errors.New("nothing to redo")

// Command is a single reversible edit.
type Command interface {
	Name() string
	Execute() error
	Undo() error
}

// Dispatcher executes commands and maintains undo/redo stacks. Not safe
// for concurrent use; the owning session serializes access.
type Dispatcher struct {
	logger *slog.Logger
	undo   []Command
	redo   []Command
}

// NewDispatcher creates a dispatcher. A nil logger falls back to the
// default slog logger.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger}
}

// Execute runs a command and records it for undo. A new edit clears the
// redo stack.
func (d *Dispatcher) Execute(cmd Command) error {
	if err := cmd.Execute(); err != nil {
		d.logger.Error("command failed", "command", cmd.Name(), "error", err)
		return err
	}
	d.undo = append(d.undo, cmd)
	d.redo = nil
	d.logger.Debug("command executed", "command", cmd.Name(), "undo_depth", len(d.undo))
	return nil
}

// Undo reverts the most recent command.
func (d *Dispatcher) Undo() error {
	if len(d.undo) == 0 {
		return ErrNothingToUndo
	}
	cmd := d.undo[len(d.undo)-1]
	if err := cmd.Undo(); err != nil {
		d.logger.Error("undo failed", "command", cmd.Name(), "error", err)
		return err
	}
	d.undo = d.undo[:len(d.undo)-1]
	d.redo = append(d.redo, cmd)
	d.logger.Debug("command undone", "command", cmd.Name())
	return nil
}

// Redo re-applies the most recently undone command.
func (d *Dispatcher) Redo() error {
	if len(d.redo) == 0 {
		return ErrNothingToRedo
	}
	cmd := d.redo[len(d.redo)-1]
	if err := cmd.Execute(); err != nil {
		d.logger.Error("redo failed", "command", cmd.Name(), "error", err)
		return err
	}
	d.redo = d.redo[:len(d.redo)-1]
	d.undo = append(d.undo, cmd)
	return nil
}

// CanUndo reports whether an undoable command is recorded.
func (d *Dispatcher) CanUndo() bool { return len(d.undo) > 0 }

// CanRedo reports whether a redoable command is recorded.
func (d *Dispatcher) CanRedo() bool { return len(d.redo) > 0 }
