// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes shared by all commands.
//
// Commands always return errors; Execute decides how to display them and
// which exit code to use.

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/docchat/internal/api"
	"github.com/jeranaias/docchat/internal/config"
	"github.com/jeranaias/docchat/internal/session"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitNetworkError  = 5
	ExitNotFoundError = 7
	ExitTimeoutError  = 8

	// ExitInterrupted is used when a reply was stopped by the user
	ExitInterrupted = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "sessions", "upload")
	Action  string // Action being performed (e.g., "delete")
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Command, e.Action, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents invalid user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// errInterrupted is returned by ask when the reply was cancelled.
var errInterrupted = errors.New("reply interrupted")

// NewCommandError wraps err with the command and action that failed.
func NewCommandError(command, action string, err error) error {
	if err == nil {
		return nil
	}
	return &CommandError{Command: command, Action: action, Err: err}
}

// NewValidationError creates a validation error for a user-supplied value.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var ve *ValidationError
	var cfgErr config.ValidateErrors
	var cfgOne config.ValidationError
	switch {
	case errors.Is(err, errInterrupted):
		return ExitInterrupted
	case errors.As(err, &ve), isUsageError(err):
		return ExitUsageError
	case errors.As(err, &cfgErr), errors.As(err, &cfgOne):
		return ExitConfigError
	case api.IsNotFound(err):
		return ExitNotFoundError
	case api.IsTimeout(err):
		return ExitTimeoutError
	case api.IsConnection(err):
		return ExitNetworkError
	case errors.Is(err, session.ErrNoCollection), errors.Is(err, session.ErrNothingStaged):
		return ExitUsageError
	}
	return ExitGeneralError
}

// isUsageError recognizes the argument errors cobra produces.
func isUsageError(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "accepts ", "requires at least", "invalid argument"} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}

// hint returns a one-line suggestion for common failures, or "".
func hint(err error, serverURL string) string {
	switch {
	case api.IsConnection(err):
		return fmt.Sprintf("Is the server running at %s? Set it with --server or DOCCHAT_SERVER_URL.", serverURL)
	case errors.Is(err, session.ErrNoCollection):
		return "Select a collection with --collection or /collection <name>."
	}
	return ""
}
