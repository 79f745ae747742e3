// internal/game/errors.go
//
// Rejection taxonomy for the engine. Every invalid command fails with a
// *RuleError carrying one of five kinds; transports map kinds to their own
// status codes. A failed command never mutates state.

package game

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a command rejection.
type ErrorKind string

const (
	KindNotFound      ErrorKind = "not_found"      // unknown game/room/player id
	KindInvalidState  ErrorKind = "invalid_state"  // operation outside its valid status
	KindInvalidInput  ErrorKind = "invalid_input"  // malformed code, missing target, bad index
	KindTurnViolation ErrorKind = "turn_violation" // not the caller's turn, used powerup, silenced
	KindCapacity      ErrorKind = "capacity"       // room full, team slot taken, loadout conflict
)

// RuleError is a structured command rejection.
type RuleError struct {
	Kind    ErrorKind
	Message string
}

func (e *RuleError) Error() string { return e.Message }

// KindOf extracts the rejection kind from an error chain, or "" for errors
// that did not originate as rule rejections.
func KindOf(err error) ErrorKind {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}

func notFound(format string, args ...any) error {
	return &RuleError{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalidState(format string, args ...any) error {
	return &RuleError{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func invalidInput(format string, args ...any) error {
	return &RuleError{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func turnViolation(format string, args ...any) error {
	return &RuleError{Kind: KindTurnViolation, Message: fmt.Sprintf(format, args...)}
}

func capacity(format string, args ...any) error {
	return &RuleError{Kind: KindCapacity, Message: fmt.Sprintf(format, args...)}
}
