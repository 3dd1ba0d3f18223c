package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady is returned for dispatches that arrive before the module's
	// content load has resolved.
	ErrNotReady = errors.New("module not ready")

	// ErrInvalidTarget is returned when a blame targets the active player or
	// someone outside the frozen roster. State is left unchanged.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrInsufficientPlayers is returned when a game is started below the
	// mode's minimum player count.
	ErrInsufficientPlayers = errors.New("not enough players")
)

// ConfigError marks a malformed or inconsistent game config. Most are caught
// when the module is registered; the dispatch-time ones (undeclared Goto
// targets, unbounded transition cycles) point at broken controller wiring.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Reason
}

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}
