// Package model contains the messages passed between the service layers and
// the simulation frame loop.
package model

import (
	"fmt"
	"time"

	"github.com/okian/synaptic/internal/domain/cognition"
)

// CommandKind selects what a Command asks the frame loop to do.
type CommandKind int

// Command kinds.
const (
	CommandActivate CommandKind = iota
	CommandConnect
	CommandSimulate
	CommandDisconnect
	CommandClear
)

func (k CommandKind) String() string {
	switch k {
	case CommandActivate:
		return "activate"
	case CommandConnect:
		return "connect"
	case CommandSimulate:
		return "simulate"
	case CommandDisconnect:
		return "disconnect"
	case CommandClear:
		return "clear"
	default:
		return fmt.Sprintf("command(%d)", int(k))
	}
}

// Command is a request from outside the frame loop. Reply, when set, must
// be buffered; the loop never blocks on it.
type Command struct {
	ID        string      // idempotency key or generated id
	Key       string      // idempotency key; empty when the caller sent none
	Kind      CommandKind // what to do
	AbilityID string      // ability to activate, for CommandActivate
	TS        time.Time   // when the request was accepted
	Reply     chan CommandResult
}

// CommandResult is the frame loop's answer to a Command.
type CommandResult struct {
	Err       error
	AbilityID string
	Affected  int
	Kills     int
	Cleared   int
	FeedState string
}

// NewCommand creates a command with a one-slot reply channel.
func NewCommand(id string, kind CommandKind, abilityID string) Command {
	return Command{
		ID:        id,
		Kind:      kind,
		AbilityID: abilityID,
		TS:        time.Now(),
		Reply:     make(chan CommandResult, 1),
	}
}

// Respond delivers r without blocking. It reports whether r was delivered.
func (c Command) Respond(r CommandResult) bool {
	if c.Reply == nil {
		return false
	}
	select {
	case c.Reply <- r:
		return true
	default:
		return false
	}
}

// Record is a session report queued for persistence.
type Record struct {
	SessionID string
	Report    cognition.Report
	TS        time.Time
}
