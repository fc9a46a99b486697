package core

import (
	"fmt"
	"strings"
	"time"
)

// Context is a resolved voicemail domain/account scope. Immutable once
// obtained from a store.
type Context struct {
	ID        string
	Domain    string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c Context) Validate() error {
	if strings.TrimSpace(c.Domain) == "" {
		return fmt.Errorf("core: context domain is required")
	}
	return nil
}

// Mailbox is a resolved mailbox within a Context. It carries the expected
// password and a back-reference to its owning context. Immutable once
// obtained from a store.
type Mailbox struct {
	ID        string
	Number    string
	Password  string
	Name      string
	Email     string
	Context   Context
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (m Mailbox) Validate() error {
	if strings.TrimSpace(m.Number) == "" {
		return fmt.Errorf("core: mailbox number is required")
	}
	return m.Context.Validate()
}

type SessionState string

const (
	SessionStateInit           SessionState = "init"
	SessionStateUnknownMailbox SessionState = "unknown_mailbox"
	SessionStateAuthenticating SessionState = "authenticating"
	SessionStateDone           SessionState = "done"
)

// sessionTransitionAllowed encodes the forward-only session lifecycle. A
// session never revisits a state it has left; any state may jump straight to
// done when the call ends.
func sessionTransitionAllowed(current, next SessionState) bool {
	allowed := map[SessionState]map[SessionState]struct{}{
		SessionStateInit: {
			SessionStateUnknownMailbox: {},
			SessionStateAuthenticating: {},
			SessionStateDone:           {},
		},
		SessionStateUnknownMailbox: {
			SessionStateAuthenticating: {},
			SessionStateDone:           {},
		},
		SessionStateAuthenticating: {
			SessionStateDone: {},
		},
		SessionStateDone: {},
	}
	targets, ok := allowed[current]
	if !ok {
		return false
	}
	_, ok = targets[next]
	return ok
}

// SessionEndReason records why a session reached its terminal state.
type SessionEndReason string

const (
	SessionEndAuthenticated SessionEndReason = "authenticated"
	SessionEndSkippedAuth   SessionEndReason = "skipped_auth"
	SessionEndHungup        SessionEndReason = "hungup"
	SessionEndFailed        SessionEndReason = "failed"
	SessionEndRequested     SessionEndReason = "requested"
)

// SessionSnapshot is a read-only view of a live session, safe to hand to
// query consumers while the session loop keeps running.
type SessionSnapshot struct {
	ID            string
	ChannelID     string
	State         SessionState
	Domain        string
	MailboxNumber string
	SkipAuth      bool
	Authenticated bool
	EndReason     SessionEndReason
	CreatedAt     time.Time
}

// CreateSessionInput configures a new per-call session.
type CreateSessionInput struct {
	// SkipAuth marks the session as pre-authenticated at creation. It is
	// fixed for the session's lifetime.
	SkipAuth bool
}
