package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-vmauth/core"
)

const (
	TypeInitSession = "vmauth.command.session.init"
	TypeSetMailbox  = "vmauth.command.session.set_mailbox"
	TypeAuth        = "vmauth.command.session.authenticate"
	TypeEndSession  = "vmauth.command.session.end"
)

type InitSessionMessage struct {
	Request core.InitSessionRequest
}

func (InitSessionMessage) Type() string { return TypeInitSession }

func (m InitSessionMessage) Validate() error {
	if strings.TrimSpace(m.Request.SessionID) == "" {
		return fmt.Errorf("command: session id is required")
	}
	if strings.TrimSpace(m.Request.Domain) == "" {
		return fmt.Errorf("command: domain is required")
	}
	return nil
}

type SetMailboxMessage struct {
	Request core.SetMailboxRequest
}

func (SetMailboxMessage) Type() string { return TypeSetMailbox }

func (m SetMailboxMessage) Validate() error {
	if strings.TrimSpace(m.Request.SessionID) == "" {
		return fmt.Errorf("command: session id is required")
	}
	return nil
}

type AuthenticateMessage struct {
	Request core.AuthenticateRequest
}

func (AuthenticateMessage) Type() string { return TypeAuth }

func (m AuthenticateMessage) Validate() error {
	if strings.TrimSpace(m.Request.SessionID) == "" {
		return fmt.Errorf("command: session id is required")
	}
	return nil
}

type EndSessionMessage struct {
	SessionID string
}

func (EndSessionMessage) Type() string { return TypeEndSession }

func (m EndSessionMessage) Validate() error {
	if strings.TrimSpace(m.SessionID) == "" {
		return fmt.Errorf("command: session id is required")
	}
	return nil
}
