package query

import (
	"fmt"
	"strings"
)

const (
	TypeGetSession   = "vmauth.query.session.get"
	TypeListSessions = "vmauth.query.session.list"
	TypeGetMailbox   = "vmauth.query.mailbox.get"
)

type GetSessionMessage struct {
	SessionID string
}

func (GetSessionMessage) Type() string { return TypeGetSession }

func (m GetSessionMessage) Validate() error {
	if strings.TrimSpace(m.SessionID) == "" {
		return fmt.Errorf("query: session id is required")
	}
	return nil
}

type ListSessionsMessage struct{}

func (ListSessionsMessage) Type() string { return TypeListSessions }

func (ListSessionsMessage) Validate() error { return nil }

type GetMailboxMessage struct {
	Domain        string
	MailboxNumber string
}

func (GetMailboxMessage) Type() string { return TypeGetMailbox }

func (m GetMailboxMessage) Validate() error {
	if strings.TrimSpace(m.Domain) == "" {
		return fmt.Errorf("query: domain is required")
	}
	if strings.TrimSpace(m.MailboxNumber) == "" {
		return fmt.Errorf("query: mailbox number is required")
	}
	return nil
}
