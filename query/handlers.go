package query

import (
	"context"

	"github.com/goliatone/go-vmauth/core"
)

// SessionReader exposes read-only session views.
type SessionReader interface {
	GetSession(ctx context.Context, sessionID string) (core.SessionSnapshot, error)
	ListSessions(ctx context.Context) ([]core.SessionSnapshot, error)
}

// MailboxReader resolves mailboxes outside any session.
type MailboxReader interface {
	GetMailbox(ctx context.Context, domain, number string) (core.Mailbox, error)
}

type GetSessionQuery struct {
	reader SessionReader
}

func NewGetSessionQuery(reader SessionReader) *GetSessionQuery {
	return &GetSessionQuery{reader: reader}
}

func (q *GetSessionQuery) Query(ctx context.Context, msg GetSessionMessage) (core.SessionSnapshot, error) {
	if q == nil || q.reader == nil {
		return core.SessionSnapshot{}, queryDependencyError("query: session reader is required")
	}
	return q.reader.GetSession(ctx, msg.SessionID)
}

type ListSessionsQuery struct {
	reader SessionReader
}

func NewListSessionsQuery(reader SessionReader) *ListSessionsQuery {
	return &ListSessionsQuery{reader: reader}
}

func (q *ListSessionsQuery) Query(ctx context.Context, _ ListSessionsMessage) ([]core.SessionSnapshot, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: session reader is required")
	}
	return q.reader.ListSessions(ctx)
}

type GetMailboxQuery struct {
	reader MailboxReader
}

func NewGetMailboxQuery(reader MailboxReader) *GetMailboxQuery {
	return &GetMailboxQuery{reader: reader}
}

func (q *GetMailboxQuery) Query(ctx context.Context, msg GetMailboxMessage) (core.Mailbox, error) {
	if q == nil || q.reader == nil {
		return core.Mailbox{}, queryDependencyError("query: mailbox reader is required")
	}
	return q.reader.GetMailbox(ctx, msg.Domain, msg.MailboxNumber)
}
