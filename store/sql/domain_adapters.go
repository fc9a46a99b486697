package sqlstore

import (
	"time"

	"github.com/goliatone/go-vmauth/core"
)

type CreateContextInput struct {
	Domain string
	Name   string
}

type CreateMailboxInput struct {
	ContextID string
	Number    string
	Password  string
	Name      string
	Email     string
}

func newContextRecord(in CreateContextInput, now time.Time) *contextRecord {
	return &contextRecord{
		Domain:    in.Domain,
		Name:      in.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (r *contextRecord) toDomain() core.Context {
	if r == nil {
		return core.Context{}
	}
	return core.Context{
		ID:        r.ID,
		Domain:    r.Domain,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func newMailboxRecord(in CreateMailboxInput, now time.Time) *mailboxRecord {
	return &mailboxRecord{
		ContextID: in.ContextID,
		Number:    in.Number,
		Password:  in.Password,
		Name:      in.Name,
		Email:     in.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (r *mailboxRecord) toDomain(vmContext core.Context) core.Mailbox {
	if r == nil {
		return core.Mailbox{}
	}
	return core.Mailbox{
		ID:        r.ID,
		Number:    r.Number,
		Password:  r.Password,
		Name:      r.Name,
		Email:     r.Email,
		Context:   vmContext,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
