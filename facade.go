// Package vmauth provides per-call voicemail authentication sessions: a
// session resolves the dialed domain to an account context, resolves the
// mailbox within that context, validates the caller's password, and reports
// success or a specific failure.
package vmauth

import (
	"fmt"

	vmauthcommand "github.com/goliatone/go-vmauth/command"
	"github.com/goliatone/go-vmauth/core"
	vmauthquery "github.com/goliatone/go-vmauth/query"
)

// CommandQueryService is the combined surface the facade wraps.
type CommandQueryService interface {
	vmauthcommand.MutatingService
	vmauthquery.SessionReader
	vmauthquery.MailboxReader
}

type Commands struct {
	InitSession  *vmauthcommand.InitSessionCommand
	SetMailbox   *vmauthcommand.SetMailboxCommand
	Authenticate *vmauthcommand.AuthenticateCommand
	EndSession   *vmauthcommand.EndSessionCommand
}

type Queries struct {
	GetSession   *vmauthquery.GetSessionQuery
	ListSessions *vmauthquery.ListSessionsQuery
	GetMailbox   *vmauthquery.GetMailboxQuery
}

// Facade bundles the command and query handlers over one service instance.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("vmauth: command/query service is required")
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		InitSession:  vmauthcommand.NewInitSessionCommand(service),
		SetMailbox:   vmauthcommand.NewSetMailboxCommand(service),
		Authenticate: vmauthcommand.NewAuthenticateCommand(service),
		EndSession:   vmauthcommand.NewEndSessionCommand(service),
	}
	facade.queries = Queries{
		GetSession:   vmauthquery.NewGetSessionQuery(service),
		ListSessions: vmauthquery.NewListSessionsQuery(service),
		GetMailbox:   vmauthquery.NewGetMailboxQuery(service),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

var _ CommandQueryService = (*core.Service)(nil)
