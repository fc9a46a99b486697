package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-vmauth/core"
)

var (
	_ gocmd.Querier[GetSessionMessage, core.SessionSnapshot]     = (*GetSessionQuery)(nil)
	_ gocmd.Querier[ListSessionsMessage, []core.SessionSnapshot] = (*ListSessionsQuery)(nil)
	_ gocmd.Querier[GetMailboxMessage, core.Mailbox]             = (*GetMailboxQuery)(nil)
)
