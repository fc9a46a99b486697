package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[InitSessionMessage]  = (*InitSessionCommand)(nil)
	_ gocmd.Commander[SetMailboxMessage]   = (*SetMailboxCommand)(nil)
	_ gocmd.Commander[AuthenticateMessage] = (*AuthenticateCommand)(nil)
	_ gocmd.Commander[EndSessionMessage]   = (*EndSessionCommand)(nil)
)
