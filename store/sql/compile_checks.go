package sqlstore

import "github.com/goliatone/go-vmauth/core"

var (
	_ core.ContextStore  = (*ContextStore)(nil)
	_ ContextDirectory   = (*ContextStore)(nil)
	_ core.ContextStore  = (*CachedContextStore)(nil)
	_ core.MailboxStore  = (*MailboxStore)(nil)
	_ core.StoreProvider = (*RepositoryFactory)(nil)
)
