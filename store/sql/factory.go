package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-vmauth/core"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db *bun.DB

	contextStore *ContextStore
	mailboxStore *MailboxStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.contextStore != nil && f.mailboxStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) ContextStore() core.ContextStore {
	if f == nil {
		return nil
	}
	return f.contextStore
}

func (f *RepositoryFactory) MailboxStore() core.MailboxStore {
	if f == nil {
		return nil
	}
	return f.mailboxStore
}

// SQLContextStore exposes the concrete store for callers that need the
// write-side API in addition to the lookup contract.
func (f *RepositoryFactory) SQLContextStore() *ContextStore {
	if f == nil {
		return nil
	}
	return f.contextStore
}

func (f *RepositoryFactory) SQLMailboxStore() *MailboxStore {
	if f == nil {
		return nil
	}
	return f.mailboxStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) initStores() error {
	contextRepo := repository.NewRepository[*contextRecord](f.db, contextHandlers())
	if validator, ok := contextRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid context repository wiring: %w", err)
		}
	}

	mailboxRepo := repository.NewRepository[*mailboxRecord](f.db, mailboxHandlers())
	if validator, ok := mailboxRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid mailbox repository wiring: %w", err)
		}
	}

	f.contextStore = &ContextStore{
		db:   f.db,
		repo: contextRepo,
	}
	f.mailboxStore = &MailboxStore{
		db:   f.db,
		repo: mailboxRepo,
	}

	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
