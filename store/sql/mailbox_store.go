package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-vmauth/core"
	"github.com/uptrace/bun"
)

type MailboxStore struct {
	db   *bun.DB
	repo repository.Repository[*mailboxRecord]
}

func (s *MailboxStore) Create(ctx context.Context, in CreateMailboxInput) (core.Mailbox, error) {
	if s == nil || s.repo == nil {
		return core.Mailbox{}, fmt.Errorf("sqlstore: mailbox store is not configured")
	}
	if strings.TrimSpace(in.ContextID) == "" {
		return core.Mailbox{}, fmt.Errorf("sqlstore: mailbox context id is required")
	}
	if strings.TrimSpace(in.Number) == "" {
		return core.Mailbox{}, fmt.Errorf("sqlstore: mailbox number is required")
	}

	record := newMailboxRecord(CreateMailboxInput{
		ContextID: strings.TrimSpace(in.ContextID),
		Number:    strings.TrimSpace(in.Number),
		Password:  in.Password,
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
	}, time.Now().UTC())

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.Mailbox{}, err
	}
	return created.toDomain(core.Context{ID: record.ContextID}), nil
}

// GetByNumber resolves a mailbox number within a previously resolved context.
// An unknown number returns a CategoryNotFound rich error; backend failures
// pass through.
func (s *MailboxStore) GetByNumber(ctx context.Context, number string, vmContext core.Context) (core.Mailbox, error) {
	if s == nil || s.repo == nil {
		return core.Mailbox{}, fmt.Errorf("sqlstore: mailbox store is not configured")
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return core.Mailbox{}, core.ErrMailboxNotFound(number)
	}
	if strings.TrimSpace(vmContext.ID) == "" {
		return core.Mailbox{}, fmt.Errorf("sqlstore: mailbox context is required")
	}

	records, _, err := s.repo.List(ctx,
		repository.SelectBy("number", "=", number),
		repository.SelectBy("context_id", "=", strings.TrimSpace(vmContext.ID)),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.deleted_at IS NULL")
		}),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return core.Mailbox{}, err
	}
	if len(records) == 0 {
		return core.Mailbox{}, core.ErrMailboxNotFound(number)
	}
	return records[0].toDomain(vmContext), nil
}

// UpdatePassword replaces the stored password for a mailbox.
func (s *MailboxStore) UpdatePassword(ctx context.Context, id string, password string) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: mailbox store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return fmt.Errorf("sqlstore: mailbox id is required")
	}
	current, err := s.repo.GetByID(ctx, trimmedID)
	if err != nil {
		return err
	}
	current.Password = password
	current.UpdatedAt = time.Now().UTC()

	_, err = s.repo.Update(ctx, current, repository.UpdateByID(trimmedID))
	return err
}
