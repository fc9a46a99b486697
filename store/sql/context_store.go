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

type ContextStore struct {
	db   *bun.DB
	repo repository.Repository[*contextRecord]
}

func (s *ContextStore) Create(ctx context.Context, in CreateContextInput) (core.Context, error) {
	if s == nil || s.repo == nil {
		return core.Context{}, fmt.Errorf("sqlstore: context store is not configured")
	}
	if strings.TrimSpace(in.Domain) == "" {
		return core.Context{}, fmt.Errorf("sqlstore: context domain is required")
	}

	record := newContextRecord(CreateContextInput{
		Domain: strings.TrimSpace(in.Domain),
		Name:   strings.TrimSpace(in.Name),
	}, time.Now().UTC())

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.Context{}, err
	}
	return created.toDomain(), nil
}

// GetByDomain resolves a voicemail domain to its context. An unknown domain
// returns a CategoryNotFound rich error; backend failures pass through.
func (s *ContextStore) GetByDomain(ctx context.Context, domain string) (core.Context, error) {
	if s == nil || s.repo == nil {
		return core.Context{}, fmt.Errorf("sqlstore: context store is not configured")
	}
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return core.Context{}, core.ErrContextNotFound(domain)
	}

	records, _, err := s.repo.List(ctx,
		repository.SelectBy("domain", "=", domain),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.deleted_at IS NULL")
		}),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return core.Context{}, err
	}
	if len(records) == 0 {
		return core.Context{}, core.ErrContextNotFound(domain)
	}
	return records[0].toDomain(), nil
}

// Delete soft-deletes the context with the given ID.
func (s *ContextStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: context store is not configured")
	}
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return fmt.Errorf("sqlstore: context id is required")
	}
	if s.db == nil {
		return fmt.Errorf("sqlstore: context store has no database handle")
	}
	_, err := s.db.NewUpdate().
		Model((*contextRecord)(nil)).
		Set("deleted_at = ?", time.Now().UTC()).
		Where("id = ?", trimmedID).
		Where("deleted_at IS NULL").
		Exec(ctx)
	return err
}
