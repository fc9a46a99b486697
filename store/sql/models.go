package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type contextRecord struct {
	bun.BaseModel `bun:"table:voicemail_contexts,alias:vc"`

	ID        string     `bun:"id,pk"`
	Domain    string     `bun:"domain,notnull"`
	Name      string     `bun:"name"`
	CreatedAt time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt *time.Time `bun:"deleted_at,soft_delete"`
}

type mailboxRecord struct {
	bun.BaseModel `bun:"table:voicemail_mailboxes,alias:vm"`

	ID        string     `bun:"id,pk"`
	ContextID string     `bun:"context_id,notnull"`
	Number    string     `bun:"number,notnull"`
	Password  string     `bun:"password,notnull"`
	Name      string     `bun:"name"`
	Email     string     `bun:"email"`
	CreatedAt time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	DeletedAt *time.Time `bun:"deleted_at,soft_delete"`
}
