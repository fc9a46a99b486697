package core

import (
	"context"
	"strings"
	"sync"
)

// MemoryContextStore is an in-memory ContextStore keyed by domain. Default
// wiring for tests and embedded use.
type MemoryContextStore struct {
	mu       sync.RWMutex
	byDomain map[string]Context
}

func NewMemoryContextStore(contexts ...Context) *MemoryContextStore {
	store := &MemoryContextStore{byDomain: map[string]Context{}}
	for _, vmCtx := range contexts {
		store.Put(vmCtx)
	}
	return store
}

func (s *MemoryContextStore) Put(vmCtx Context) {
	if s == nil {
		return
	}
	domain := strings.TrimSpace(vmCtx.Domain)
	if domain == "" {
		return
	}
	s.mu.Lock()
	s.byDomain[domain] = vmCtx
	s.mu.Unlock()
}

func (s *MemoryContextStore) GetByDomain(_ context.Context, domain string) (Context, error) {
	if s == nil {
		return Context{}, ErrContextNotFound(domain)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	vmCtx, ok := s.byDomain[strings.TrimSpace(domain)]
	if !ok {
		return Context{}, ErrContextNotFound(domain)
	}
	return vmCtx, nil
}

// MemoryMailboxStore is an in-memory MailboxStore keyed by context domain and
// mailbox number.
type MemoryMailboxStore struct {
	mu       sync.RWMutex
	byDomain map[string]map[string]Mailbox
}

func NewMemoryMailboxStore(mailboxes ...Mailbox) *MemoryMailboxStore {
	store := &MemoryMailboxStore{byDomain: map[string]map[string]Mailbox{}}
	for _, mailbox := range mailboxes {
		store.Put(mailbox)
	}
	return store
}

func (s *MemoryMailboxStore) Put(mailbox Mailbox) {
	if s == nil {
		return
	}
	domain := strings.TrimSpace(mailbox.Context.Domain)
	number := strings.TrimSpace(mailbox.Number)
	if domain == "" || number == "" {
		return
	}
	s.mu.Lock()
	if s.byDomain[domain] == nil {
		s.byDomain[domain] = map[string]Mailbox{}
	}
	s.byDomain[domain][number] = mailbox
	s.mu.Unlock()
}

func (s *MemoryMailboxStore) GetByNumber(_ context.Context, number string, vmContext Context) (Mailbox, error) {
	if s == nil {
		return Mailbox{}, ErrMailboxNotFound(number)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	boxes, ok := s.byDomain[strings.TrimSpace(vmContext.Domain)]
	if !ok {
		return Mailbox{}, ErrMailboxNotFound(number)
	}
	mailbox, ok := boxes[strings.TrimSpace(number)]
	if !ok {
		return Mailbox{}, ErrMailboxNotFound(number)
	}
	return mailbox, nil
}

var (
	_ ContextStore = (*MemoryContextStore)(nil)
	_ MailboxStore = (*MemoryMailboxStore)(nil)
)
