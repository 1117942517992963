package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/google/uuid"
)

// Store implements ports.RecordStore and ports.ConversationReader in memory.
// Safe for concurrent use.
type Store struct {
	mu            sync.RWMutex
	records       map[string][]domain.Record // tenant -> records in creation order
	conversations map[string][]domain.Conversation
	newID         func() string
	now           func() time.Time
}

// Option configures the Store.
type Option func(*Store)

// WithIDGenerator replaces the uuid generator, mostly for deterministic tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		records:       make(map[string][]domain.Record),
		conversations: make(map[string][]domain.Conversation),
		newID:         uuid.NewString,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the tenant's records in creation order.
func (s *Store) List(ctx context.Context, tenant string) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.records[tenant]
	out := make([]domain.Record, len(src))
	for i, r := range src {
		out[i] = r.Clone()
	}
	return out, nil
}

// Create stores rec under a fresh id. A record with isFirst set demotes the previous first record.
func (s *Store) Create(ctx context.Context, tenant string, rec domain.Record) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec = rec.Clone()
	rec.ID = s.newID()
	rec.TenantID = tenant
	rec.UpdatedAt = s.now()
	if rec.IsFirst {
		s.demoteFirst(tenant)
	}
	s.records[tenant] = append(s.records[tenant], rec)
	return rec.Clone(), nil
}

// Update applies patch to record id.
func (s *Store) Update(ctx context.Context, tenant, id string, patch domain.RecordPatch) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(tenant, id)
	if i < 0 {
		return domain.Record{}, domain.ErrRecordNotFound
	}
	rec := patch.Apply(s.records[tenant][i])
	rec.UpdatedAt = s.now()
	s.records[tenant][i] = rec
	return rec.Clone(), nil
}

// Delete removes record id.
func (s *Store) Delete(ctx context.Context, tenant, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(tenant, id)
	if i < 0 {
		return domain.ErrRecordNotFound
	}
	list := s.records[tenant]
	s.records[tenant] = append(list[:i:i], list[i+1:]...)
	return nil
}

// AddConversation records a conversation for tenant.
func (s *Store) AddConversation(ctx context.Context, tenant string, c domain.Conversation) (domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = s.newID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.conversations[tenant] = append(s.conversations[tenant], c)
	return c, nil
}

// ListConversations returns the tenant's conversations, oldest first.
func (s *Store) ListConversations(ctx context.Context, tenant string) ([]domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Conversation(nil), s.conversations[tenant]...), nil
}

func (s *Store) index(tenant, id string) int {
	for i, r := range s.records[tenant] {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) demoteFirst(tenant string) {
	for i := range s.records[tenant] {
		s.records[tenant][i].IsFirst = false
	}
}
