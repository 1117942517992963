package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "flowcanvas:"

// maxTxRetries bounds optimistic transaction retries on concurrent writes.
const maxTxRetries = 5

// Store implements ports.RecordStore and ports.ConversationReader using Redis.
//
// Per tenant it keeps a hash of JSON records keyed by id, a sorted set
// ordering ids by creation sequence, and a list of conversations.
type Store struct {
	client *backend.Client
	prefix string
	now    func() time.Time
}

type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client, e.g. to share it with a Locker.
func (s *Store) Client() *backend.Client {
	return s.client
}

func (s *Store) recordsKey(tenant string) string { return s.prefix + tenant + ":records" }
func (s *Store) orderKey(tenant string) string   { return s.prefix + tenant + ":order" }
func (s *Store) seqKey(tenant string) string     { return s.prefix + tenant + ":seq" }
func (s *Store) convKey(tenant string) string    { return s.prefix + tenant + ":conversations" }

// List returns the tenant's records in creation order.
func (s *Store) List(ctx context.Context, tenant string) ([]domain.Record, error) {
	ids, err := s.client.ZRange(ctx, s.orderKey(tenant), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read order from redis: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Record{}, nil
	}
	vals, err := s.client.HMGet(ctx, s.recordsKey(tenant), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read records from redis: %w", err)
	}
	out := make([]domain.Record, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// index entry without a record, left by an interrupted delete
			continue
		}
		var rec domain.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record %s: %w", ids[i], err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Create stores rec under a fresh id. A record with isFirst set demotes the
// previous first record in the same transaction.
func (s *Store) Create(ctx context.Context, tenant string, rec domain.Record) (domain.Record, error) {
	rec = rec.Clone()
	rec.ID = uuid.NewString()
	rec.TenantID = tenant
	rec.UpdatedAt = s.now()
	data, err := json.Marshal(rec)
	if err != nil {
		return domain.Record{}, fmt.Errorf("failed to marshal record: %w", err)
	}

	seq, err := s.client.Incr(ctx, s.seqKey(tenant)).Result()
	if err != nil {
		return domain.Record{}, fmt.Errorf("failed to allocate sequence: %w", err)
	}

	key := s.recordsKey(tenant)
	txf := func(tx *backend.Tx) error {
		var demoted map[string]any
		if rec.IsFirst {
			if demoted, err = s.demotions(ctx, tx, key); err != nil {
				return err
			}
		}
		_, err := tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			if len(demoted) > 0 {
				pipe.HSet(ctx, key, demoted)
			}
			pipe.HSet(ctx, key, rec.ID, data)
			pipe.ZAdd(ctx, s.orderKey(tenant), backend.Z{Score: float64(seq), Member: rec.ID})
			return nil
		})
		return err
	}
	if err := s.watch(ctx, txf, key); err != nil {
		return domain.Record{}, fmt.Errorf("failed to save to redis: %w", err)
	}
	return rec, nil
}

// Update applies patch to record id.
func (s *Store) Update(ctx context.Context, tenant, id string, patch domain.RecordPatch) (domain.Record, error) {
	key := s.recordsKey(tenant)
	var out domain.Record
	txf := func(tx *backend.Tx) error {
		raw, err := tx.HGet(ctx, key, id).Result()
		if errors.Is(err, backend.Nil) {
			return domain.ErrRecordNotFound
		}
		if err != nil {
			return err
		}
		var rec domain.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return fmt.Errorf("failed to unmarshal record: %w", err)
		}
		out = patch.Apply(rec)
		out.UpdatedAt = s.now()
		data, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.HSet(ctx, key, id, data)
			return nil
		})
		return err
	}
	if err := s.watch(ctx, txf, key); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.Record{}, err
		}
		return domain.Record{}, fmt.Errorf("failed to update in redis: %w", err)
	}
	return out, nil
}

// Delete removes record id.
func (s *Store) Delete(ctx context.Context, tenant, id string) error {
	pipe := s.client.TxPipeline()
	removed := pipe.HDel(ctx, s.recordsKey(tenant), id)
	pipe.ZRem(ctx, s.orderKey(tenant), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	if removed.Val() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// AddConversation appends a conversation for tenant.
func (s *Store) AddConversation(ctx context.Context, tenant string, c domain.Conversation) (domain.Conversation, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	data, err := json.Marshal(c)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("failed to marshal conversation: %w", err)
	}
	if err := s.client.RPush(ctx, s.convKey(tenant), data).Err(); err != nil {
		return domain.Conversation{}, fmt.Errorf("failed to save conversation: %w", err)
	}
	return c, nil
}

// ListConversations returns the tenant's conversations, oldest first.
func (s *Store) ListConversations(ctx context.Context, tenant string) ([]domain.Conversation, error) {
	vals, err := s.client.LRange(ctx, s.convKey(tenant), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read conversations: %w", err)
	}
	out := make([]domain.Conversation, 0, len(vals))
	for _, v := range vals {
		var c domain.Conversation
		if err := json.Unmarshal([]byte(v), &c); err != nil {
			return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

// demotions returns the re-encoded records that currently hold isFirst, with
// the flag cleared.
func (s *Store) demotions(ctx context.Context, tx *backend.Tx, key string) (map[string]any, error) {
	all, err := tx.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	for id, raw := range all {
		var rec domain.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record %s: %w", id, err)
		}
		if !rec.IsFirst {
			continue
		}
		rec.IsFirst = false
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		out[id] = data
	}
	return out, nil
}

func (s *Store) watch(ctx context.Context, fn func(*backend.Tx) error, keys ...string) error {
	var err error
	for i := 0; i < maxTxRetries; i++ {
		err = s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, backend.TxFailedErr) {
			return err
		}
	}
	return err
}
