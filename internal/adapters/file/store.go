package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/google/uuid"
)

// DefaultPath is used when the configured path is empty.
var DefaultPath = filepath.Join(".flowcanvas", "flows")

// document is the on-disk shape of one tenant.
type document struct {
	Questions     []domain.Record       `json:"questions"`
	Conversations []domain.Conversation `json:"conversations,omitempty"`
}

// Store implements ports.RecordStore and ports.ConversationReader on the
// local filesystem. Each tenant is one JSON file, rewritten atomically on
// every change. Safe for concurrent use within a process.
type Store struct {
	BasePath string

	mu  sync.Mutex
	now func() time.Time
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to DefaultPath.
func New(basePath string) *Store {
	if basePath == "" {
		basePath = DefaultPath
	}
	return &Store{BasePath: basePath, now: time.Now}
}

// List returns the tenant's records in creation order. A tenant without a
// file has no records.
func (s *Store) List(ctx context.Context, tenant string) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read(tenant)
	if err != nil {
		return nil, err
	}
	if doc.Questions == nil {
		return []domain.Record{}, nil
	}
	return doc.Questions, nil
}

// Create stores rec under a fresh id. A record with isFirst set demotes the previous first record.
func (s *Store) Create(ctx context.Context, tenant string, rec domain.Record) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read(tenant)
	if err != nil {
		return domain.Record{}, err
	}
	rec = rec.Clone()
	rec.ID = uuid.NewString()
	rec.TenantID = tenant
	rec.UpdatedAt = s.now()
	if rec.IsFirst {
		for i := range doc.Questions {
			doc.Questions[i].IsFirst = false
		}
	}
	doc.Questions = append(doc.Questions, rec)
	if err := s.write(tenant, doc); err != nil {
		return domain.Record{}, err
	}
	return rec, nil
}

// Update applies patch to record id.
func (s *Store) Update(ctx context.Context, tenant, id string, patch domain.RecordPatch) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read(tenant)
	if err != nil {
		return domain.Record{}, err
	}
	i := indexOf(doc.Questions, id)
	if i < 0 {
		return domain.Record{}, domain.ErrRecordNotFound
	}
	rec := patch.Apply(doc.Questions[i])
	rec.UpdatedAt = s.now()
	doc.Questions[i] = rec
	if err := s.write(tenant, doc); err != nil {
		return domain.Record{}, err
	}
	return rec, nil
}

// Delete removes record id.
func (s *Store) Delete(ctx context.Context, tenant, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read(tenant)
	if err != nil {
		return err
	}
	i := indexOf(doc.Questions, id)
	if i < 0 {
		return domain.ErrRecordNotFound
	}
	doc.Questions = append(doc.Questions[:i], doc.Questions[i+1:]...)
	return s.write(tenant, doc)
}

// AddConversation appends a conversation to the tenant file.
func (s *Store) AddConversation(ctx context.Context, tenant string, c domain.Conversation) (domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read(tenant)
	if err != nil {
		return domain.Conversation{}, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	doc.Conversations = append(doc.Conversations, c)
	if err := s.write(tenant, doc); err != nil {
		return domain.Conversation{}, err
	}
	return c, nil
}

// ListConversations returns the tenant's conversations, oldest first.
func (s *Store) ListConversations(ctx context.Context, tenant string) ([]domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.read(tenant)
	if err != nil {
		return nil, err
	}
	return doc.Conversations, nil
}

// Path returns the file backing tenant.
func (s *Store) Path(tenant string) (string, error) {
	if tenant == "" || tenant == "." || tenant == ".." || strings.ContainsAny(tenant, `/\`) {
		return "", fmt.Errorf("%w: invalid tenant %q", domain.ErrMissingContext, tenant)
	}
	return filepath.Join(s.BasePath, tenant+".json"), nil
}

func (s *Store) read(tenant string) (document, error) {
	path, err := s.Path(tenant)
	if err != nil {
		return document{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return document{}, nil
		}
		return document{}, fmt.Errorf("failed to read flow file: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("failed to unmarshal flow file: %w", err)
	}
	return doc, nil
}

// write persists doc to a temp file in the same directory, syncs it and
// renames it over the destination.
func (s *Store) write(tenant string, doc document) error {
	destPath, err := s.Path(tenant)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure flow directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+tenant+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

func indexOf(records []domain.Record, id string) int {
	for i, r := range records {
		if r.ID == id {
			return i
		}
	}
	return -1
}
