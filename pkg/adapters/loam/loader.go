package loam

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/aretw0/flowcanvas/pkg/domain"
	"github.com/aretw0/flowcanvas/pkg/ports"
	"github.com/aretw0/loam"
)

// Question is one document of a flow directory. Record references other
// questions by document key, not by store id.
type Question struct {
	Key    string
	Record domain.Record
}

// Loader reads and writes flows kept as Markdown documents in a Loam repository.
type Loader struct {
	Repo   *loam.TypedRepository[QuestionMetadata]
	logger *slog.Logger
}

// Option configures the Loader.
type Option func(*Loader)

// WithLogger configures a logger for the Loader.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[QuestionMetadata], opts ...Option) *Loader {
	l := &Loader{
		Repo:   repo,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open initializes the repository at dir. Import only reads, so readOnly
// keeps Loam from touching the directory.
func Open(dir string, readOnly bool, opts ...Option) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithVersioning(false),
		loam.WithReadOnly(readOnly),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[QuestionMetadata](repo), opts...), nil
}

// Questions lists every question of the flow. The first question comes
// first; when no document is marked first, the one keyed "start" is.
func (l *Loader) Questions(ctx context.Context) ([]Question, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	out := make([]Question, 0, len(docs))
	first := -1
	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		key := trimExtension(rawID)
		if existingPath, ok := seen[key]; ok {
			return nil, fmt.Errorf("collision detected: key '%s' is defined in both '%s' and '%s'", key, existingPath, doc.ID)
		}
		seen[key] = doc.ID

		// List serves metadata from the index; the body needs a Get.
		content := doc.Content
		if content == "" {
			full, err := l.Repo.Get(ctx, doc.ID)
			if err != nil {
				return nil, fmt.Errorf("loam get failed for %s: %w", doc.ID, err)
			}
			content = full.Content
		}

		rec := recordFromMetadata(doc.Data, content)
		if rec.IsFirst {
			if first >= 0 {
				return nil, fmt.Errorf("%w: both '%s' and '%s' are marked first", domain.ErrValidation, out[first].Key, key)
			}
			first = len(out)
		}
		out = append(out, Question{Key: key, Record: rec})
	}

	if first < 0 {
		for i, q := range out {
			if q.Key == "start" {
				out[i].Record.IsFirst = true
				first = i
				break
			}
		}
	}
	if first > 0 {
		q := out[first]
		copy(out[1:first+1], out[:first])
		out[0] = q
	}
	return out, nil
}

// Records implements ports.RecordSource. Record ids are document keys.
func (l *Loader) Records(ctx context.Context) ([]domain.Record, error) {
	qs, err := l.Questions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Record, 0, len(qs))
	for _, q := range qs {
		rec := q.Record
		rec.ID = q.Key
		out = append(out, rec)
	}
	return out, nil
}

// ImportResult maps document keys to the ids assigned by the store.
type ImportResult struct {
	IDs     map[string]string
	Dropped int
}

// Import creates every question in store under tenant. Records are created
// first without routing, then patched once all ids are known. References to
// unknown documents are dropped.
func (l *Loader) Import(ctx context.Context, store ports.RecordStore, tenant string, qs []Question) (ImportResult, error) {
	res := ImportResult{IDs: make(map[string]string, len(qs))}

	for _, q := range qs {
		rec := q.Record.Clone()
		rec.NextQuestionID = ""
		rec.Options = nil
		created, err := store.Create(ctx, tenant, rec)
		if err != nil {
			return res, fmt.Errorf("failed to create %s: %w", q.Key, err)
		}
		res.IDs[q.Key] = created.ID
	}

	resolve := func(from, key string) (domain.Ref, bool) {
		if key == "" || key == domain.EndConversation {
			return domain.Ref(key), true
		}
		id, ok := res.IDs[key]
		if !ok {
			l.logger.Warn("dropping reference to unknown question", "from", from, "to", key)
			res.Dropped++
			return "", false
		}
		return domain.Ref(id), true
	}

	for _, q := range qs {
		var patch domain.RecordPatch
		switch {
		case len(q.Record.Options) > 0:
			opts := make([]domain.RecordOption, 0, len(q.Record.Options))
			for _, o := range q.Record.Options {
				o.NextQuestionID, _ = resolve(q.Key, o.NextQuestionID.String())
				opts = append(opts, o)
			}
			patch.Options = opts
		case q.Record.NextQuestionID != "":
			ref, ok := resolve(q.Key, q.Record.NextQuestionID.String())
			if !ok {
				continue
			}
			next := ref.String()
			patch.NextQuestionID = &next
		default:
			continue
		}
		if _, err := store.Update(ctx, tenant, res.IDs[q.Key], patch); err != nil {
			return res, fmt.Errorf("failed to link %s: %w", q.Key, err)
		}
	}

	l.logger.Info("flow imported", "tenant", tenant, "questions", len(qs), "dropped", res.Dropped)
	return res, nil
}

// Export writes records as documents keyed by record id.
func (l *Loader) Export(ctx context.Context, records []domain.Record) error {
	for _, rec := range records {
		doc := &loam.DocumentModel[QuestionMetadata]{
			ID:      rec.ID,
			Content: rec.Text,
			Data:    metadataFromRecord(rec),
		}
		if err := l.Repo.Save(ctx, doc); err != nil {
			return fmt.Errorf("loam save failed for %s: %w", rec.ID, err)
		}
	}
	return nil
}

func recordFromMetadata(meta QuestionMetadata, content string) domain.Record {
	rec := domain.Record{
		Type:    domain.RecordType(strings.TrimSpace(meta.Type)),
		Text:    strings.TrimSpace(content),
		IsFirst: meta.First,
		FlowID:  domain.DefaultFlowID,
	}
	if rec.Type == "" {
		rec.Type = domain.TypeMessage
	}
	if meta.Position != nil {
		rec.Position = &domain.Position{X: meta.Position.X, Y: meta.Position.Y}
	}

	if domain.RoutingModeFor(rec.Type) == domain.RoutingOptions {
		for _, o := range meta.Options {
			action := domain.ActionType(o.Action)
			if action == "" {
				action = domain.ActionNextQuestion
			}
			rec.Options = append(rec.Options, domain.RecordOption{
				Label:          o.Text,
				ActionType:     action,
				NextQuestionID: domain.Ref(trimExtension(o.To)),
				ActionValue:    o.Value,
				ButtonStyle:    domain.DefaultButtonStyle(),
			})
		}
	} else if meta.Next != "" {
		rec.NextQuestionID = domain.Ref(trimExtension(meta.Next))
	}

	switch rec.Type {
	case domain.TypeDataCollection:
		dc := domain.DefaultDataCollection()
		dc.IsRequired = meta.Required
		if meta.DataType != "" {
			dc.DataType = meta.DataType
		}
		dc.Placeholder = meta.Placeholder
		dc.Validation.MinLength = meta.MinLength
		if meta.MaxLength > 0 {
			dc.Validation.MaxLength = meta.MaxLength
		}
		dc.Validation.ErrorMessage = meta.ErrorMessage
		rec.DataCollection = &dc
	case domain.TypeMessage:
		rec.MessageSettings = &domain.MessageSettings{
			AutoAdvance:         meta.AutoAdvance,
			Delay:               meta.Delay,
			ShowTypingIndicator: meta.Typing,
		}
	}
	return rec
}

func metadataFromRecord(rec domain.Record) QuestionMetadata {
	meta := QuestionMetadata{
		ID:      rec.ID,
		Type:    string(rec.Type),
		First:   rec.IsFirst,
		Next:    rec.NextQuestionID.String(),
		Options: make([]OptionMetadata, 0, len(rec.Options)),
	}
	if rec.Position != nil {
		meta.Position = &PositionMetadata{X: rec.Position.X, Y: rec.Position.Y}
	}
	for _, o := range rec.Options {
		action := string(o.ActionType)
		if o.ActionType == domain.ActionNextQuestion {
			action = ""
		}
		meta.Options = append(meta.Options, OptionMetadata{
			Text:   o.Label,
			To:     o.NextQuestionID.String(),
			Action: action,
			Value:  o.ActionValue,
		})
	}
	if dc := rec.DataCollection; dc != nil && rec.Type == domain.TypeDataCollection {
		meta.Required = dc.IsRequired
		meta.DataType = dc.DataType
		meta.Placeholder = dc.Placeholder
		meta.MinLength = dc.Validation.MinLength
		meta.MaxLength = dc.Validation.MaxLength
		meta.ErrorMessage = dc.Validation.ErrorMessage
	}
	if ms := rec.MessageSettings; ms != nil && rec.Type == domain.TypeMessage {
		meta.AutoAdvance = ms.AutoAdvance
		meta.Delay = ms.Delay
		meta.Typing = ms.ShowTypingIndicator
	}
	return meta
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
