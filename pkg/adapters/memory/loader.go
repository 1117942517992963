package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/flowcanvas/pkg/domain"
)

// Source implements ports.RecordSource over a fixed record set.
type Source struct {
	records []domain.Record
}

// NewSource creates a source from domain objects.
func NewSource(records ...domain.Record) *Source {
	s := &Source{}
	for _, r := range records {
		s.records = append(s.records, r.Clone())
	}
	return s
}

// NewSourceFromJSON parses a JSON array of records, as returned by the
// question API.
func NewSourceFromJSON(data []byte) (*Source, error) {
	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse records: %w", err)
	}
	for i, r := range records {
		if r.ID == "" {
			return nil, fmt.Errorf("record %d has no _id", i)
		}
	}
	return &Source{records: records}, nil
}

// Records returns copies of the records.
func (s *Source) Records(ctx context.Context) ([]domain.Record, error) {
	out := make([]domain.Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out, nil
}
