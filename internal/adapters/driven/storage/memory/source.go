package memory

import (
	"context"
	"io"
	"sync"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
	"github.com/custodia-labs/pkgsearch/internal/core/ports/driven"
)

// Ensure RecordSource implements the interface.
var _ driven.RecordSource = (*RecordSource)(nil)

// RecordSource yields a fixed list of records, then ends with an
// optional error instead of io.EOF.
type RecordSource struct {
	mu      sync.Mutex
	name    string
	records []domain.RawRecord
	end     error
	pos     int
	closed  bool
}

// NewRecordSource creates a source over records. A nil end finishes
// the source with io.EOF.
func NewRecordSource(name string, records []domain.RawRecord, end error) *RecordSource {
	return &RecordSource{name: name, records: records, end: end}
}

// Name returns the source name.
func (s *RecordSource) Name() string {
	return s.name
}

// Next returns the next record.
func (s *RecordSource) Next(ctx context.Context) (domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos < len(s.records) {
		rec := s.records[s.pos]
		s.pos++
		return rec, nil
	}
	if s.end != nil {
		return domain.RawRecord{}, s.end
	}
	return domain.RawRecord{}, io.EOF
}

// Close marks the source closed.
func (s *RecordSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *RecordSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
