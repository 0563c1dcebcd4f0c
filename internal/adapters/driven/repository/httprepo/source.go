package httprepo

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
	"github.com/custodia-labs/pkgsearch/internal/core/ports/driven"
)

// Ensure source implements the interface.
var _ driven.RecordSource = (*source)(nil)

// maxLineSize bounds one response line.
const maxLineSize = 1 << 20

// wireRecord is one line of a search response.
type wireRecord struct {
	Query  int      `json:"query"`
	Return string   `json:"return"`
	Fields []string `json:"fields"`
}

// item is a record or the error that ended the stream.
type item struct {
	rec domain.RawRecord
	err error
}

// source is the record stream of one repository.
type source struct {
	repo   domain.Repository
	ctx    context.Context
	cancel context.CancelFunc
	items  chan item

	mu   sync.Mutex
	done bool
}

func newSource(parent context.Context, repo domain.Repository, buffer int) *source {
	ctx, cancel := context.WithCancel(parent)
	return &source{
		repo:   repo,
		ctx:    ctx,
		cancel: cancel,
		items:  make(chan item, buffer),
	}
}

// Name returns the repository origin.
func (s *source) Name() string {
	return s.repo.Origin
}

// Next returns the next record from the repository.
func (s *source) Next(ctx context.Context) (domain.RawRecord, error) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done {
		return domain.RawRecord{}, io.EOF
	}

	select {
	case <-ctx.Done():
		return domain.RawRecord{}, ctx.Err()
	case it, ok := <-s.items:
		if !ok {
			s.finish()
			return domain.RawRecord{}, io.EOF
		}
		if it.err != nil {
			s.finish()
			return domain.RawRecord{}, it.err
		}
		return it.rec, nil
	}
}

// Close stops the query and releases the connection.
func (s *source) Close() error {
	s.finish()
	s.cancel()
	return nil
}

func (s *source) finish() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
}

// send queues one item, giving up when the source is closed.
func (s *source) send(it item) bool {
	select {
	case s.items <- it:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *source) fail(err error) {
	s.send(item{err: err})
}

func (s *source) serverError(err error) *domain.ServerError {
	return &domain.ServerError{Publisher: s.repo.Publisher, Origin: s.repo.Origin, Err: err}
}

// decode streams newline-delimited records from r. Lines that do not
// decode become records that classify as malformed.
func (s *source) decode(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	n := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !s.send(item{rec: s.record(line)}) {
			return n, s.ctx.Err()
		}
		n++
	}
	return n, scanner.Err()
}

func (s *source) record(line string) domain.RawRecord {
	var w wireRecord
	if err := json.Unmarshal([]byte(line), &w); err != nil {
		return domain.RawRecord{Publisher: s.repo.Publisher, ReturnType: domain.ReturnUnknown, Fields: []string{line}}
	}
	rt, ok := domain.ParseReturnType(w.Return)
	if !ok {
		rt = domain.ReturnUnknown
	}
	return domain.RawRecord{
		Query:      w.Query,
		Publisher:  s.repo.Publisher,
		ReturnType: rt,
		Fields:     w.Fields,
	}
}
