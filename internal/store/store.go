package store

import (
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/competitor-xray/backend/internal/logging"
	"github.com/competitor-xray/backend/internal/shared/id"
	"github.com/competitor-xray/backend/internal/xray"
)

// Observer receives store events. Satisfied by the monitoring package;
// nil-safe.
type Observer interface {
	SetTracesStored(n int)
	IncTracesIngested()
	IncIDCollisions()
}

// Store is the process-wide, append-only collection of completed traces.
// Create one at startup and inject it everywhere it is read or written.
type Store struct {
	mu       sync.RWMutex
	traces   []xray.Trace
	byID     map[string]int
	logger   *logging.Logger
	observer Observer
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithObserver wires a metrics observer.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// WithClock overrides the clock used for collision suffixes. Tests only.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty trace store.
func New(logger *logging.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Store{
		byID:   make(map[string]int),
		logger: logger.Named("store"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append inserts the trace, rewriting its ID with an upper-cased base36
// timestamp suffix when the ID is already taken. It never rejects and
// never overwrites. Returns the ID the trace was stored under.
func (s *Store) Append(trace *xray.Trace) string {
	s.mu.Lock()

	collided := false
	if _, exists := s.byID[trace.ID]; exists {
		rewritten := strings.ToUpper(trace.ID + "-" + id.Base36Millis(s.now()))
		s.logger.Info("duplicate trace ID, rewriting",
			zap.String("original_id", trace.ID),
			zap.String("new_id", rewritten),
		)
		trace.ID = rewritten
		collided = true
	}

	s.byID[trace.ID] = len(s.traces)
	s.traces = append(s.traces, *trace)
	total := len(s.traces)
	finalID := trace.ID

	s.mu.Unlock()

	if s.observer != nil {
		s.observer.IncTracesIngested()
		if collided {
			s.observer.IncIDCollisions()
		}
		s.observer.SetTracesStored(total)
	}
	s.logger.Info("trace saved",
		zap.String("trace_id", finalID),
		zap.String("status", string(trace.Status)),
		zap.Int("total_traces", total),
	)
	return finalID
}

// ListAll returns every stored trace in submission order. Callers wanting
// newest-first reverse the copy themselves.
func (s *Store) ListAll() []xray.Trace {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]xray.Trace, len(s.traces))
	copy(out, s.traces)
	return out
}

// FindByID returns the trace with the exact ID. Absence is a valid,
// non-error outcome.
func (s *Store) FindByID(traceID string) (xray.Trace, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Linear scan over submission order; the index map is an append-time
	// optimization and the scan keeps first-match semantics explicit.
	for _, t := range s.traces {
		if t.ID == traceID {
			return t, true
		}
	}
	return xray.Trace{}, false
}

// Len returns the number of stored traces.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.traces)
}
