package errstore

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/MineAdmin/internal/client/api"
)

const (
	// DefaultAutoRemoveDelay is how long a transient entry stays visible.
	DefaultAutoRemoveDelay = 5 * time.Second

	notFoundDelay  = 3 * time.Second
	rateLimitDelay = 5 * time.Second

	// RateLimitMessage replaces the backend text of 429 responses.
	RateLimitMessage = "Too many requests. Please wait a moment and try again."
)

// Entry is one buffered failure.
type Entry struct {
	ID         string
	Kind       Kind
	Message    string
	Err        error
	Context    string
	Persistent bool
	CreatedAt  time.Time
	// ExpiresAt is zero for entries that stay until dismissed.
	ExpiresAt time.Time
}

// AddOptions tunes a single AddError call.
type AddOptions struct {
	// Context tags the entry with the screen or operation that failed.
	Context string
	// Persistent entries are never auto-removed and are hidden from the
	// unfiltered view.
	Persistent bool
	// DisableAutoRemove keeps a non-persistent entry until dismissed.
	DisableAutoRemove bool
	// AutoRemoveDelay overrides the store default.
	AutoRemoveDelay time.Duration
	// Message overrides the friendly message.
	Message string
}

// Store buffers classified failures. It is safe for concurrent use.
type Store struct {
	log   *zap.Logger
	delay time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries []Entry
	timers  map[string]*time.Timer
	subs    map[int]func([]Entry)
	nextSub int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger every added entry is reported to.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithDefaultDelay sets the auto-removal delay used when AddOptions has none.
func WithDefaultDelay(d time.Duration) Option {
	return func(s *Store) { s.delay = d }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		log:    zap.NewNop(),
		delay:  DefaultAutoRemoveDelay,
		now:    time.Now,
		timers: make(map[string]*time.Timer),
		subs:   make(map[int]func([]Entry)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddError classifies err, buffers it and returns the entry ID. A nil err is
// ignored and yields an empty ID.
func (s *Store) AddError(err error, opts AddOptions) string {
	if err == nil {
		return ""
	}

	kind := Classify(err)
	e := Entry{
		ID:         uuid.NewString(),
		Kind:       kind,
		Message:    opts.Message,
		Err:        err,
		Context:    opts.Context,
		Persistent: opts.Persistent,
		CreatedAt:  s.now(),
	}
	if e.Message == "" {
		e.Message = FriendlyMessage(kind, err)
	}

	s.mu.Lock()
	if !opts.Persistent && !opts.DisableAutoRemove {
		delay := opts.AutoRemoveDelay
		if delay <= 0 {
			delay = s.delay
		}
		e.ExpiresAt = e.CreatedAt.Add(delay)
		id := e.ID
		s.timers[id] = time.AfterFunc(delay, func() { s.RemoveError(id) })
	}
	s.entries = append(s.entries, e)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	fields := []zap.Field{
		zap.String("id", e.ID),
		zap.String("kind", string(kind)),
		zap.String("context", e.Context),
		zap.Bool("persistent", e.Persistent),
		zap.Error(err),
	}
	if kind == KindServer || kind == KindNetwork {
		s.log.Warn("error recorded", fields...)
	} else {
		s.log.Debug("error recorded", fields...)
	}

	s.notify(snapshot)
	return e.ID
}

// RemoveError drops the entry with the given ID. Unknown IDs are ignored,
// which makes late auto-removal timers harmless.
func (s *Store) RemoveError(id string) {
	s.removeWhere(func(e Entry) bool { return e.ID == id })
}

// ClearAll drops every entry.
func (s *Store) ClearAll() {
	s.removeWhere(func(Entry) bool { return true })
}

// ClearByType drops every entry of the given kind.
func (s *Store) ClearByType(kind Kind) {
	s.removeWhere(func(e Entry) bool { return e.Kind == kind })
}

// ClearByContext drops every entry tagged with tag.
func (s *Store) ClearByContext(tag string) {
	s.removeWhere(func(e Entry) bool { return e.Context == tag })
}

func (s *Store) removeWhere(match func(Entry) bool) {
	s.mu.Lock()
	kept := s.entries[:0]
	removed := 0
	for _, e := range s.entries {
		if match(e) {
			if t, ok := s.timers[e.ID]; ok {
				t.Stop()
				delete(s.timers, e.ID)
			}
			removed++
			continue
		}
		kept = append(kept, e)
	}
	// clear the tail so dropped errors can be collected
	for i := len(kept); i < len(s.entries); i++ {
		s.entries[i] = Entry{}
	}
	s.entries = kept
	if removed == 0 {
		s.mu.Unlock()
		return
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

// Errors returns every buffered entry, oldest first.
func (s *Store) Errors() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Visible returns the entries a banner filtered by tag should show. An
// empty tag selects every non-persistent entry.
func (s *Store) Visible(tag string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Entry
	for _, e := range s.entries {
		if (tag == "" && !e.Persistent) || (tag != "" && e.Context == tag) {
			out = append(out, e)
		}
	}
	return out
}

// Subscribe registers fn to receive the buffer after every change. The
// returned function unregisters it.
func (s *Store) Subscribe(fn func([]Entry)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) snapshotLocked() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) notify(entries []Entry) {
	s.mu.Lock()
	subs := make([]func([]Entry), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(entries)
	}
}

// HandleAPIError records err under tag, applying the display policy for
// well-known HTTP statuses on top of opts.
func (s *Store) HandleAPIError(err error, tag string, opts AddOptions) string {
	if err == nil {
		return ""
	}
	if tag != "" {
		opts.Context = tag
	}

	switch status := api.StatusOf(err); {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		opts.Persistent = true
	case status == http.StatusNotFound:
		if opts.AutoRemoveDelay == 0 {
			opts.AutoRemoveDelay = notFoundDelay
		}
	case status == http.StatusTooManyRequests:
		opts.Message = RateLimitMessage
		opts.AutoRemoveDelay = rateLimitDelay
	case status >= http.StatusInternalServerError:
		opts.Persistent = true
	}
	return s.AddError(err, opts)
}

// WithErrorHandling runs fn after clearing the errors previously recorded
// under errContext. A failure is recorded through HandleAPIError and then
// returned unchanged.
func WithErrorHandling[T any](ctx context.Context, s *Store, errContext string, fn func(context.Context) (T, error)) (T, error) {
	s.ClearByContext(errContext)
	v, err := fn(ctx)
	if err != nil {
		s.HandleAPIError(err, errContext, AddOptions{})
		return v, err
	}
	return v, nil
}
