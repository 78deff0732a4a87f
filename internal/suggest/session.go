// Package suggest drives an address autocomplete session: debounced lookups,
// a per-session query cache, and cancellation of superseded requests so only
// the latest query's response reaches the visible state.
package suggest

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/romdo/go-debounce"
	"go.uber.org/zap"

	"github.com/listing-signal/signal-web/internal/address"
)

// MinQueryLength is the shortest query that opens the suggestion list.
const MinQueryLength = 3

// DefaultDebounce is the quiet period before a free-text lookup fires.
const DefaultDebounce = 150 * time.Millisecond

// Lookup resolves a free-text query into suggestions.
type Lookup interface {
	Search(ctx context.Context, query string) ([]address.Suggestion, error)
}

// State is the visible state of the suggestion list.
type State struct {
	Query       string
	Suggestions []address.Suggestion
	Loading     bool
	Open        bool
}

// NoMatches reports whether the list should show the "no matches" hint.
func (s State) NoMatches() bool {
	return s.Open && !s.Loading && len(s.Suggestions) == 0 &&
		utf8.RuneCountInString(s.Query) >= MinQueryLength
}

// Option configures a Session.
type Option func(*Session)

// WithDebounce sets the quiet period before a lookup fires.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.wait = d
		}
	}
}

// WithMaxWait bounds how long continuous typing can postpone a lookup.
// Zero, the default, disables the bound so lookups fire only after a pause.
func WithMaxWait(d time.Duration) Option {
	return func(s *Session) {
		s.maxWait = max(d, 0)
	}
}

// WithSelect registers the callback that receives chosen suggestions.
func WithSelect(fn func(address.Suggestion)) Option {
	return func(s *Session) {
		s.onSelect = fn
	}
}

type request struct {
	query  string
	cancel context.CancelFunc
}

// Session is one autocomplete widget's lifetime. onState is called with the
// session locked and must not call back into the Session.
type Session struct {
	lookup   Lookup
	onState  func(State)
	onSelect func(address.Suggestion)
	wait     time.Duration
	maxWait  time.Duration

	ctx          context.Context
	cancelAll    context.CancelFunc
	debounced    func()
	stopDebounce func()

	mu         sync.Mutex
	state      State
	pending    string
	cache      map[string][]address.Suggestion
	active     *request
	structured bool
	closed     bool
}

// New creates a Session backed by lookup.
func New(lookup Lookup, onState func(State), opts ...Option) *Session {
	s := &Session{
		lookup:  lookup,
		onState: onState,
		wait:    DefaultDebounce,
		cache:   make(map[string][]address.Suggestion),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.onState == nil {
		s.onState = func(State) {}
	}
	s.ctx, s.cancelAll = context.WithCancel(context.Background())
	if s.maxWait > 0 {
		s.debounced, s.stopDebounce = debounce.NewWithMaxWait(s.wait, s.maxWait, s.fire)
	} else {
		s.debounced, s.stopDebounce = debounce.New(s.wait, s.fire)
	}
	return s
}

// Update records the latest input text and schedules a lookup when needed.
func (s *Session) Update(query string) {
	if s.schedule(query) {
		s.debounced()
	}
}

// schedule applies query to the state and reports whether a debounced
// lookup is needed. The debouncer is triggered outside the lock.
func (s *Session) schedule(query string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.state.Query = query
	if s.structured {
		return false
	}

	if utf8.RuneCountInString(query) < MinQueryLength {
		s.pending = ""
		s.cancelActive()
		s.state.Suggestions = nil
		s.state.Open = false
		s.state.Loading = false
		s.publish()
		return false
	}

	s.state.Open = true
	if cached, ok := s.cache[query]; ok {
		s.pending = ""
		s.cancelActive()
		s.state.Suggestions = cached
		s.state.Loading = false
		s.publish()
		return false
	}

	s.pending = query
	s.publish()
	return true
}

// fire runs once the input has been quiet for the debounce period.
func (s *Session) fire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.pending
	s.pending = ""
	if q == "" || s.structured || s.closed {
		return
	}

	if cached, ok := s.cache[q]; ok {
		s.cancelActive()
		s.state.Suggestions = cached
		s.state.Loading = false
		s.publish()
		return
	}

	s.cancelActive()
	ctx, cancel := context.WithCancel(s.ctx)
	req := &request{query: q, cancel: cancel}
	s.active = req
	s.state.Loading = true
	s.publish()

	go s.run(ctx, req)
}

func (s *Session) run(ctx context.Context, req *request) {
	results, err := s.lookup.Search(ctx, req.query)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		s.cache[req.query] = results
	}
	if s.active != req {
		return
	}
	s.active = nil
	req.cancel()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		zap.L().Warn("suggest: address lookup failed",
			zap.String("query", req.query),
			zap.Error(err),
		)
		s.state.Suggestions = nil
	} else {
		s.state.Suggestions = results
	}
	s.state.Loading = false
	s.publish()
}

// Select hands a chosen suggestion to the select callback and closes the list.
func (s *Session) Select(sg address.Suggestion) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.onSelect != nil {
		s.onSelect(sg)
	}
	s.state.Suggestions = nil
	s.state.Open = false
	s.publish()
}

// SetStructured switches between the structured places path and the
// free-text path. While structured, text lookups are disabled and any pending
// or in-flight work is dropped.
func (s *Session) SetStructured(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.structured = ready
	if !ready {
		return
	}
	s.pending = ""
	s.cancelActive()
	s.state.Suggestions = nil
	s.state.Open = false
	s.state.Loading = false
	s.publish()
}

// Resolve takes a structured place result directly, bypassing the debounce
// path. Places without a formatted address are ignored.
func (s *Session) Resolve(place *address.Place) (address.Suggestion, bool) {
	if place == nil || place.FormattedAddress == "" {
		return address.Suggestion{}, false
	}
	sg := address.FromPlace(place)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.onSelect != nil {
		s.onSelect(*sg)
	}
	return *sg, true
}

// Focus reopens the list when it still has suggestions for the current query.
func (s *Session) Focus() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.structured || utf8.RuneCountInString(s.state.Query) < MinQueryLength || len(s.state.Suggestions) == 0 {
		return
	}
	s.state.Open = true
	s.publish()
}

// State returns a snapshot of the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Idle reports whether no lookup is waiting on the debounce or in flight.
func (s *Session) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending == "" && s.active == nil
}

// Close stops the debouncer and cancels any in-flight lookup.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.pending = ""
	s.active = nil
	s.cancelAll()
	s.mu.Unlock()

	s.stopDebounce()
}

func (s *Session) cancelActive() {
	if s.active != nil {
		s.active.cancel()
		s.active = nil
	}
}

func (s *Session) publish() {
	s.onState(s.state)
}
