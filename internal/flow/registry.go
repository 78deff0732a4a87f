package flow

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Registry defaults.
const (
	DefaultCapacity = 10000
	DefaultTTL      = 30 * time.Minute
)

// Metrics counts submissions and conversions. A nil *Metrics records nothing.
type Metrics struct {
	submissions *prometheus.CounterVec
	conversions *prometheus.CounterVec
}

// NewMetrics registers flow counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		submissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "listing_signal",
			Subsystem: "lead",
			Name:      "submissions_total",
			Help:      "Lead submissions by relay outcome.",
		}, []string{"outcome"}),
		conversions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "listing_signal",
			Subsystem: "lead",
			Name:      "conversions_total",
			Help:      "Completed lead flows by SMS outcome.",
		}, []string{"sms"}),
	}
}

// Submission counts one relay attempt with the given outcome label.
func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) conversion(o Outcome) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(string(o)).Inc()
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithCapacity sets the maximum number of tracked flows.
func WithCapacity(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.capacity = n
		}
	}
}

// WithTTL sets how long a flow is kept after it starts. Reads do not extend it.
func WithTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithMetrics records submission and conversion counters.
func WithMetrics(m *Metrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithFlowOptions applies opts to every flow the registry creates.
func WithFlowOptions(opts ...Option) RegistryOption {
	return func(r *Registry) {
		r.flowOpts = append(r.flowOpts, opts...)
	}
}

// Registry keeps in-memory flows keyed by submission ID. Flows expire after
// the TTL and the least recently used are evicted at capacity.
type Registry struct {
	flows    *expirable.LRU[string, *Flow]
	capacity int
	ttl      time.Duration
	metrics  *Metrics
	flowOpts []Option
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{capacity: DefaultCapacity, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(r)
	}
	r.flows = expirable.NewLRU[string, *Flow](r.capacity, nil, r.ttl)
	return r
}

// Start creates a flow for a new submission, moves it to loading and
// returns its ID.
func (r *Registry) Start(phone string) (string, *Flow) {
	id := uuid.NewString()
	opts := append([]Option{}, r.flowOpts...)
	opts = append(opts, OnComplete(func(o Outcome) {
		r.metrics.conversion(o)
		zap.L().Info("flow: lead conversion",
			zap.String("submission_id", id),
			zap.String("event", "Lead"),
			zap.String("sms", string(o)),
		)
	}))
	f := New(opts...)
	// A fresh flow is always at the form stage.
	_ = f.Begin(phone)
	r.flows.Add(id, f)
	return id, f
}

// Get returns the flow for id.
func (r *Registry) Get(id string) (*Flow, bool) {
	return r.flows.Get(id)
}

// Remove drops the flow for id.
func (r *Registry) Remove(id string) {
	r.flows.Remove(id)
}

// Len returns the number of tracked flows.
func (r *Registry) Len() int {
	return r.flows.Len()
}

// Metrics returns the registry's metrics, possibly nil.
func (r *Registry) Metrics() *Metrics {
	return r.metrics
}
