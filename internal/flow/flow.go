// Package flow tracks a lead submission from the form through the loading
// screen, the SMS opt-in offer and completion.
package flow

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/listing-signal/signal-web/internal/address"
)

// Stage is a step of the submission flow.
type Stage string

// Flow stages, in order.
const (
	StageForm      Stage = "form"
	StageLoading   Stage = "loading"
	StageSMS       Stage = "sms"
	StageCompleted Stage = "completed"
)

// SMSDelay is how long the loading screen shows before the SMS offer.
const SMSDelay = 3200 * time.Millisecond

// Messages shown for a rejected SMS opt-in.
const (
	ConsentMessage = "Please consent to receive SMS updates."
	PhoneMessage   = "Enter a valid phone number to receive texts."
)

// Errors returned by stage transitions.
var (
	ErrConsentRequired = eris.New("flow: sms consent required")
	ErrInvalidPhone    = eris.New("flow: invalid sms phone")
	ErrWrongStage      = eris.New("flow: transition not allowed in current stage")
)

// Outcome records how a completed flow handled the SMS offer.
type Outcome string

// Completion outcomes.
const (
	OutcomeOptedIn Outcome = "opted_in"
	OutcomeSkipped Outcome = "skipped"
)

// Snapshot is a point-in-time view of a Flow.
type Snapshot struct {
	Stage    Stage         `json:"stage"`
	SMSPhone string        `json:"smsPhone,omitempty"`
	SMSIn    time.Duration `json:"-"`
	Outcome  Outcome       `json:"outcome,omitempty"`
}

// Option configures a Flow.
type Option func(*Flow)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) {
		if now != nil {
			f.now = now
		}
	}
}

// WithSMSDelay overrides SMSDelay.
func WithSMSDelay(d time.Duration) Option {
	return func(f *Flow) {
		if d >= 0 {
			f.delay = d
		}
	}
}

// OnComplete registers a callback run when the flow reaches completed.
func OnComplete(fn func(Outcome)) Option {
	return func(f *Flow) {
		f.onComplete = fn
	}
}

// Flow is one visitor's submission state. The switch from loading to sms is
// computed lazily from the clock.
type Flow struct {
	mu         sync.Mutex
	now        func() time.Time
	delay      time.Duration
	onComplete func(Outcome)

	stage       Stage
	submittedAt time.Time
	smsPhone    string
	outcome     Outcome
}

// New returns a Flow at the form stage.
func New(opts ...Option) *Flow {
	f := &Flow{now: time.Now, delay: SMSDelay, stage: StageForm}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Begin moves from form to loading and pre-fills the SMS phone.
func (f *Flow) Begin(phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stage != StageForm {
		return eris.Wrapf(ErrWrongStage, "begin from %s", f.stage)
	}
	f.stage = StageLoading
	f.smsPhone = address.FormatPhone(phone)
	f.submittedAt = time.Time{}
	f.outcome = ""
	return nil
}

// Submitted records that the lead was delivered. The SMS offer appears once
// SMSDelay has passed.
func (f *Flow) Submitted() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stage == StageLoading {
		f.submittedAt = f.now()
	}
}

// Fail returns a loading flow to the form.
func (f *Flow) Fail() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stage == StageLoading {
		f.stage = StageForm
		f.submittedAt = time.Time{}
	}
}

// OptIn accepts the SMS offer. Consent is checked before the phone number.
func (f *Flow) OptIn(phone string, consent bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.advance() != StageSMS {
		return eris.Wrapf(ErrWrongStage, "sms opt-in from %s", f.stage)
	}
	formatted := address.FormatPhone(phone)
	f.smsPhone = formatted
	if !consent {
		return ErrConsentRequired
	}
	if formatted == "" || len(address.Digits(formatted)) < 10 {
		return ErrInvalidPhone
	}
	f.complete(OutcomeOptedIn)
	return nil
}

// Skip declines the SMS offer.
func (f *Flow) Skip() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.advance() != StageSMS {
		return eris.Wrapf(ErrWrongStage, "skip from %s", f.stage)
	}
	f.complete(OutcomeSkipped)
	return nil
}

// Finish resets a completed flow back to an empty form.
func (f *Flow) Finish() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.stage != StageCompleted {
		return eris.Wrapf(ErrWrongStage, "finish from %s", f.stage)
	}
	f.stage = StageForm
	f.smsPhone = ""
	f.submittedAt = time.Time{}
	f.outcome = ""
	return nil
}

// Snapshot returns the current stage, advancing loading to sms when due.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := Snapshot{Stage: f.advance(), SMSPhone: f.smsPhone, Outcome: f.outcome}
	if snap.Stage == StageLoading {
		snap.SMSIn = f.delay
		if !f.submittedAt.IsZero() {
			snap.SMSIn = f.submittedAt.Add(f.delay).Sub(f.now())
		}
	}
	return snap
}

// Stage returns the current stage.
func (f *Flow) Stage() Stage {
	return f.Snapshot().Stage
}

// advance promotes loading to sms once the delay has elapsed. Callers hold mu.
func (f *Flow) advance() Stage {
	if f.stage == StageLoading && !f.submittedAt.IsZero() &&
		!f.now().Before(f.submittedAt.Add(f.delay)) {
		f.stage = StageSMS
	}
	return f.stage
}

func (f *Flow) complete(o Outcome) {
	f.stage = StageCompleted
	f.outcome = o
	if f.onComplete != nil {
		f.onComplete(o)
	}
}

// Message returns the visitor-facing text for an OptIn error.
func Message(err error) string {
	switch {
	case eris.Is(err, ErrConsentRequired):
		return ConsentMessage
	case eris.Is(err, ErrInvalidPhone):
		return PhoneMessage
	default:
		return ""
	}
}
