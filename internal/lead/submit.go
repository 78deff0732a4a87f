package lead

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Messages shown to the visitor when a submission cannot be delivered.
const (
	UnavailableMessage = "We’re unable to reach the Listing Signal service right now. Please try again soon."
	RelayFailedMessage = "Something went wrong sending your request. Please double-check your details or try again later."
)

// DefaultTimeout bounds a single relay request.
const DefaultTimeout = 15 * time.Second

// ErrNotConfigured is returned when no API URL has been configured.
var ErrNotConfigured = eris.New("lead: unable to reach the Listing Signal service")

// RelayError reports a non-2xx reply from the Listing Signal API.
type RelayError struct {
	Status int
	Body   string
}

func (e *RelayError) Error() string {
	return e.Body
}

// Submitter relays lead payloads to the Listing Signal API.
type Submitter struct {
	client *resty.Client
	apiURL string
}

// NewSubmitter creates a Submitter that posts to apiURL. An empty URL yields
// a Submitter whose Submit always returns ErrNotConfigured.
func NewSubmitter(apiURL string, timeout time.Duration) *Submitter {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &Submitter{client: client, apiURL: strings.TrimSpace(apiURL)}
}

// Configured reports whether an API URL is set.
func (s *Submitter) Configured() bool {
	return s != nil && s.apiURL != ""
}

// Submit posts the payload once. Non-2xx replies become a *RelayError
// carrying the response text.
func (s *Submitter) Submit(ctx context.Context, p Payload) error {
	if !s.Configured() {
		zap.L().Error("lead: missing API URL, set lead.api_url")
		return ErrNotConfigured
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(p).
		Post(s.apiURL)
	if err != nil {
		return eris.Wrap(err, "lead: relay request")
	}
	if !resp.IsSuccess() {
		body := strings.TrimSpace(resp.String())
		if body == "" {
			body = "Request failed"
		}
		return eris.Wrapf(&RelayError{Status: resp.StatusCode(), Body: body},
			"lead: relay returned status %d", resp.StatusCode())
	}

	zap.L().Info("lead: relayed",
		zap.String("state", p.State),
		zap.String("timeline", p.Timeline),
		zap.Int("status", resp.StatusCode()),
	)
	return nil
}
