package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/listing-signal/signal-web/internal/address"
	"github.com/listing-signal/signal-web/internal/flow"
	"github.com/listing-signal/signal-web/internal/lead"
	"github.com/listing-signal/signal-web/internal/signal"
	"github.com/listing-signal/signal-web/internal/suggest"
)

const maxBodyBytes = 64 << 10

type suggestionsResponse struct {
	Suggestions []address.Suggestion `json:"suggestions"`
}

// handleAddressSearch proxies a free-text query to the lookup cascade. Every
// outcome is a 200 with a (possibly empty) suggestions list.
func (s *Server) handleAddressSearch(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	empty := suggestionsResponse{Suggestions: []address.Suggestion{}}

	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if utf8.RuneCountInString(query) < suggest.MinQueryLength || s.deps.Lookup == nil {
		writeJSON(w, http.StatusOK, empty)
		return
	}

	results, err := s.deps.Lookup.Search(r.Context(), query)
	if err != nil {
		zap.L().Warn("server: address suggestions failed",
			zap.String("query", query),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, empty)
		return
	}
	if results == nil {
		results = []address.Suggestion{}
	}
	writeJSON(w, http.StatusOK, suggestionsResponse{Suggestions: results})
}

// addressSelectRequest carries a chosen free-text suggestion or a structured
// place, plus the form's current address fields.
type addressSelectRequest struct {
	Suggestion *address.Suggestion `json:"suggestion"`
	Place      *address.Place      `json:"place"`
	Zip        string              `json:"zip"`
	City       string              `json:"city"`
	State      string              `json:"state"`
}

type addressSelectResponse struct {
	Address         string `json:"address"`
	Display         string `json:"display"`
	Zip             string `json:"zip"`
	City            string `json:"city"`
	State           string `json:"state"`
	AddressVerified bool   `json:"addressVerified"`
}

// handleAddressSelect normalizes a picked suggestion into the form's address
// fields. A place takes precedence over a suggestion.
func (s *Server) handleAddressSelect(w http.ResponseWriter, r *http.Request) {
	var req addressSelectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var picked *address.Suggestion
	switch {
	case req.Place != nil:
		if strings.TrimSpace(req.Place.FormattedAddress) == "" {
			writeError(w, http.StatusUnprocessableEntity, "place has no formatted address")
			return
		}
		picked = address.FromPlace(req.Place)
	case req.Suggestion != nil && strings.TrimSpace(req.Suggestion.Label) != "":
		picked = req.Suggestion
	default:
		writeError(w, http.StatusUnprocessableEntity, "suggestion or place is required")
		return
	}

	form := lead.Form{Zip: req.Zip, City: req.City, State: req.State}
	form.ApplySuggestion(*picked)
	writeJSON(w, http.StatusOK, addressSelectResponse{
		Address:         form.Address,
		Display:         address.DisplayLine(*picked),
		Zip:             form.Zip,
		City:            form.City,
		State:           form.State,
		AddressVerified: form.AddressVerified,
	})
}

type leadResponse struct {
	SubmissionID string     `json:"submissionId"`
	Stage        flow.Stage `json:"stage"`
	SMSDelayMS   int64      `json:"smsDelayMs"`
	SMSPhone     string     `json:"smsPhone,omitempty"`
	Outcome      string     `json:"outcome,omitempty"`
}

func snapshotResponse(id string, snap flow.Snapshot) leadResponse {
	return leadResponse{
		SubmissionID: id,
		Stage:        snap.Stage,
		SMSDelayMS:   max(snap.SMSIn.Milliseconds(), 0),
		SMSPhone:     snap.SMSPhone,
		Outcome:      string(snap.Outcome),
	}
}

func (s *Server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	var form lead.Form
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if errs := form.Validate(); errs != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": errs})
		return
	}

	if s.deps.Relay == nil || !s.deps.Relay.Configured() {
		zap.L().Error("server: lead relay not configured")
		writeError(w, http.StatusServiceUnavailable, lead.UnavailableMessage)
		return
	}

	payload := lead.BuildPayload(form)
	id, f := s.deps.Flows.Start(form.Phone)
	metrics := s.deps.Flows.Metrics()

	if err := s.deps.Relay.Submit(r.Context(), payload); err != nil {
		f.Fail()
		s.deps.Flows.Remove(id)
		metrics.Submission("failed")
		zap.L().Error("server: lead relay failed",
			zap.String("submission_id", id),
			zap.Error(err),
		)
		if errors.Is(err, lead.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, lead.UnavailableMessage)
			return
		}
		writeError(w, http.StatusBadGateway, lead.RelayFailedMessage)
		return
	}

	f.Submitted()
	metrics.Submission("relayed")
	writeJSON(w, http.StatusAccepted, snapshotResponse(id, f.Snapshot()))
}

func (s *Server) lookupFlow(w http.ResponseWriter, r *http.Request) (string, *flow.Flow, bool) {
	id := chi.URLParam(r, "id")
	f, ok := s.deps.Flows.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "submission not found")
		return "", nil, false
	}
	return id, f, true
}

func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	id, f, ok := s.lookupFlow(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse(id, f.Snapshot()))
}

type smsRequest struct {
	Phone   string `json:"phone"`
	Consent bool   `json:"consent"`
}

func (s *Server) handleSMS(w http.ResponseWriter, r *http.Request) {
	id, f, ok := s.lookupFlow(w, r)
	if !ok {
		return
	}
	var req smsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := f.OptIn(req.Phone, req.Consent); err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse(id, f.Snapshot()))
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	id, f, ok := s.lookupFlow(w, r)
	if !ok {
		return
	}
	if err := f.Skip(); err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse(id, f.Snapshot()))
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	id, f, ok := s.lookupFlow(w, r)
	if !ok {
		return
	}
	if err := f.Finish(); err != nil {
		writeTransitionError(w, err)
		return
	}
	s.deps.Flows.Remove(id)
	writeJSON(w, http.StatusOK, snapshotResponse(id, f.Snapshot()))
}

func writeTransitionError(w http.ResponseWriter, err error) {
	if msg := flow.Message(err); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	if eris.Is(err, flow.ErrWrongStage) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	zap.L().Error("server: flow transition", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

// handleSignalStream sends the score animation as server-sent events, one
// data frame per tick, then a "done" event.
func (s *Server) handleSignalStream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for score := range signal.Animate(r.Context(), s.deps.Rand, s.deps.Tick) {
		data, err := json.Marshal(signal.NewTick(score))
		if err != nil {
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			zap.L().Debug("server: flush signal stream", zap.Error(err))
		}
	}
	if r.Context().Err() != nil {
		return
	}
	_, _ = fmt.Fprint(w, "event: done\ndata: {}\n\n")
	_ = rc.Flush()
}
