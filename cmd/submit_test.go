package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listing-signal/signal-web/internal/address"
	"github.com/listing-signal/signal-web/internal/lead"
)

type recordingRelay struct {
	got []lead.Payload
	err error
}

func (r *recordingRelay) Submit(_ context.Context, p lead.Payload) error {
	r.got = append(r.got, p)
	return r.err
}

func completeFlags() submitFlags {
	return submitFlags{
		fullName: "Jordan Reyes",
		email:    "jordan@example.com",
		phone:    "5125550142",
		address:  "12 Oak Street, Austin, TX, 78701",
		zip:      "78701",
		timeline: "1-3 Months",
		intent:   "Not Sure",
		confirm:  true,
		verified: true,
	}
}

func TestRunSubmit_Relays(t *testing.T) {
	relay := &recordingRelay{}
	var out bytes.Buffer

	require.NoError(t, runSubmit(context.Background(), &out, completeFlags(), nil, relay))
	assert.Contains(t, out.String(), "lead submitted")

	require.Len(t, relay.got, 1)
	p := relay.got[0]
	assert.Equal(t, "(512) 555-0142", p.Phone)
	assert.Equal(t, "Austin", p.City)
	assert.Equal(t, "TX", p.State)
	assert.Equal(t, lead.ResponseMode, p.ResponseMode)
}

func TestRunSubmit_ValidationErrors(t *testing.T) {
	opts := completeFlags()
	opts.email = "nope"
	opts.verified = false
	relay := &recordingRelay{}
	var out bytes.Buffer

	err := runSubmit(context.Background(), &out, opts, nil, relay)
	require.Error(t, err)

	var fe lead.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Invalid email format", fe["email"])
	assert.Equal(t, "Please select a verified address from the suggestions.", fe["address"])
	assert.Contains(t, out.String(), "email: Invalid email format")
	assert.Empty(t, relay.got)
}

func TestRunSubmit_DryRunPrintsPayload(t *testing.T) {
	opts := completeFlags()
	opts.dryRun = true
	relay := &recordingRelay{}
	var out bytes.Buffer

	require.NoError(t, runSubmit(context.Background(), &out, opts, nil, relay))
	assert.Empty(t, relay.got)

	var p lead.Payload
	require.NoError(t, json.Unmarshal(out.Bytes(), &p))
	assert.Equal(t, "Jordan Reyes", p.FullName)
	assert.Equal(t, "json", p.ResponseMode)
}

func TestRunSubmit_RelayError(t *testing.T) {
	relay := &recordingRelay{err: errors.New("relay down")}
	err := runSubmit(context.Background(), &bytes.Buffer{}, completeFlags(), nil, relay)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay down")
}

func TestBuildForm_ResolveAddress(t *testing.T) {
	lookup := &stubLookup{results: map[string][]address.Suggestion{
		"12 Oak Street": {oakSuggestion},
	}}
	opts := completeFlags()
	opts.address = "12 Oak Street"
	opts.zip = ""
	opts.verified = false
	opts.state = "tx"

	form, err := buildForm(context.Background(), opts, lookup)
	require.NoError(t, err)
	assert.True(t, form.AddressVerified)
	assert.Equal(t, oakSuggestion.Label, form.Address)
	assert.Equal(t, "Austin", form.City)
	assert.Equal(t, "78701", form.Zip)
	assert.Equal(t, "tx", form.State, "explicit flags win over resolved parts")
	assert.Nil(t, form.Validate())
}

func TestBuildForm_ResolveNoMatch(t *testing.T) {
	opts := completeFlags()
	_, err := buildForm(context.Background(), opts, &stubLookup{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no match for address")
}
