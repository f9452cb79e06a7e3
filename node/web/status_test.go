/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/taomind007/storage-subnet/pkg/reputation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	round        uint32
	participants []ParticipantStatus
}

func (f *fakeProvider) CurrentRound() uint32 { return f.round }

func (f *fakeProvider) Participants() []ParticipantStatus { return f.participants }

func (f *fakeProvider) Participant(identity string) (ParticipantStatus, bool) {
	for _, p := range f.participants {
		if p.Identity == identity {
			return p, true
		}
	}
	return ParticipantStatus{}, false
}

func (f *fakeProvider) TierTable() []reputation.Tier { return reputation.DefaultTiers() }

func testProvider() *fakeProvider {
	return &fakeProvider{
		round: 42,
		participants: []ParticipantStatus{
			{Identity: "m1", Tier: "Bronze", Payloads: 3, UsedSpace: 1024},
		},
	}
}

func TestGetStatus(t *testing.T) {
	router := NewRouter(testProvider())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got statusData
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, uint32(42), got.Round)
	assert.NotEmpty(t, got.Name)
}

func TestGetParticipant(t *testing.T) {
	router := NewRouter(testProvider())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/participants/m1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var got ParticipantStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Bronze", got.Tier)
	assert.Equal(t, 3, got.Payloads)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/participants/nobody", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTiers(t *testing.T) {
	router := NewRouter(testProvider())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tiers", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got []reputation.Tier
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 5)
	assert.Equal(t, "Bronze", got[0].Name)
	assert.Equal(t, "SuperSaiyan", got[4].Name)
}
