/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

// Package web serves the read-only status surface: engine state,
// participant counters and the tier table.
package web

import (
	"github.com/taomind007/storage-subnet/configs"
	"github.com/taomind007/storage-subnet/pkg/reputation"

	"github.com/gin-gonic/gin"
)

// ParticipantStatus is one row of the participant listing.
type ParticipantStatus struct {
	Identity  string              `json:"identity"`
	Tier      string              `json:"tier"`
	Stats     reputation.Snapshot `json:"stats"`
	Payloads  int                 `json:"payloads"`
	UsedSpace uint64              `json:"used_space"`
}

// StatusProvider is what the engine exposes to this surface. Reads
// only; nothing served here mutates engine state.
type StatusProvider interface {
	CurrentRound() uint32
	Participants() []ParticipantStatus
	Participant(identity string) (ParticipantStatus, bool)
	TierTable() []reputation.Tier
}

// Serve blocks on the listener. Errors out only when the listener
// dies.
func Serve(addr string, provider StatusProvider) error {
	gin.SetMode(gin.ReleaseMode)
	return NewRouter(provider).Run(addr)
}

// NewRouter builds the route table, split out so tests can drive it
// with httptest.
func NewRouter(provider StatusProvider) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	h := &handler{provider: provider}
	router.GET("/status", h.getStatus)
	router.GET("/participants", h.getParticipants)
	router.GET("/participants/:identity", h.getParticipant)
	router.GET("/tiers", h.getTiers)
	return router
}

type statusData struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Round   uint32 `json:"round"`
}

func currentStatus(provider StatusProvider) statusData {
	return statusData{
		Name:    configs.Name,
		Version: configs.Version,
		Round:   provider.CurrentRound(),
	}
}
