/*
	Copyright (C) TaoStore. All rights reserved.

	SPDX-License-Identifier: Apache-2.0
*/

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type handler struct {
	provider StatusProvider
}

func (h *handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, currentStatus(h.provider))
}

func (h *handler) getParticipants(c *gin.Context) {
	c.JSON(http.StatusOK, h.provider.Participants())
}

func (h *handler) getParticipant(c *gin.Context) {
	identity := c.Param("identity")
	status, ok := h.provider.Participant(identity)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"err": "unknown identity: " + identity})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *handler) getTiers(c *gin.Context) {
	c.JSON(http.StatusOK, h.provider.TierTable())
}
