package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/evoltcare/service-center-backend/internal/models"
	"github.com/evoltcare/service-center-backend/internal/services"
)

// HoldHandler exposes the advisory slot hold endpoints. Frontends take
// a hold when the customer picks a slot so two browsers rarely race
// the same checkout.
type HoldHandler struct {
	holdStore services.HoldStore
	holdTTL   time.Duration
	logger    *logrus.Logger
}

// NewHoldHandler creates a new HoldHandler
func NewHoldHandler(holdStore services.HoldStore, holdTTL time.Duration, logger *logrus.Logger) *HoldHandler {
	return &HoldHandler{
		holdStore: holdStore,
		holdTTL:   holdTTL,
		logger:    logger,
	}
}

// HoldSlot takes an advisory hold on a slot tuple
// @Summary Hold a slot
// @Tags Holds
// @Accept json
// @Produce json
// @Param request body models.HoldSlotRequest true "Hold request"
// @Success 200 {object} models.HoldSlotResponse
// @Failure 409 {object} models.HoldSlotResponse "Slot held by someone else"
// @Router /holds [post]
func (h *HoldHandler) HoldSlot(c *gin.Context) {
	var req models.HoldSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	key, holderID, err := req.HoldKey()
	if err != nil {
		respondError(c, err)
		return
	}

	granted, expiresAt, err := h.holdStore.TryHold(c.Request.Context(), key, holderID, h.holdTTL)
	if err != nil {
		h.logger.WithError(err).Error("Failed to take slot hold")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if !granted {
		c.JSON(http.StatusConflict, models.HoldSlotResponse{Granted: false})
		return
	}

	c.JSON(http.StatusOK, models.HoldSlotResponse{Granted: true, ExpiresAt: &expiresAt})
}

// ReleaseSlot releases a previously taken hold
// @Summary Release a slot hold
// @Tags Holds
// @Accept json
// @Produce json
// @Param request body models.HoldSlotRequest true "Release request"
// @Success 200 {object} map[string]interface{} "released flag"
// @Router /holds/release [post]
func (h *HoldHandler) ReleaseSlot(c *gin.Context) {
	var req models.HoldSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	key, holderID, err := req.HoldKey()
	if err != nil {
		respondError(c, err)
		return
	}

	released, err := h.holdStore.Release(c.Request.Context(), key, holderID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to release slot hold")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"released": released})
}

// ListHolds returns the live holds for a center and date. Staff only.
// @Summary List live holds
// @Tags Holds
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Param center_id query string true "Service center ID"
// @Param work_date query string true "Work date (YYYY-MM-DD)"
// @Success 200 {object} map[string]interface{} "holds"
// @Failure 401 {object} map[string]interface{} "Unauthorized"
// @Router /staff/holds [get]
func (h *HoldHandler) ListHolds(c *gin.Context) {
	centerID, err := uuid.Parse(c.Query("center_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "center_id must be a valid UUID"})
		return
	}

	workDate := c.Query("work_date")
	if _, err := time.Parse("2006-01-02", workDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "work_date must be in YYYY-MM-DD format"})
		return
	}

	holds, err := h.holdStore.ListHolds(c.Request.Context(), centerID, workDate)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list slot holds")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"holds": holds, "count": len(holds)})
}
