package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/evoltcare/service-center-backend/internal/models"
	"github.com/evoltcare/service-center-backend/internal/services"
)

// BookingHandler handles guest booking endpoints
type BookingHandler struct {
	bookingService *services.BookingService
	logger         *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(bookingService *services.BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		logger:         logger,
	}
}

// CreateBooking creates a guest booking and returns a checkout link
// @Summary Create guest booking
// @Description Validates the request, reserves the technician slot and returns a payment checkout URL
// @Tags Bookings
// @Accept json
// @Produce json
// @Param request body models.CreateBookingRequest true "Booking request"
// @Success 201 {object} models.CreateBookingResponse
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 409 {object} map[string]interface{} "Slot no longer available"
// @Failure 502 {object} map[string]interface{} "Payment provider unavailable"
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	response, err := h.bookingService.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		if !models.IsKind(err, models.ErrorKindValidation) && !models.IsKind(err, models.ErrorKindConflict) {
			h.logger.WithError(err).Error("Failed to create booking")
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetBooking looks up a booking by UUID or public booking code
// @Summary Get booking
// @Tags Bookings
// @Produce json
// @Param ref path string true "Booking ID or booking code"
// @Success 200 {object} models.Booking
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Router /bookings/{ref} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	ref := c.Param("ref")

	var booking *models.Booking
	var err error
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		booking, err = h.bookingService.GetBooking(id)
	} else {
		booking, err = h.bookingService.GetBookingByCode(ref)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}
