package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/evoltcare/service-center-backend/internal/models"
	"github.com/evoltcare/service-center-backend/internal/services"
	"github.com/evoltcare/service-center-backend/internal/utils"
)

// PaymentAuditor records payment events. Satisfied by
// *database.PaymentAuditRepository.
type PaymentAuditor interface {
	Log(audit *models.PaymentAudit) error
}

// PaymentHandler handles payment confirmation and provider webhooks
type PaymentHandler struct {
	paymentService *services.PaymentService
	auditor        PaymentAuditor
	logger         *logrus.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *services.PaymentService, auditor PaymentAuditor, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		auditor:        auditor,
		logger:         logger,
	}
}

// webhookPayload is the subset of the provider's webhook body we need.
// The payload itself is never trusted for the outcome; confirmation
// always re-polls the provider.
type webhookPayload struct {
	OrderCode int64 `json:"orderCode"`
	Data      struct {
		OrderCode int64 `json:"orderCode"`
	} `json:"data"`
}

func (p *webhookPayload) orderCode() int64 {
	if p.Data.OrderCode != 0 {
		return p.Data.OrderCode
	}
	return p.OrderCode
}

// ConfirmPayment reconciles an order code against the provider
// @Summary Confirm payment
// @Description Polls the payment provider and finalizes the booking when the payment settled
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body models.ConfirmPaymentRequest true "Order code"
// @Success 200 {object} map[string]interface{} "confirmed flag"
// @Failure 409 {object} map[string]interface{} "Booking already cancelled"
// @Failure 502 {object} map[string]interface{} "Provider unavailable"
// @Router /payments/confirm [post]
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	var req models.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	confirmed, err := h.paymentService.ConfirmPayment(req.OrderCode)
	h.auditConfirmation(c, req.OrderCode, models.PaymentEventStatusPolled, confirmed, err)
	if err != nil {
		if !models.IsKind(err, models.ErrorKindNotFound) && !models.IsKind(err, models.ErrorKindConflict) {
			h.logger.WithError(err).WithField("order_code", req.OrderCode).Error("Payment confirmation failed")
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"confirmed": confirmed})
}

// Webhook receives provider payment notifications. The payload only
// tells us which order to look at; the outcome comes from re-polling
// the provider. Always answers 200 so the provider stops retrying
// deliveries we have safely recorded.
// @Summary Payment provider webhook
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"received": false})
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil || payload.orderCode() == 0 {
		h.logger.WithError(err).Warn("Ignoring malformed payment webhook")
		h.auditWebhook(c, nil, string(body))
		c.JSON(http.StatusOK, gin.H{"received": false})
		return
	}

	orderCode := payload.orderCode()
	h.auditWebhook(c, &orderCode, string(body))

	confirmed, err := h.paymentService.ConfirmPayment(strconv.FormatInt(orderCode, 10))
	if err != nil {
		h.logger.WithError(err).WithField("order_code", orderCode).Warn("Webhook reconciliation failed")
		c.JSON(http.StatusOK, gin.H{"received": true, "confirmed": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "confirmed": confirmed})
}

// CreatePaymentLink issues a fresh checkout link for a pending booking
// @Summary Recreate checkout link
// @Tags Payments
// @Produce json
// @Param ref path string true "Booking ID"
// @Success 200 {object} map[string]interface{} "checkout_url"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Failure 409 {object} map[string]interface{} "Booking already finalized"
// @Router /bookings/{ref}/payment-link [post]
func (h *PaymentHandler) CreatePaymentLink(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("ref"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "booking id must be a valid UUID"})
		return
	}

	checkoutURL, err := h.paymentService.CreatePaymentLink(bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.safeAudit(&models.PaymentAudit{
		BookingID: &bookingID,
		EventType: models.PaymentEventCheckoutCreated,
		IPAddress: strPtr(utils.GetRealIP(c)),
		UserAgent: strPtr(utils.GetUserAgent(c)),
	})

	c.JSON(http.StatusOK, gin.H{"checkout_url": checkoutURL})
}

func (h *PaymentHandler) auditWebhook(c *gin.Context, orderCode *int64, rawPayload string) {
	userAgent := utils.GetUserAgent(c)
	h.safeAudit(&models.PaymentAudit{
		OrderCode:  orderCode,
		EventType:  models.PaymentEventWebhookReceived,
		RawPayload: strPtr(rawPayload),
		IPAddress:  strPtr(utils.GetRealIP(c)),
		UserAgent:  strPtr(userAgent),
		DeviceInfo: strPtr(utils.DescribeUserAgent(userAgent)),
	})
}

func (h *PaymentHandler) auditConfirmation(c *gin.Context, orderCode string, event models.PaymentEventType, confirmed bool, confirmErr error) {
	audit := &models.PaymentAudit{
		EventType:  event,
		IPAddress:  strPtr(utils.GetRealIP(c)),
		UserAgent:  strPtr(utils.GetUserAgent(c)),
		DeviceInfo: strPtr(utils.DescribeUserAgent(utils.GetUserAgent(c))),
	}
	if code, err := strconv.ParseInt(orderCode, 10, 64); err == nil {
		audit.OrderCode = &code
	}
	if confirmErr != nil {
		audit.EventType = models.PaymentEventError
		audit.ErrorMessage = strPtr(confirmErr.Error())
	} else if confirmed {
		audit.EventType = models.PaymentEventBookingConfirmed
	}
	h.safeAudit(audit)
}

// safeAudit logs audit failures without failing the request
func (h *PaymentHandler) safeAudit(audit *models.PaymentAudit) {
	if err := h.auditor.Log(audit); err != nil {
		h.logger.WithError(err).Error("Failed to record payment audit")
	}
}

func strPtr(s string) *string {
	return &s
}
