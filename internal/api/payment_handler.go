package api

import (
	"net/http"

	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/processor"
	"alcyxob/fitness-hub/internal/service"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// --- DTOs ---

// PaymentResponse adds the payment target, which the domain type keeps out of JSON.
type PaymentResponse struct {
	*domain.Payment
	TargetType string `json:"targetType,omitempty"`
	TargetID   string `json:"targetId,omitempty"`
}

func MapPaymentToResponse(p *domain.Payment) PaymentResponse {
	resp := PaymentResponse{Payment: p}
	if p != nil && p.Target != nil {
		resp.TargetType = domain.TargetKind(p.Target)
		resp.TargetID = p.Target.TargetID().Hex()
	}
	return resp
}

type CheckoutRequest struct {
	AppointmentID string `json:"appointmentId"`
	ServiceID     string `json:"serviceId"`
	Amount        int64  `json:"amount"`
	Description   string `json:"description"`
}

type CheckoutResponse struct {
	Payment     PaymentResponse `json:"payment"`
	CheckoutURL string          `json:"checkoutUrl"`
	SessionID   string          `json:"sessionId"`
}

type RefundRequest struct {
	Amount int64  `json:"amount" binding:"gte=0"` // zero refunds the remainder
	Reason string `json:"reason"`
}

// --- Handlers ---

// List godoc
// @Summary List payments
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {array} PaymentResponse
// @Router /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	payments, err := h.paymentService.List(c.Request.Context(), mustActor(c), c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]PaymentResponse, len(payments))
	for i := range payments {
		resp[i] = MapPaymentToResponse(&payments[i])
	}
	respondList(c, resp)
}

// Get godoc
// @Summary Get a payment
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} PaymentResponse
// @Failure 403 {object} envelope "Forbidden"
// @Failure 404 {object} envelope "Not found"
// @Router /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	payment, err := h.paymentService.Get(c.Request.Context(), mustActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapPaymentToResponse(payment))
}

// EnsureCustomer godoc
// @Summary Create the caller's billing customer
// @Description Idempotent; returns the existing customer id when there is one.
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Failure 502 {object} envelope "Payment processor error"
// @Router /payments/customer [post]
func (h *PaymentHandler) EnsureCustomer(c *gin.Context) {
	customerID, err := h.paymentService.EnsureCustomer(c.Request.Context(), mustActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"customerId": customerID})
}

// CreateSetupIntent godoc
// @Summary Start saving a payment method
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Router /payments/setup-intent [post]
func (h *PaymentHandler) CreateSetupIntent(c *gin.Context) {
	secret, err := h.paymentService.CreateSetupIntent(c.Request.Context(), mustActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"clientSecret": secret})
}

// ListMethods godoc
// @Summary List saved payment methods
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {array} processor.PaymentMethod
// @Router /payments/methods [get]
func (h *PaymentHandler) ListMethods(c *gin.Context) {
	methods, err := h.paymentService.ListMethods(c.Request.Context(), mustActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondList[processor.PaymentMethod](c, methods)
}

// AttachMethod godoc
// @Summary Attach a payment method to the caller
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param methodId path string true "Processor payment method ID"
// @Success 200 {object} processor.PaymentMethod
// @Router /payments/methods/{methodId}/attach [post]
func (h *PaymentHandler) AttachMethod(c *gin.Context) {
	method, err := h.paymentService.AttachMethod(c.Request.Context(), mustActor(c), c.Param("methodId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, method)
}

// DetachMethod godoc
// @Summary Remove a saved payment method
// @Tags Payments
// @Security BearerAuth
// @Param methodId path string true "Processor payment method ID"
// @Success 204
// @Failure 404 {object} envelope "Not one of the caller's methods"
// @Router /payments/methods/{methodId} [delete]
func (h *PaymentHandler) DetachMethod(c *gin.Context) {
	if err := h.paymentService.DetachMethod(c.Request.Context(), mustActor(c), c.Param("methodId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Checkout godoc
// @Summary Pay for an appointment or a trainer service
// @Description Creates a pending payment and a hosted checkout session. The payment settles via webhook.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param checkout body CheckoutRequest true "What to pay for"
// @Success 201 {object} CheckoutResponse
// @Failure 400 {object} envelope "Invalid input"
// @Failure 409 {object} envelope "Already paid"
// @Failure 502 {object} envelope "Payment processor error"
// @Router /payments/checkout [post]
func (h *PaymentHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}
	appointmentID, err := optionalID(req.AppointmentID, "appointmentId")
	if err != nil {
		respondError(c, err)
		return
	}
	serviceID, err := optionalID(req.ServiceID, "serviceId")
	if err != nil {
		respondError(c, err)
		return
	}

	checkout, err := h.paymentService.Checkout(c.Request.Context(), mustActor(c), service.CheckoutInput{
		AppointmentID: appointmentID,
		ServiceID:     serviceID,
		Amount:        req.Amount,
		Description:   req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, CheckoutResponse{
		Payment:     MapPaymentToResponse(checkout.Payment),
		CheckoutURL: checkout.CheckoutURL,
		SessionID:   checkout.SessionID,
	})
}

// Refund godoc
// @Summary Refund a payment (admin)
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Param refund body RefundRequest false "Amount (0 = remainder) and reason"
// @Success 200 {object} PaymentResponse
// @Failure 403 {object} envelope "Admin only"
// @Failure 409 {object} envelope "Payment not completed"
// @Router /payments/{id}/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req RefundRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	payment, err := h.paymentService.Refund(c.Request.Context(), mustActor(c), id, req.Amount, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapPaymentToResponse(payment))
}
