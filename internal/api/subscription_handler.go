package api

import (
	"net/http"

	"alcyxob/fitness-hub/internal/processor"
	"alcyxob/fitness-hub/internal/service"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

type CreateSubscriptionRequest struct {
	Plan    string `json:"plan" binding:"required"`
	PriceID string `json:"priceId" binding:"required"`
}

type SubscriptionPlanRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Currency    string `json:"currency"`
	Interval    string `json:"interval" binding:"omitempty,oneof=day week month year"`
}

// Current godoc
// @Summary The caller's subscription
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Subscription
// @Failure 404 {object} envelope "No subscription"
// @Router /subscriptions/me [get]
func (h *SubscriptionHandler) Current(c *gin.Context) {
	sub, err := h.subscriptionService.Current(c.Request.Context(), mustActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, sub)
}

// Create godoc
// @Summary Subscribe to a plan
// @Description Returns the client secret used to confirm the first payment. The subscription activates via webhook.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param subscription body CreateSubscriptionRequest true "Plan and price"
// @Success 201 {object} service.SubscriptionStart
// @Failure 409 {object} envelope "Already subscribed"
// @Failure 502 {object} envelope "Payment processor error"
// @Router /subscriptions [post]
func (h *SubscriptionHandler) Create(c *gin.Context) {
	var req CreateSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}
	start, err := h.subscriptionService.Create(c.Request.Context(), mustActor(c), req.Plan, req.PriceID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, start)
}

// Cancel godoc
// @Summary Cancel at the end of the period
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subscription ID"
// @Success 200 {object} domain.Subscription
// @Failure 403 {object} envelope "Forbidden"
// @Failure 409 {object} envelope "Already canceled"
// @Router /subscriptions/{id}/cancel [patch]
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	sub, err := h.subscriptionService.Cancel(c.Request.Context(), mustActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, sub)
}

// CreatePlan godoc
// @Summary Create a subscription plan (admin)
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body SubscriptionPlanRequest true "Product and recurring price"
// @Success 201 {object} processor.Plan
// @Failure 403 {object} envelope "Admin only"
// @Router /subscriptions/plans [post]
func (h *SubscriptionHandler) CreatePlan(c *gin.Context) {
	var req SubscriptionPlanRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := h.subscriptionService.CreatePlan(c.Request.Context(), mustActor(c), processor.PlanRequest{
		Name:        req.Name,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Interval:    req.Interval,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, plan)
}
