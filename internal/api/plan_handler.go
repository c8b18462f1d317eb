package api

import (
	"net/http"
	"time"

	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/service"

	"github.com/gin-gonic/gin"
)

// PlanHandler serves one plan collection; meal and workout plans each get
// their own instance.
type PlanHandler struct {
	planService service.PlanService
}

func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

type PlanRequest struct {
	UserID      string            `json:"userId"`
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Goal        *string           `json:"goal"`
	StartDate   *time.Time        `json:"startDate"`
	EndDate     *time.Time        `json:"endDate"`
	Items       []domain.PlanItem `json:"items"`
	IsActive    *bool             `json:"isActive"`
}

func bindPlan(c *gin.Context) (service.PlanInput, bool) {
	var req PlanRequest
	if !bindJSON(c, &req) {
		return service.PlanInput{}, false
	}
	userID, err := optionalID(req.UserID, "userId")
	if err != nil {
		respondError(c, err)
		return service.PlanInput{}, false
	}
	return service.PlanInput{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Goal:        req.Goal,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Items:       req.Items,
		IsActive:    req.IsActive,
	}, true
}

// Create godoc
// @Summary Create a plan
// @Description Trainers write plans for their clients; only the creator may edit a plan later.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body PlanRequest true "Plan"
// @Success 201 {object} domain.Plan
// @Router /meal-plans [post]
// @Router /workout-plans [post]
func (h *PlanHandler) Create(c *gin.Context) {
	in, ok := bindPlan(c)
	if !ok {
		return
	}
	plan, err := h.planService.Create(c.Request.Context(), mustActor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, plan)
}

// List godoc
// @Summary List plans
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Plan
// @Router /meal-plans [get]
// @Router /workout-plans [get]
func (h *PlanHandler) List(c *gin.Context) {
	plans, err := h.planService.List(c.Request.Context(), mustActor(c), c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, plans)
}

// Get godoc
// @Summary Get a plan
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 200 {object} domain.Plan
// @Router /meal-plans/{id} [get]
// @Router /workout-plans/{id} [get]
func (h *PlanHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	plan, err := h.planService.Get(c.Request.Context(), mustActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, plan)
}

// Update godoc
// @Summary Update a plan
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Param plan body PlanRequest true "Fields to change"
// @Success 200 {object} domain.Plan
// @Failure 403 {object} envelope "Not the plan's creator"
// @Router /meal-plans/{id} [patch]
// @Router /workout-plans/{id} [patch]
func (h *PlanHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	in, ok := bindPlan(c)
	if !ok {
		return
	}
	plan, err := h.planService.Update(c.Request.Context(), mustActor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, plan)
}

// Delete godoc
// @Summary Delete a plan
// @Tags Plans
// @Security BearerAuth
// @Param id path string true "Plan ID"
// @Success 204
// @Router /meal-plans/{id} [delete]
// @Router /workout-plans/{id} [delete]
func (h *PlanHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.planService.Delete(c.Request.Context(), mustActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
