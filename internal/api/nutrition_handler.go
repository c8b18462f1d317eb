package api

import (
	"net/http"
	"time"

	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/service"

	"github.com/gin-gonic/gin"
)

type NutritionHandler struct {
	nutritionService service.NutritionService
}

func NewNutritionHandler(nutritionService service.NutritionService) *NutritionHandler {
	return &NutritionHandler{nutritionService: nutritionService}
}

type NutritionLogRequest struct {
	UserID      string            `json:"userId"`
	Date        *time.Time        `json:"date"`
	MealType    *domain.MealType  `json:"mealType"`
	Foods       []domain.FoodItem `json:"foods"`
	WaterIntake *float64          `json:"waterIntake"`
	Notes       *string           `json:"notes"`
}

func bindNutritionLog(c *gin.Context) (service.NutritionLogInput, bool) {
	var req NutritionLogRequest
	if !bindJSON(c, &req) {
		return service.NutritionLogInput{}, false
	}
	userID, err := optionalID(req.UserID, "userId")
	if err != nil {
		respondError(c, err)
		return service.NutritionLogInput{}, false
	}
	return service.NutritionLogInput{
		UserID:      userID,
		Date:        req.Date,
		MealType:    req.MealType,
		Foods:       req.Foods,
		WaterIntake: req.WaterIntake,
		Notes:       req.Notes,
	}, true
}

// Create godoc
// @Summary Log a meal
// @Description totalCalories is computed from foods.
// @Tags Nutrition
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param log body NutritionLogRequest true "Meal"
// @Success 201 {object} domain.NutritionLog
// @Router /nutrition-logs [post]
func (h *NutritionHandler) Create(c *gin.Context) {
	in, ok := bindNutritionLog(c)
	if !ok {
		return
	}
	entry, err := h.nutritionService.Create(c.Request.Context(), mustActor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, entry)
}

// List godoc
// @Summary List nutrition logs
// @Tags Nutrition
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.NutritionLog
// @Router /nutrition-logs [get]
func (h *NutritionHandler) List(c *gin.Context) {
	logs, err := h.nutritionService.List(c.Request.Context(), mustActor(c), c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, logs)
}

// Get godoc
// @Summary Get a nutrition log
// @Tags Nutrition
// @Produce json
// @Security BearerAuth
// @Param id path string true "Log ID"
// @Success 200 {object} domain.NutritionLog
// @Router /nutrition-logs/{id} [get]
func (h *NutritionHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	entry, err := h.nutritionService.Get(c.Request.Context(), mustActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, entry)
}

// Update godoc
// @Summary Update a nutrition log
// @Tags Nutrition
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Log ID"
// @Param log body NutritionLogRequest true "Fields to change"
// @Success 200 {object} domain.NutritionLog
// @Router /nutrition-logs/{id} [patch]
func (h *NutritionHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	in, ok := bindNutritionLog(c)
	if !ok {
		return
	}
	entry, err := h.nutritionService.Update(c.Request.Context(), mustActor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, entry)
}

// Delete godoc
// @Summary Delete a nutrition log
// @Tags Nutrition
// @Security BearerAuth
// @Param id path string true "Log ID"
// @Success 204
// @Router /nutrition-logs/{id} [delete]
func (h *NutritionHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.nutritionService.Delete(c.Request.Context(), mustActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
