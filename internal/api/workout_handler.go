package api

import (
	"net/http"
	"time"

	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/service"

	"github.com/gin-gonic/gin"
)

type WorkoutHandler struct {
	workoutService service.WorkoutService
}

func NewWorkoutHandler(workoutService service.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{workoutService: workoutService}
}

type WorkoutRequest struct {
	UserID         string                 `json:"userId"`
	Name           *string                `json:"name"`
	Type           *string                `json:"type"`
	Date           *time.Time             `json:"date"`
	Duration       *int                   `json:"duration"`
	CaloriesBurned *int                   `json:"caloriesBurned"`
	Exercises      []domain.ExerciseEntry `json:"exercises"`
	Notes          *string                `json:"notes"`
}

func bindWorkout(c *gin.Context) (service.WorkoutInput, bool) {
	var req WorkoutRequest
	if !bindJSON(c, &req) {
		return service.WorkoutInput{}, false
	}
	userID, err := optionalID(req.UserID, "userId")
	if err != nil {
		respondError(c, err)
		return service.WorkoutInput{}, false
	}
	return service.WorkoutInput{
		UserID:         userID,
		Name:           req.Name,
		Type:           req.Type,
		Date:           req.Date,
		Duration:       req.Duration,
		CaloriesBurned: req.CaloriesBurned,
		Exercises:      req.Exercises,
		Notes:          req.Notes,
	}, true
}

// Create godoc
// @Summary Log a workout
// @Description Trainers may log a workout for one of their clients by passing userId.
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workout body WorkoutRequest true "Workout"
// @Success 201 {object} domain.Workout
// @Router /workouts [post]
func (h *WorkoutHandler) Create(c *gin.Context) {
	in, ok := bindWorkout(c)
	if !ok {
		return
	}
	w, err := h.workoutService.Create(c.Request.Context(), mustActor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, w)
}

// List godoc
// @Summary List workouts
// @Description e.g. ?duration[gte]=30&sort=-date&fields=name,date&page=2&limit=10
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Workout
// @Router /workouts [get]
func (h *WorkoutHandler) List(c *gin.Context) {
	workouts, err := h.workoutService.List(c.Request.Context(), mustActor(c), c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, workouts)
}

// Get godoc
// @Summary Get a workout
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workout ID"
// @Success 200 {object} domain.Workout
// @Router /workouts/{id} [get]
func (h *WorkoutHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	w, err := h.workoutService.Get(c.Request.Context(), mustActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, w)
}

// Update godoc
// @Summary Update a workout
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workout ID"
// @Param workout body WorkoutRequest true "Fields to change"
// @Success 200 {object} domain.Workout
// @Router /workouts/{id} [patch]
func (h *WorkoutHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	in, ok := bindWorkout(c)
	if !ok {
		return
	}
	w, err := h.workoutService.Update(c.Request.Context(), mustActor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, w)
}

// Delete godoc
// @Summary Delete a workout
// @Tags Workouts
// @Security BearerAuth
// @Param id path string true "Workout ID"
// @Success 204
// @Router /workouts/{id} [delete]
func (h *WorkoutHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.workoutService.Delete(c.Request.Context(), mustActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
