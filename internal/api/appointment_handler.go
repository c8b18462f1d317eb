package api

import (
	"net/http"
	"time"

	"alcyxob/fitness-hub/internal/domain"
	"alcyxob/fitness-hub/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AppointmentHandler struct {
	appointmentService service.AppointmentService
}

func NewAppointmentHandler(appointmentService service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointmentService: appointmentService}
}

// AppointmentRequest is used for create and patch. UserID lets a trainer or
// admin book on behalf of a user.
type AppointmentRequest struct {
	UserID    string                    `json:"userId"`
	TrainerID *string                   `json:"trainerId"`
	Date      *time.Time                `json:"date"`
	Duration  *int                      `json:"duration"`
	Type      *string                   `json:"type"`
	Location  *string                   `json:"location"`
	Notes     *string                   `json:"notes"`
	Price     *int64                    `json:"price"`
	Status    *domain.AppointmentStatus `json:"status"`
}

func (r AppointmentRequest) input() (service.AppointmentInput, error) {
	in := service.AppointmentInput{
		Date:     r.Date,
		Duration: r.Duration,
		Type:     r.Type,
		Location: r.Location,
		Notes:    r.Notes,
		Price:    r.Price,
		Status:   r.Status,
	}
	var err error
	if in.UserID, err = optionalID(r.UserID, "userId"); err != nil {
		return in, err
	}
	if r.TrainerID != nil {
		trainerID, err := primitive.ObjectIDFromHex(*r.TrainerID)
		if err != nil {
			return in, domain.Validationf("trainerId is not a valid id")
		}
		in.TrainerID = &trainerID
	}
	return in, nil
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

type FeedbackRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// bindAppointment decodes and converts an AppointmentRequest.
func bindAppointment(c *gin.Context) (service.AppointmentInput, bool) {
	var req AppointmentRequest
	if !bindJSON(c, &req) {
		return service.AppointmentInput{}, false
	}
	in, err := req.input()
	if err != nil {
		respondError(c, err)
		return in, false
	}
	return in, true
}

// Create godoc
// @Summary Book an appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param appointment body AppointmentRequest true "Appointment details"
// @Success 201 {object} domain.Appointment
// @Failure 400 {object} envelope "Invalid input"
// @Failure 403 {object} envelope "Cannot book for this user"
// @Router /appointments [post]
func (h *AppointmentHandler) Create(c *gin.Context) {
	in, ok := bindAppointment(c)
	if !ok {
		return
	}
	appt, err := h.appointmentService.Create(c.Request.Context(), mustActor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, appt)
}

// List godoc
// @Summary List appointments
// @Description Appointments visible to the caller, filterable with the resource query language.
// @Tags Appointments
// @Produce json
// @Security BearerAuth
// @Param userId query string false "Owner to list for (trainers and admins)"
// @Success 200 {array} domain.Appointment
// @Failure 400 {object} envelope "Invalid query"
// @Failure 403 {object} envelope "Not allowed to read this user's appointments"
// @Router /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	appts, err := h.appointmentService.List(c.Request.Context(), mustActor(c), c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, appts)
}

// Get godoc
// @Summary Get an appointment
// @Tags Appointments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 200 {object} domain.Appointment
// @Failure 403 {object} envelope "Forbidden"
// @Failure 404 {object} envelope "Not found"
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	appt, err := h.appointmentService.Get(c.Request.Context(), mustActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, appt)
}

// Update godoc
// @Summary Update an appointment
// @Description The assigned trainer may change only the status.
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Param appointment body AppointmentRequest true "Fields to change"
// @Success 200 {object} domain.Appointment
// @Failure 403 {object} envelope "Forbidden"
// @Failure 404 {object} envelope "Not found"
// @Router /appointments/{id} [patch]
func (h *AppointmentHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	in, ok := bindAppointment(c)
	if !ok {
		return
	}
	appt, err := h.appointmentService.Update(c.Request.Context(), mustActor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, appt)
}

// Delete godoc
// @Summary Delete an appointment
// @Tags Appointments
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Success 204
// @Failure 403 {object} envelope "Forbidden"
// @Failure 404 {object} envelope "Not found"
// @Router /appointments/{id} [delete]
func (h *AppointmentHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.appointmentService.Delete(c.Request.Context(), mustActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Cancel godoc
// @Summary Cancel an appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Param cancel body CancelAppointmentRequest false "Reason"
// @Success 200 {object} domain.Appointment
// @Failure 409 {object} envelope "Already completed or canceled"
// @Router /appointments/{id}/cancel [patch]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req CancelAppointmentRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	appt, err := h.appointmentService.Cancel(c.Request.Context(), mustActor(c), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, appt)
}

// SubmitFeedback godoc
// @Summary Rate a completed appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID"
// @Param feedback body FeedbackRequest true "Rating 1-5 and comment"
// @Success 200 {object} domain.Appointment
// @Failure 400 {object} envelope "Rating out of range"
// @Failure 409 {object} envelope "Appointment not completed"
// @Router /appointments/{id}/feedback [post]
func (h *AppointmentHandler) SubmitFeedback(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req FeedbackRequest
	if !bindJSON(c, &req) {
		return
	}
	appt, err := h.appointmentService.SubmitFeedback(c.Request.Context(), mustActor(c), id, req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, appt)
}
