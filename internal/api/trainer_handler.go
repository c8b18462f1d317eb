package api

import (
	"net/http"

	"alcyxob/fitness-hub/internal/service"

	"github.com/gin-gonic/gin"
)

type TrainerHandler struct {
	trainerService service.TrainerService
}

func NewTrainerHandler(trainerService service.TrainerService) *TrainerHandler {
	return &TrainerHandler{trainerService: trainerService}
}

// --- DTOs ---

type TrainerProfileRequest struct {
	Bio             *string  `json:"bio"`
	Specializations []string `json:"specializations"`
	Certifications  []string `json:"certifications"`
	ExperienceYears *int     `json:"experienceYears"`
	HourlyRate      *int64   `json:"hourlyRate"`
}

func (r TrainerProfileRequest) input() service.TrainerProfileInput {
	return service.TrainerProfileInput{
		Bio:             r.Bio,
		Specializations: r.Specializations,
		Certifications:  r.Certifications,
		ExperienceYears: r.ExperienceYears,
		HourlyRate:      r.HourlyRate,
	}
}

// AddClientRequest names the client by id or by email.
type AddClientRequest struct {
	ClientID string `json:"clientId"`
	Email    string `json:"email" binding:"omitempty,email"`
}

// --- Profile Handlers ---

// CreateProfile godoc
// @Summary Become a trainer
// @Description Creates the caller's trainer profile and promotes a user to the trainer role.
// @Tags Trainers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body TrainerProfileRequest true "Profile details"
// @Success 201 {object} domain.TrainerProfile
// @Failure 400 {object} envelope "Invalid input"
// @Failure 409 {object} envelope "Profile already exists"
// @Router /trainers [post]
func (h *TrainerHandler) CreateProfile(c *gin.Context) {
	var req TrainerProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.trainerService.CreateProfile(c.Request.Context(), mustActor(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, profile)
}

// ListProfiles godoc
// @Summary List trainers
// @Description Trainer profiles, filterable with the resource query language (e.g. ?hourlyRate[lte]=5000&sort=-rating).
// @Tags Trainers
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.TrainerProfile
// @Failure 400 {object} envelope "Invalid query"
// @Router /trainers [get]
func (h *TrainerHandler) ListProfiles(c *gin.Context) {
	profiles, err := h.trainerService.ListProfiles(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, profiles)
}

// GetProfile godoc
// @Summary Get a trainer profile
// @Tags Trainers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Trainer profile ID"
// @Success 200 {object} domain.TrainerProfile
// @Failure 404 {object} envelope "Not found"
// @Router /trainers/{id} [get]
func (h *TrainerHandler) GetProfile(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	profile, err := h.trainerService.GetProfile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Update a trainer profile
// @Tags Trainers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Trainer profile ID"
// @Param profile body TrainerProfileRequest true "Fields to change"
// @Success 200 {object} domain.TrainerProfile
// @Failure 403 {object} envelope "Not the profile owner"
// @Failure 404 {object} envelope "Not found"
// @Router /trainers/{id} [patch]
func (h *TrainerHandler) UpdateProfile(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req TrainerProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := h.trainerService.UpdateProfile(c.Request.Context(), mustActor(c), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, profile)
}

// DeleteProfile godoc
// @Summary Delete a trainer profile
// @Description Removes the profile; the owner goes back to the user role.
// @Tags Trainers
// @Security BearerAuth
// @Param id path string true "Trainer profile ID"
// @Success 204
// @Failure 403 {object} envelope "Not the profile owner"
// @Failure 404 {object} envelope "Not found"
// @Router /trainers/{id} [delete]
func (h *TrainerHandler) DeleteProfile(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.trainerService.DeleteProfile(c.Request.Context(), mustActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Client Management ---

// GetClients godoc
// @Summary List a trainer's clients
// @Tags Trainers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Trainer profile ID"
// @Success 200 {array} UserResponse
// @Failure 403 {object} envelope "Not the profile owner"
// @Router /trainers/{id}/clients [get]
func (h *TrainerHandler) GetClients(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	clients, err := h.trainerService.GetClients(c.Request.Context(), mustActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, MapUsersToResponse(clients))
}

// AddClient godoc
// @Summary Add a client to the trainer's roster
// @Description Looks the client up by clientId or email.
// @Tags Trainers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Trainer profile ID"
// @Param client body AddClientRequest true "Client id or email"
// @Success 200 {object} UserResponse
// @Failure 400 {object} envelope "Invalid input"
// @Failure 404 {object} envelope "Client not found"
// @Failure 409 {object} envelope "Client has too many trainers"
// @Router /trainers/{id}/clients [post]
func (h *TrainerHandler) AddClient(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req AddClientRequest
	if !bindJSON(c, &req) {
		return
	}
	clientID, err := optionalID(req.ClientID, "clientId")
	if err != nil {
		respondError(c, err)
		return
	}
	client, err := h.trainerService.AddClient(c.Request.Context(), mustActor(c), id,
		service.ClientRef{ID: clientID, Email: req.Email})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapUserToResponse(client))
}

// RemoveClient godoc
// @Summary Remove a client from the trainer's roster
// @Tags Trainers
// @Security BearerAuth
// @Param id path string true "Trainer profile ID"
// @Param clientId path string true "Client user ID"
// @Success 204
// @Failure 404 {object} envelope "Client not on roster"
// @Router /trainers/{id}/clients/{clientId} [delete]
func (h *TrainerHandler) RemoveClient(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	clientID, ok := idParam(c, "clientId")
	if !ok {
		return
	}
	if err := h.trainerService.RemoveClient(c.Request.Context(), mustActor(c), id, clientID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
