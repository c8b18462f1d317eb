package api

import (
	"net/http"

	"alcyxob/fitness-hub/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type UpdateMeRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1"`
	Phone *string `json:"phone"`
}

type AvatarUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// Me godoc
// @Summary Current user
// @Description Returns the caller's account with a short-lived avatar URL.
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Profile
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	profile, err := h.userService.Me(c.Request.Context(), mustActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := MapUserToResponse(profile.User)
	resp.AvatarURL = profile.AvatarURL
	respond(c, http.StatusOK, resp)
}

// UpdateMe godoc
// @Summary Update the current user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param user body UpdateMeRequest true "Fields to change"
// @Success 200 {object} UserResponse
// @Failure 400 {object} envelope "Invalid input"
// @Router /users/me [patch]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req UpdateMeRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.UpdateMe(c.Request.Context(), mustActor(c), service.UserUpdate{Name: req.Name, Phone: req.Phone})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapUserToResponse(user))
}

// CreateAvatarUpload godoc
// @Summary Request an avatar upload URL
// @Description Returns a presigned PUT URL; the client uploads the image directly.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param upload body AvatarUploadRequest true "Image content type"
// @Success 200 {object} service.AvatarUpload
// @Failure 400 {object} envelope "Unsupported content type"
// @Failure 502 {object} envelope "Storage unavailable"
// @Router /users/me/avatar [post]
func (h *UserHandler) CreateAvatarUpload(c *gin.Context) {
	var req AvatarUploadRequest
	if !bindJSON(c, &req) {
		return
	}
	upload, err := h.userService.CreateAvatarUpload(c.Request.Context(), mustActor(c), req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, upload)
}

// List godoc
// @Summary List users (admin)
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Failure 403 {object} envelope "Admin only"
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context(), mustActor(c), c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, MapUsersToResponse(users))
}

// Get godoc
// @Summary Get a user
// @Description Readable by the user, an admin, or the user's trainer.
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} UserResponse
// @Failure 403 {object} envelope "Not yourself"
// @Failure 404 {object} envelope "Not found"
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	user, err := h.userService.Get(c.Request.Context(), mustActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, MapUserToResponse(user))
}

// Delete godoc
// @Summary Delete a user (admin)
// @Tags Users
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Failure 403 {object} envelope "Admin only"
// @Failure 404 {object} envelope "Not found"
// @Router /users/{id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.userService.Delete(c.Request.Context(), mustActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
