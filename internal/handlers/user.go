package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/vidtube/internal/handlers/dto"
	"github.com/thereayou/vidtube/internal/middleware"
	"github.com/thereayou/vidtube/internal/models"
	"github.com/thereayou/vidtube/internal/services"
)

type UserHandler struct {
	svc services.AccountService
}

func NewUserHandler(svc services.AccountService) *UserHandler {
	return &UserHandler{svc: svc}
}

// CurrentUser returns the account attached by the auth middleware.
func (h *UserHandler) CurrentUser(c *gin.Context) {
	user, err := currentAccount(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, user, "Current user fetched successfully")
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	user, err := currentAccount(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req dto.ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, gin.H{}, "Password changed successfully")
}

func (h *UserHandler) UpdateAccount(c *gin.Context) {
	user, err := currentAccount(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req dto.UpdateAccountRequest
	if err := bind(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	updated, err := h.svc.UpdateAccount(c.Request.Context(), user.ID, services.UpdateAccountRequest{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, updated, "Account details updated successfully")
}

func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	user, err := currentAccount(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	updated, err := h.svc.UpdateAvatar(c.Request.Context(), user.ID, middleware.UploadedFile(c, "avatar"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, updated, "Avatar updated successfully")
}

func (h *UserHandler) UpdateCoverImage(c *gin.Context) {
	user, err := currentAccount(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	updated, err := h.svc.UpdateCoverImage(c.Request.Context(), user.ID, middleware.UploadedFile(c, "coverImage"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, updated, "Cover image updated successfully")
}

func (h *UserHandler) ChannelProfile(c *gin.Context) {
	user, err := currentAccount(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	profile, err := h.svc.ChannelProfile(c.Request.Context(), c.Param("username"), user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, profile, "User channel fetched successfully")
}

func (h *UserHandler) WatchHistory(c *gin.Context) {
	user, err := currentAccount(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	videos, err := h.svc.WatchHistory(c.Request.Context(), user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if videos == nil {
		videos = []models.WatchedVideo{}
	}
	respond(c, http.StatusOK, videos, "Watch history fetched successfully")
}
