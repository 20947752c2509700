package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/vidtube/internal/handlers/dto"
	"github.com/thereayou/vidtube/internal/middleware"
	"github.com/thereayou/vidtube/internal/services"
)

type AuthHandler struct {
	svc     services.AuthService
	cookies CookieOptions
}

func NewAuthHandler(svc services.AuthService, cookies CookieOptions) *AuthHandler {
	return &AuthHandler{svc: svc, cookies: cookies}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := bind(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.svc.Register(c.Request.Context(), services.RegisterRequest{
		FullName:       req.FullName,
		Email:          req.Email,
		Username:       req.Username,
		Password:       req.Password,
		AvatarPath:     middleware.UploadedFile(c, "avatar"),
		CoverImagePath: middleware.UploadedFile(c, "coverImage"),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusCreated, user, "User registered successfully")
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), services.LoginRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.cookies.setTokens(c, resp.AccessToken, resp.RefreshToken)
	respond(c, http.StatusOK, resp, "User logged in successfully")
}

// Logout clears the stored refresh token, revokes the presented access token
// and expires both cookies.
func (h *AuthHandler) Logout(c *gin.Context) {
	user, err := currentAccount(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.svc.Logout(c.Request.Context(), user.ID, c.GetString(middleware.AccessTokenKey)); err != nil {
		_ = c.Error(err)
		return
	}

	h.cookies.clearTokens(c)
	respond(c, http.StatusOK, gin.H{}, "User logged out")
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, _ := c.Cookie(RefreshTokenCookie)
	if token == "" {
		var req dto.RefreshTokenRequest
		if err := bind(c, &req); err != nil {
			_ = c.Error(err)
			return
		}
		token = req.RefreshToken
	}

	resp, err := h.svc.RefreshToken(c.Request.Context(), token)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.cookies.setTokens(c, resp.AccessToken, resp.RefreshToken)
	respond(c, http.StatusOK, resp, "Access token refreshed")
}
