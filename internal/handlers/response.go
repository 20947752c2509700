package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/vidtube/internal/apperror"
	"github.com/thereayou/vidtube/internal/middleware"
	"github.com/thereayou/vidtube/internal/models"
)

const RefreshTokenCookie = "refreshToken"

type APIResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, APIResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

// bind decodes the body by content type. An empty body is not an error.
func bind(c *gin.Context, obj any) error {
	if err := c.ShouldBind(obj); err != nil && !errors.Is(err, io.EOF) {
		return apperror.Validation("Invalid request body").WithDetails(err.Error())
	}
	return nil
}

func currentAccount(c *gin.Context) (*models.User, error) {
	user, ok := middleware.CurrentAccount(c)
	if !ok {
		return nil, apperror.Unauthorized("Unauthorized request")
	}
	return user, nil
}

type CookieOptions struct {
	Domain        string
	Secure        bool
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
}

func (o CookieOptions) setTokens(c *gin.Context, access, refresh string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, access, int(o.AccessMaxAge.Seconds()), "/", o.Domain, o.Secure, true)
	c.SetCookie(RefreshTokenCookie, refresh, int(o.RefreshMaxAge.Seconds()), "/", o.Domain, o.Secure, true)
}

func (o CookieOptions) clearTokens(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", o.Domain, o.Secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", o.Domain, o.Secure, true)
}
