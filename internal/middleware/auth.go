package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/thereayou/vidtube/internal/apperror"
	"github.com/thereayou/vidtube/internal/models"
	"github.com/thereayou/vidtube/pkg/auth"
)

const (
	AccountKey     = "account"
	AccessTokenKey = "accessToken"

	AccessTokenCookie = "accessToken"
)

type TokenValidator interface {
	ValidateToken(ctx context.Context, accessToken string) (*models.User, error)
}

// AuthMiddleware reads the access token from the accessToken cookie or a
// Bearer header and attaches the sanitized account to the request.
func AuthMiddleware(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(AccessTokenCookie)
		if token == "" {
			token, _ = auth.ExtractTokenFromHeader(c.Request)
		}
		if token == "" {
			_ = c.Error(apperror.Unauthorized("Unauthorized request"))
			c.Abort()
			return
		}

		user, err := v.ValidateToken(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(AccountKey, user)
		c.Set(AccessTokenKey, token)
		c.Next()
	}
}

// CurrentAccount returns the account set by AuthMiddleware.
func CurrentAccount(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(AccountKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}
