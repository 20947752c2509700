package main

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/thereayou/vidtube/internal/config"
	"github.com/thereayou/vidtube/internal/handlers"
	"github.com/thereayou/vidtube/internal/logging"
	"github.com/thereayou/vidtube/internal/middleware"
	"github.com/thereayou/vidtube/internal/services"
)

type routeDeps struct {
	auth    *handlers.AuthHandler
	user    *handlers.UserHandler
	authMW  gin.HandlerFunc
	uploads middleware.UploadOptions
}

func APIEndpoints(r *gin.Engine, basePath string, d routeDeps) {
	api := r.Group(basePath)
	{
		api.POST("/register",
			middleware.Uploads(d.uploads,
				middleware.UploadField{Name: "avatar", MaxCount: 1},
				middleware.UploadField{Name: "coverImage", MaxCount: 1},
			),
			d.auth.Register,
		)
		api.POST("/login", d.auth.Login)
		api.POST("/refresh-token", d.auth.RefreshToken)
	}

	secure := api.Group("", d.authMW)
	{
		secure.POST("/logout", d.auth.Logout)
		secure.POST("/change-password", d.user.ChangePassword)
		secure.POST("/user", d.user.CurrentUser)
		secure.PATCH("/update-account", d.user.UpdateAccount)
		secure.PATCH("/update-avatar",
			middleware.Uploads(d.uploads, middleware.UploadField{Name: "avatar", MaxCount: 1}),
			d.user.UpdateAvatar,
		)
		secure.PATCH("/update-coverImage",
			middleware.Uploads(d.uploads, middleware.UploadField{Name: "coverImage", MaxCount: 1}),
			d.user.UpdateCoverImage,
		)
		secure.GET("/c/:username", d.user.ChannelProfile)
		secure.GET("/watch-history", d.user.WatchHistory)
	}
}

func newRouter(cfg *config.Config, log logging.Logger, svc services.AccountService) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(log),
		cors.New(corsConfig(cfg.CORSOrigin)),
		middleware.ErrorHandler(log),
	)

	cookies := handlers.CookieOptions{
		Domain:        cfg.CookieDomain,
		Secure:        cfg.CookieSecure,
		AccessMaxAge:  cfg.AccessTokenExpiry,
		RefreshMaxAge: cfg.RefreshTokenExpiry,
	}

	APIEndpoints(r, cfg.APIBasePath, routeDeps{
		auth:   handlers.NewAuthHandler(svc, cookies),
		user:   handlers.NewUserHandler(svc),
		authMW: middleware.AuthMiddleware(svc),
		uploads: middleware.UploadOptions{
			Dir:      cfg.UploadDir,
			MaxBytes: cfg.MaxUploadBytes,
		},
	})
	return r
}

// Cookies need credentialed CORS, which rules out a literal "*" origin, so
// "*" echoes the caller's origin instead.
func corsConfig(origin string) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	if origin == "" || origin == "*" {
		c.AllowOriginFunc = func(string) bool { return true }
		return c
	}
	for _, o := range strings.Split(origin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			c.AllowOrigins = append(c.AllowOrigins, o)
		}
	}
	return c
}
