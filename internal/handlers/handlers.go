package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"listinghub/internal/config"
	"listinghub/internal/middleware"
	"listinghub/internal/models"
	"listinghub/internal/service"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Users    *service.UserService
	Listings *service.ListingService
	Admin    *service.AdminService
	Uploads  *service.UploadService
}

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	users    *service.UserService
	listings *service.ListingService
	admin    *service.AdminService
	uploads  *service.UploadService
	checks   []HealthCheck
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, svc Services, checks ...HealthCheck) HandlerSet {
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		users:    svc.Users,
		listings: svc.Listings,
		admin:    svc.Admin,
		uploads:  svc.Uploads,
		checks:   checks,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	authenticated := middleware.Auth(h.cfg.Security.JWTSecret)

	listings := router.Group("/listings")
	{
		listings.GET("", h.ListListings)
		listings.GET("/:id", h.GetListing)
		listings.POST("", authenticated, h.CreateListing)
		listings.PATCH("/:id", authenticated, h.UpdateListing)
		listings.DELETE("/:id", authenticated, h.DeleteListing)
	}

	users := router.Group("/users")
	{
		users.POST("/register", h.RegisterUser)
		users.POST("/login", h.Login)
		users.GET("/profile", authenticated, h.Profile)
		users.PATCH("/profile", authenticated, h.UpdateProfile)
	}

	admin := router.Group("/admin")
	admin.Use(
		authenticated,
		middleware.RequireRoles(models.UserRoleAdmin),
	)
	admin.GET("/listings", h.AdminListListings)
	admin.PATCH("/listings/:id", h.AdminUpdateListing)
	admin.DELETE("/listings/:id", h.AdminDeleteListing)
}
