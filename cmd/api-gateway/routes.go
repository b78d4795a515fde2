package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/vnvodich/tutor-api/internal/handler"
	"github.com/vnvodich/tutor-api/internal/middleware"
	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/pkg/config"
	"github.com/vnvodich/tutor-api/pkg/logger"
	corsmiddleware "github.com/vnvodich/tutor-api/pkg/middleware/cors"
	"github.com/vnvodich/tutor-api/pkg/middleware/ratelimit"
	reqidmiddleware "github.com/vnvodich/tutor-api/pkg/middleware/requestid"
)

type handlers struct {
	auth         *handler.AuthHandler
	users        *handler.UserHandler
	tutors       *handler.TutorHandler
	courses      *handler.CourseHandler
	availability *handler.AvailabilityHandler
	children     *handler.ChildHandler
	bookings     *handler.BookingHandler
	sessions     *handler.SessionHandler
	reviews      *handler.ReviewHandler
	payments     *handler.PaymentHandler
	refunds      *handler.RefundHandler
	metrics      *handler.MetricsHandler
}

type routerDeps struct {
	tokens   middleware.TokenValidator
	observer middleware.RequestObserver
	audit    middleware.AuditWriter
	limiter  *ratelimit.Limiter
}

// userOrIP keys the rate limiter by account when the caller is authenticated.
func userOrIP(c *gin.Context) string {
	if claims := middleware.CurrentClaims(c); claims != nil {
		return "user:" + claims.UserID
	}
	return "ip:" + ratelimit.ClientIP(c)
}

func newRouter(cfg *config.Config, h handlers, deps routerDeps, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(log))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if deps.observer != nil {
		r.Use(middleware.Metrics(deps.observer))
	}
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	limited := func(scope string) gin.HandlerFunc {
		if deps.limiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return deps.limiter.Middleware(scope, userOrIP)
	}

	api := r.Group(cfg.APIPrefix)
	authRequired := middleware.JWT(deps.tokens)
	tutorOnly := middleware.RequireRoles(models.RoleTutor)
	parentOnly := middleware.RequireRoles(models.RoleParent)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	auth := api.Group("/auth")
	auth.POST("/register", h.auth.Register)
	auth.POST("/login", h.auth.Login)
	auth.POST("/refresh", h.auth.Refresh)
	auth.POST("/logout", authRequired, h.auth.Logout)
	auth.PUT("/password", authRequired, h.auth.ChangePassword)
	auth.GET("/me", authRequired, h.auth.Me)

	tutors := api.Group("/tutors")
	tutors.GET("", h.tutors.List)
	tutors.GET("/:id", h.tutors.Get)
	tutors.GET("/:id/reviews", h.reviews.ListTutor)
	tutors.GET("/:id/availability", h.availability.GetTutor)
	tutors.PUT("/me", authRequired, tutorOnly, h.tutors.UpdateMe)
	tutors.PUT("/me/availability", authRequired, tutorOnly, h.availability.UpdateMine)
	tutors.POST("/:id/reviews", authRequired, parentOnly, h.reviews.AddTutor)

	courses := api.Group("/courses")
	courses.GET("", h.courses.List)
	courses.GET("/:id", h.courses.Get)
	courses.GET("/:id/reviews", h.reviews.ListCourse)
	courses.GET("/:id/availability", h.availability.GetCourse)
	courses.POST("", authRequired, tutorOnly, h.courses.Create)
	courses.PUT("/:id", authRequired, tutorOnly, h.courses.Update)
	courses.DELETE("/:id", authRequired, middleware.RequireRoles(models.RoleTutor, models.RoleAdmin), h.courses.Delete)
	courses.POST("/:id/lessons", authRequired, tutorOnly, h.courses.AddLesson)
	courses.PUT("/:id/lessons/:lessonId", authRequired, tutorOnly, h.courses.UpdateLesson)
	courses.DELETE("/:id/lessons/:lessonId", authRequired, tutorOnly, h.courses.DeleteLesson)
	courses.POST("/:id/reviews", authRequired, parentOnly, h.reviews.AddCourse)

	payments := api.Group("/payments")
	payments.POST("/webhook", h.payments.Webhook)
	payments.POST("/intent", authRequired, parentOnly, limited("payment_intent"), h.payments.CreateIntent)

	payouts := api.Group("/payouts", authRequired, tutorOnly)
	payouts.POST("/connect", h.payments.ConnectPayouts)
	payouts.GET("/status", h.payments.PayoutStatus)

	children := api.Group("/children", authRequired, parentOnly)
	children.GET("", h.children.List)
	children.POST("", h.children.Create)
	children.PUT("/:id", h.children.Update)
	children.DELETE("/:id", h.children.Delete)

	bookings := api.Group("/bookings", authRequired, parentOnly)
	bookings.GET("", h.bookings.List)
	bookings.POST("/trial", limited("booking"), h.bookings.CreateTrial)

	sessions := api.Group("/sessions", authRequired)
	sessions.GET("", h.sessions.List)
	sessions.GET("/export", h.sessions.Export)
	sessionEditors := middleware.RequireRoles(models.RoleTutor, models.RoleParent)
	sessions.PUT("/:id", sessionEditors, h.sessions.Update)
	sessions.PUT("/:id/reschedule", sessionEditors, h.sessions.Reschedule)

	api.POST("/refunds", authRequired, parentOnly, h.refunds.Create)
	refunds := api.Group("/refunds", authRequired, adminOnly)
	refunds.GET("", h.refunds.List)
	refunds.GET("/statistics", h.refunds.Statistics)
	refunds.GET("/:id", h.refunds.Get)
	refunds.PUT("/:id/process", middleware.Audit(deps.audit, log, models.AuditActionRefundProcess, "refund_request"), h.refunds.Process)

	users := api.Group("/users", authRequired, adminOnly)
	users.GET("", h.users.List)
	users.GET("/:id", h.users.Get)
	users.PATCH("/:id/active", h.users.SetActive)

	return r
}
