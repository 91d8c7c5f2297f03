package main

import (
	"net/http"
	"time"

	"eventdesk/data/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (app *application) routes() http.Handler {
	if !app.Config.isDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(app.requestLogger())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AddAllowHeaders("Authorization", requestIDHeader)
	corsCfg.AddExposeHeaders(requestIDHeader)
	router.Use(cors.New(corsCfg))

	loginLimiter := newRateLimiter(app.Config.LoginRPS, app.Config.LoginBurst, 10*time.Minute)

	v1 := router.Group("/v1")
	v1.POST("/users", app.registerUser)
	v1.POST("/auth/login", app.limitByIP(loginLimiter), app.login)
	v1.GET("/events", app.listEvents)
	v1.GET("/events/:id", app.getEvent)
	v1.GET("/events/:id/sessions", app.listSessions)

	auth := v1.Group("", app.requireAuth())

	auth.GET("/users/me", app.getMe)
	auth.PUT("/users/me", app.updateMe)
	auth.DELETE("/users/me", app.deleteMe)
	auth.PUT("/users/me/password", app.changePassword)

	auth.POST("/events", app.requireRole(models.RoleOrganizer), app.createEvent)
	auth.PUT("/events/:id", app.updateEvent)
	auth.DELETE("/events/:id", app.deleteEvent)
	auth.POST("/events/:id/sessions", app.addSession)
	auth.PUT("/sessions/:id", app.updateSession)
	auth.DELETE("/sessions/:id", app.deleteSession)

	auth.GET("/events/:id/registrations", app.listRegistrations)
	auth.POST("/events/:id/registration", app.registerForEvent)
	auth.DELETE("/events/:id/registration", app.cancelRegistration)

	auth.GET("/me/events", app.myEvents)
	auth.GET("/me/registrations", app.myRegistrations)

	auth.GET("/notifications", app.listNotifications)
	auth.GET("/notifications/unread-count", app.unreadCount)
	auth.PATCH("/notifications/:id", app.setReadStatus)
	auth.DELETE("/notifications/read", app.clearRead)
	auth.DELETE("/notifications/:id", app.deleteNotification)

	router.GET("/healthz", app.healthz)

	return router
}
