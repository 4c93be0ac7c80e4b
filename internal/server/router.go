package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/quiplabs/quip-backend/internal/handlers"
)

type RouterConfig struct {
	AllowOrigins []string

	HomeHandler      *handlers.HomeHandler
	CreateHandler    *handlers.CreateHandler
	RealtimeHandler  *handlers.RealtimeHandler
	CourseHandler    *handlers.CourseHandler
	SectionHandler   *handlers.SectionHandler
	AnalyticsHandler *handlers.AnalyticsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Requested-With"},
	}
	if len(cfg.AllowOrigins) == 0 || (len(cfg.AllowOrigins) == 1 && strings.TrimSpace(cfg.AllowOrigins[0]) == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowOrigins
		corsCfg.AllowCredentials = true
	}
	router.Use(cors.New(corsCfg))

	router.GET("/", cfg.HomeHandler.Home)
	router.GET("/healthcheck", handlers.HealthCheck)

	// Creation flow: kick off a run, then follow it on the event stream.
	router.POST("/create", cfg.CreateHandler.StartCreation)
	router.GET("/events", cfg.RealtimeHandler.Events)

	// Query surface
	router.GET("/course", cfg.CourseHandler.GetCourse)
	router.GET("/courses", cfg.CourseHandler.GetAllCourses)
	router.GET("/courses/incomplete", cfg.CourseHandler.GetIncompleteCourses)
	router.GET("/sections", cfg.CourseHandler.GetSections)
	router.GET("/sections/incomplete", cfg.CourseHandler.GetIncompleteSections)
	router.POST("/section/complete", cfg.SectionHandler.CompleteSection)
	router.GET("/analytics", cfg.AnalyticsHandler.GetAnalytics)

	return router
}
