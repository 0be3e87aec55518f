package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/obe-achievement/internal/http/handlers"
	httpMW "github.com/yungbote/obe-achievement/internal/http/middleware"
	"github.com/yungbote/obe-achievement/internal/observability"
	"github.com/yungbote/obe-achievement/internal/platform/logger"
)

const serviceName = "obe-achievement"

type RouterConfig struct {
	HealthHandler      *httpH.HealthHandler
	AchievementHandler *httpH.AchievementHandler

	Metrics     *observability.Metrics
	Log         *logger.Logger
	CORSOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	if cfg.Metrics != nil {
		r.Use(httpMW.Metrics(cfg.Metrics))
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	if h := cfg.AchievementHandler; h != nil {
		// Enrollments
		api.GET("/enrollments/:id/course-outcomes/:outcome_id", h.GetCourseOutcome)
		api.GET("/enrollments/:id/program-outcomes/:outcome_id", h.GetProgramOutcome)
		api.GET("/enrollments/:id/report", h.GetReport)
		api.POST("/enrollments/:id/scores", h.RecordScore)
		api.POST("/enrollments/:id/recompute", h.RecomputeEnrollment)

		// Class sections
		api.POST("/class-sections/:id/recompute", h.RecomputeClassSection)
		api.GET("/class-sections/:id/course-outcomes/:outcome_id/components", h.ListComponents)

		// Course plans
		api.GET("/course-plans/:id/thresholds", h.GetThresholds)
		api.PUT("/course-plans/:id/thresholds/:scope", h.SetThreshold)
	}

	return r
}
