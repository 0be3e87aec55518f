package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/obe-achievement/internal/http"
	"github.com/yungbote/obe-achievement/internal/observability"
	"github.com/yungbote/obe-achievement/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		HealthHandler:      handlers.Health,
		AchievementHandler: handlers.Achievement,
		Metrics:            metrics,
		Log:                log,
		CORSOrigins:        cfg.CORSAllowedOrigins,
	})
}
