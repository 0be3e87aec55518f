package app

import (
	httpH "github.com/yungbote/obe-achievement/internal/http/handlers"
	"github.com/yungbote/obe-achievement/internal/platform/logger"
)

type Handlers struct {
	Health      *httpH.HealthHandler
	Achievement *httpH.AchievementHandler
}

func wireHandlers(log *logger.Logger, pinger httpH.Pinger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(pinger),
		Achievement: httpH.NewAchievementHandler(services.Achievements),
	}
}
