package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/obe-achievement/internal/data/aggregates"
	"github.com/yungbote/obe-achievement/internal/modules/achievement"
	"github.com/yungbote/obe-achievement/internal/observability"
	"github.com/yungbote/obe-achievement/internal/platform/logger"
	"github.com/yungbote/obe-achievement/internal/services"
)

type Services struct {
	Engine       *achievement.Engine
	Achievements services.AchievementService
}

func wireEngine(db *gorm.DB, log *logger.Logger, cfg Config, reposet achievement.Repos, pub achievement.Publisher, metrics *observability.Metrics) *achievement.Engine {
	return achievement.NewEngine(achievement.Deps{
		DB:        db,
		Log:       log,
		Repos:     reposet,
		Runner:    aggregates.NewGormTxRunner(db),
		Hooks:     aggregates.NewObservabilityHooks(metrics),
		Publisher: pub,
		Metrics:   metrics,
		Config:    cfg.Achievement,
	})
}

func wireServices(log *logger.Logger, engine *achievement.Engine) Services {
	log.Info("Wiring services...")
	return Services{
		Engine:       engine,
		Achievements: services.NewAchievementService(engine, log),
	}
}
