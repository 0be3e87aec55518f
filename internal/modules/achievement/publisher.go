package achievement

import (
	"context"

	types "github.com/yungbote/obe-achievement/internal/domain"
)

// Publisher delivers achievement-changed events after the recompute that
// produced them has committed. Delivery is best effort.
type Publisher interface {
	PublishAchievementChanged(ctx context.Context, events []types.AchievementEvent) error
}

type NoopPublisher struct{}

func (NoopPublisher) PublishAchievementChanged(context.Context, []types.AchievementEvent) error {
	return nil
}
