package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/obe-achievement/internal/domain"
	"github.com/yungbote/obe-achievement/internal/platform/logger"
)

// AchievementBus fans achievement-changed events out over Redis pub/sub.
// Delivery is at most once; subscribers that need every change re-read the
// stored achievements.
type AchievementBus interface {
	PublishAchievementChanged(ctx context.Context, events []types.AchievementEvent) error
	StartForwarder(ctx context.Context, onEvent func(ev types.AchievementEvent)) error
	Client() goredis.UniversalClient
	Close() error
}

type Options struct {
	Addr        string
	Password    string
	DB          int
	Channel     string
	DialTimeout time.Duration
}

type achievementBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewAchievementBus(log *logger.Logger, opts Options) (AchievementBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	ch := strings.TrimSpace(opts.Channel)
	if ch == "" {
		ch = "obe.achievement.changed"
	}
	dial := opts.DialTimeout
	if dial <= 0 {
		dial = 5 * time.Second
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: dial,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dial)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &achievementBus{
		log:     log.With("service", "RedisAchievementBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

// PublishAchievementChanged sends one message per event in a single pipeline.
func (b *achievementBus) PublishAchievementChanged(ctx context.Context, events []types.AchievementEvent) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis achievement bus not initialized")
	}
	if len(events) == 0 {
		return nil
	}
	payloads := make([][]byte, 0, len(events))
	for _, ev := range events {
		raw, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		payloads = append(payloads, raw)
	}
	_, err := b.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		for _, raw := range payloads {
			p.Publish(ctx, b.channel, raw)
		}
		return nil
	})
	return err
}

func (b *achievementBus) StartForwarder(ctx context.Context, onEvent func(ev types.AchievementEvent)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis achievement bus not initialized")
	}
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var ev types.AchievementEvent
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.Warn("bad achievement event payload", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()
	return nil
}

func (b *achievementBus) Client() goredis.UniversalClient {
	if b == nil {
		return nil
	}
	return b.rdb
}

func (b *achievementBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
