package session

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/playpool/cuesim/internal/config"
	"github.com/playpool/cuesim/internal/logging"
)

// IdleKey is the sorted set of live sessions scored by last activity (unix seconds).
const IdleKey = "session_idle"

// IdleTracker records session activity and reports sessions that went quiet
type IdleTracker struct {
	rdb        *redis.Client
	abortAfter time.Duration
	poll       time.Duration
	log        zerolog.Logger
}

func NewIdleTracker(rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *IdleTracker {
	return &IdleTracker{
		rdb:        rdb,
		abortAfter: time.Duration(cfg.IdleAbortSeconds) * time.Second,
		poll:       time.Duration(cfg.IdlePollSeconds) * time.Second,
		log:        logging.Component(log, "idle"),
	}
}

func (t *IdleTracker) Touch(ctx context.Context, sessionID string) error {
	return t.rdb.ZAdd(ctx, IdleKey, redis.Z{Score: float64(time.Now().Unix()), Member: sessionID}).Err()
}

func (t *IdleTracker) Forget(ctx context.Context, sessionID string) error {
	return t.rdb.ZRem(ctx, IdleKey, sessionID).Err()
}

// Run polls for sessions idle past the abort threshold until ctx is done. Each
// expired session is claimed with ZREM first, so with several instances polling
// only one of them calls onIdle.
func (t *IdleTracker) Run(ctx context.Context, onIdle func(ctx context.Context, sessionID string)) {
	if t.poll <= 0 || t.abortAfter <= 0 {
		t.log.Warn().Msg("idle abort disabled")
		return
	}

	t.log.Info().Dur("abort_after", t.abortAfter).Msg("idle worker started")
	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.log.Info().Msg("idle worker stopping")
			return
		case now := <-ticker.C:
			members, err := t.rdb.ZRangeByScore(ctx, IdleKey, &redis.ZRangeBy{
				Min: "-inf",
				Max: idleCutoff(now, t.abortAfter),
			}).Result()
			if err != nil {
				t.log.Error().Err(err).Msg("fetch idle sessions")
				continue
			}
			for _, id := range members {
				removed, err := t.rdb.ZRem(ctx, IdleKey, id).Result()
				if err != nil || removed == 0 {
					continue
				}
				t.log.Info().Str("session", id).Msg("aborting idle session")
				onIdle(ctx, id)
			}
		}
	}
}

// idleCutoff is the highest last-activity score that counts as idle at now.
func idleCutoff(now time.Time, after time.Duration) string {
	return strconv.FormatInt(now.Add(-after).Unix(), 10)
}
