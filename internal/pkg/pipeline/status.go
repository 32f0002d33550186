package pipeline

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/vidscribe/VidScribe/internal/pkg/cache"
)

// Cache key formats for conversion status polling.
const (
	ConvertStatusKeyFormat   = "convert:status:%s"   // Format: convert:status:<session-uuid>
	ConvertProgressKeyFormat = "convert:progress:%s" // Format: convert:progress:<session-uuid>
)

const statusTTL = 24 * time.Hour

// RedisStatusSink mirrors pipeline stage and progress into the cache so the
// status endpoint can answer without touching the session lock.
type RedisStatusSink struct{}

func (RedisStatusSink) Publish(sessionID string, stage Stage, progress int) {
	if err := cache.Set(fmt.Sprintf(ConvertStatusKeyFormat, sessionID), string(stage), statusTTL); err != nil {
		log.Warnf("[Pipeline] Failed to cache status for session %s: %v", sessionID, err)
		return
	}
	if err := cache.Set(fmt.Sprintf(ConvertProgressKeyFormat, sessionID), fmt.Sprintf("%d", progress), statusTTL); err != nil {
		log.Warnf("[Pipeline] Failed to cache progress for session %s: %v", sessionID, err)
	}
}

// GetCachedStatus retrieves the last published stage for a session.
func GetCachedStatus(sessionID string) (Stage, error) {
	raw, err := cache.Get(fmt.Sprintf(ConvertStatusKeyFormat, sessionID))
	if err != nil {
		return "", err
	}
	return Stage(raw), nil
}

// GetCachedProgress retrieves the last published progress for a session.
func GetCachedProgress(sessionID string) (int, error) {
	return cache.GetInt(fmt.Sprintf(ConvertProgressKeyFormat, sessionID))
}
