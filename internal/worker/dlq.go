package worker

// Dead letter queue: one Redis list per source queue, dlq:{queue}.
// Jobs land here after MaxAttempts failures or when no handler knows their
// type. Redrive puts them back once the cause is fixed.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

type DLQEntry struct {
	Queue    string    `json:"queue"`
	Job      Job       `json:"job"`
	Reason   string    `json:"reason"`
	FailedAt time.Time `json:"failed_at"`
}

// SendToDLQ parks job for inspection. Failing to park it is logged, not
// returned: the pool has nothing better to do with the job either way.
func SendToDLQ(ctx context.Context, rdb ListClient, queue string, job Job, reason string) {
	data, err := json.Marshal(DLQEntry{Queue: queue, Job: job, Reason: reason, FailedAt: time.Now().UTC()})
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: marshal entry")
		return
	}
	if err := rdb.LPush(ctx, DLQPrefix+queue, data).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Str("job_type", job.Type).Msg("dlq: push")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("job_type", job.Type).
		Int("attempts", job.Attempts).
		Str("reason", reason).
		Msg("dlq: job parked")
}

// DLQLength is reported on /health.
func DLQLength(ctx context.Context, rdb ListClient, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// Redrive moves up to max parked jobs back onto their queue, oldest first,
// with a fresh attempt budget. It returns how many were moved.
func Redrive(ctx context.Context, rdb ListClient, queue string, max int) (int, error) {
	moved := 0
	for moved < max {
		raw, err := rdb.RPop(ctx, DLQPrefix+queue).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return moved, fmt.Errorf("pop %s: %w", DLQPrefix+queue, err)
		}

		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Str("queue", queue).Msg("dlq: dropping unreadable entry")
			continue
		}
		job := entry.Job
		job.Attempts = 0
		if err := push(ctx, rdb, queue, job); err != nil {
			// put it back where it was so nothing is lost
			_ = rdb.RPush(ctx, DLQPrefix+queue, raw).Err()
			return moved, fmt.Errorf("requeue %s: %w", queue, err)
		}
		moved++
	}
	if moved > 0 {
		log.Info().Str("queue", queue).Int("jobs", moved).Msg("dlq: redriven")
	}
	return moved, nil
}
