package worker

// digest_cron.go
// Background goroutine that periodically enqueues an insights digest job for
// every business with a digest email. Several API replicas may run the cron;
// a Redis lock held for half the interval lets only one of them enqueue per
// tick.

import (
	"context"
	"errors"
	"time"

	"shelfwise/internal/infra"
	"shelfwise/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const digestLockKey = "lock:insights_digest_cron"

// DigestEnqueuer is satisfied by *Dispatcher.
type DigestEnqueuer interface {
	EnqueueDigest(ctx context.Context, businessID uuid.UUID) error
}

// DigestCronConfig holds all dependencies for the digest goroutine.
type DigestCronConfig struct {
	Businesses repository.BusinessRepository
	Dispatcher DigestEnqueuer
	Locker     infra.Locker
	Interval   time.Duration
}

// StartDigestCron launches a goroutine that ticks every cfg.Interval and
// enqueues digests. It respects the context for graceful shutdown.
func StartDigestCron(ctx context.Context, cfg DigestCronConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("digest_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("digest_cron: shutting down")
				return
			case <-ticker.C:
				enqueueDigests(ctx, cfg)
			}
		}
	}()
}

// enqueueDigests returns how many digest jobs were enqueued on this tick.
func enqueueDigests(ctx context.Context, cfg DigestCronConfig) int {
	// The lock is left to expire so a replica ticking moments later skips.
	if _, err := cfg.Locker.Obtain(ctx, digestLockKey, cfg.Interval/2); err != nil {
		if errors.Is(err, infra.ErrLockNotObtained) {
			log.Debug().Msg("digest_cron: another instance owns this tick")
		} else {
			log.Error().Err(err).Msg("digest_cron: obtain lock")
		}
		return 0
	}

	businesses, err := cfg.Businesses.ListWithDigest(ctx)
	if err != nil {
		log.Error().Err(err).Msg("digest_cron: failed to list businesses")
		return 0
	}

	enqueued := 0
	for i := range businesses {
		if err := cfg.Dispatcher.EnqueueDigest(ctx, businesses[i].ID); err != nil {
			log.Error().Err(err).Str("business_id", businesses[i].ID.String()).Msg("digest_cron: enqueue failed")
			continue
		}
		enqueued++
	}
	if enqueued > 0 {
		log.Info().Int("count", enqueued).Msg("digest_cron: digests enqueued")
	}
	return enqueued
}
