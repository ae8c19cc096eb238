package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueInsightsRefresh = "jobs:insights_refresh"
	QueueEmail           = "jobs:email"
)

const (
	JobInsightsRefresh = "insights_refresh"
	JobInsightsDigest  = "insights_digest"
)

// MaxAttempts is how many times a job runs before it goes to the DLQ.
const MaxAttempts = 3

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// BusinessPayload is the payload of every job that targets one business.
type BusinessPayload struct {
	BusinessID uuid.UUID `json:"business_id"`
}

// ListClient is the subset of *redis.Client the queues use.
type ListClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
	RPop(ctx context.Context, key string) *redis.StringCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb ListClient
}

func NewDispatcher(rdb ListClient) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueInsightsRefresh asks a worker to recompute and re-cache the default
// insights of a business.
func (d *Dispatcher) EnqueueInsightsRefresh(ctx context.Context, businessID uuid.UUID) error {
	return d.enqueue(ctx, QueueInsightsRefresh, JobInsightsRefresh, BusinessPayload{BusinessID: businessID})
}

// EnqueueDigest pushes an insights digest email job.
func (d *Dispatcher) EnqueueDigest(ctx context.Context, businessID uuid.UUID) error {
	return d.enqueue(ctx, QueueEmail, JobInsightsDigest, BusinessPayload{BusinessID: businessID})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb ListClient, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// Handler runs one job. A returned error schedules a retry.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Pool consumes the job queues and routes each job to its handler by type.
type Pool struct {
	rdb      ListClient
	handlers map[string]Handler
	queues   []string
}

func NewPool(rdb ListClient, handlers map[string]Handler) *Pool {
	return &Pool{
		rdb:      rdb,
		handlers: handlers,
		queues:   []string{QueueInsightsRefresh, QueueEmail},
	}
}

// Start launches numWorkers goroutines consuming every queue.
// Each goroutine blocks on BRPOP, zero CPU when idle.
func (p *Pool) Start(ctx context.Context, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go p.runWorker(ctx, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop; waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			p.process(ctx, result[0], result[1])
		}
	}
}

// process runs one raw job. Failures are re-queued until MaxAttempts, then
// parked in the DLQ. Unknown job types go straight to the DLQ.
func (p *Pool) process(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}

	handler, ok := p.handlers[job.Type]
	if !ok {
		SendToDLQ(ctx, p.rdb, queue, job, "no handler for job type")
		return
	}

	job.Attempts++
	err := runSafely(ctx, handler, job.Payload)
	if err == nil {
		log.Debug().Str("queue", queue).Str("job_type", job.Type).Int("attempts", job.Attempts).Msg("job done")
		return
	}

	if job.Attempts >= MaxAttempts {
		SendToDLQ(ctx, p.rdb, queue, job, fmt.Sprintf("max attempts (%d) exceeded: %s", MaxAttempts, err))
		return
	}
	log.Warn().
		Err(err).
		Str("queue", queue).
		Str("job_type", job.Type).
		Int("attempts", job.Attempts).
		Msg("job failed, re-queued")
	if pushErr := push(ctx, p.rdb, queue, job); pushErr != nil {
		log.Error().Err(pushErr).Str("queue", queue).Msg("failed to re-queue job")
	}
}

// runSafely turns a handler panic into an error so one bad job cannot take
// the worker goroutine down.
func runSafely(ctx context.Context, h Handler, payload json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, payload)
}
