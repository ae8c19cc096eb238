// cmd/redrive reports dead-lettered jobs and moves them back onto their queue.
// Usage: go run ./cmd/redrive [-queue jobs:email] [-max 100] [-dry-run]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"shelfwise/internal/config"
	"shelfwise/internal/infra"
	"shelfwise/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	queue := flag.String("queue", "", "queue to redrive; empty means every queue")
	limit := flag.Int("max", 100, "maximum jobs moved per queue")
	dryRun := flag.Bool("dry-run", false, "only print DLQ lengths")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	queues := []string{worker.QueueInsightsRefresh, worker.QueueEmail}
	if *queue != "" {
		queues = []string{*queue}
	}

	ctx := context.Background()
	for _, q := range queues {
		n, err := worker.DLQLength(ctx, rdb, q)
		if err != nil {
			log.Fatal().Err(err).Str("queue", q).Msg("read DLQ length")
		}
		fmt.Printf("%s: %d parked\n", q, n)
		if *dryRun || n == 0 {
			continue
		}
		moved, err := worker.Redrive(ctx, rdb, q, *limit)
		if err != nil {
			log.Fatal().Err(err).Str("queue", q).Int("moved", moved).Msg("redrive")
		}
		fmt.Printf("%s: %d requeued\n", q, moved)
	}
}
