// cmd/gentoken mints a development access token for a business.
// Usage: go run ./cmd/gentoken -business <uuid> [-role owner|manager|staff] [-ttl 8h]
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"shelfwise/internal/config"
	"shelfwise/internal/middleware"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	business := flag.String("business", "", "business id the token is scoped to")
	role := flag.String("role", middleware.RoleOwner, "owner, manager or staff")
	ttl := flag.Duration("ttl", time.Duration(cfg.JWTExpirationHours)*time.Hour, "token lifetime")
	flag.Parse()

	businessID, err := uuid.Parse(*business)
	if err != nil {
		log.Fatal().Err(err).Msg("-business must be a uuid")
	}
	switch *role {
	case middleware.RoleOwner, middleware.RoleManager, middleware.RoleStaff:
	default:
		log.Fatal().Str("role", *role).Msg("unknown role")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is not set")
	}

	token, err := middleware.IssueToken(cfg.JWTSecret, businessID, *role, *ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("sign token")
	}
	fmt.Println(token)
}
