package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shelfwise/internal/infra"
	"shelfwise/internal/insights"
	"shelfwise/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// InsightsService fetches a business's ledger and catalog, runs the insights
// engine over them and caches the result in Redis.
type InsightsService interface {
	Insights(ctx context.Context, businessID uuid.UUID, cfg insights.Config) (*insights.Data, error)
	YearOverYear(ctx context.Context, businessID uuid.UUID, years int) (*insights.YearOverYear, error)
	// Invalidate drops every cached result of the business.
	Invalidate(ctx context.Context, businessID uuid.UUID) error
	// Refresh invalidates and recomputes the default insights.
	Refresh(ctx context.Context, businessID uuid.UUID) error
	Defaults() insights.Config
}

type InsightsOptions struct {
	Defaults insights.Config
	VATRate  decimal.Decimal
	Location *time.Location
	CacheTTL time.Duration
	Years    int
	// LastSaleBreaker guards the all-time last-sale aggregate.
	LastSaleBreaker *infra.CircuitBreaker
}

type insightsService struct {
	businesses repository.BusinessRepository
	actions    repository.ActionRepository
	products   repository.ProductRepository
	suppliers  repository.SupplierRepository
	rdb        *redis.Client // nil disables caching
	opts       InsightsOptions
	now        func() time.Time
}

func NewInsightsService(
	businesses repository.BusinessRepository,
	actions repository.ActionRepository,
	products repository.ProductRepository,
	suppliers repository.SupplierRepository,
	rdb *redis.Client,
	opts InsightsOptions,
) InsightsService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Years < 1 {
		opts.Years = 3
	}
	if opts.LastSaleBreaker == nil {
		opts.LastSaleBreaker = infra.NewCircuitBreaker(infra.DefaultCBConfig())
	}
	if opts.Defaults == (insights.Config{}) {
		opts.Defaults = insights.DefaultConfig()
	}
	return &insightsService{
		businesses: businesses,
		actions:    actions,
		products:   products,
		suppliers:  suppliers,
		rdb:        rdb,
		opts:       opts,
		now:        time.Now,
	}
}

func (s *insightsService) Defaults() insights.Config { return s.opts.Defaults }

// ── Insights ──────────────────────────────────────────────────────────────────
//   1. Validate thresholds before touching the database
//   2. Cache lookup keyed by (business, cache version, config digest)
//   3. Primary fetches (actions, products) fail the request
//   4. Auxiliary fetches (last sale, supplier names) degrade with a warning
//   5. Compute, then populate the cache (best effort)

func (s *insightsService) Insights(ctx context.Context, businessID uuid.UUID, cfg insights.Config) (*insights.Data, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cacheKey := ""
	if ver, ok := s.cacheVersion(ctx, businessID); ok {
		cacheKey = fmt.Sprintf("insights:%s:v%d:%s", businessID, ver, cfg.Key())
		var cached insights.Data
		if s.cacheGet(ctx, cacheKey, &cached) {
			return &cached, nil
		}
	}

	biz, err := s.businesses.FindByID(ctx, businessID)
	if err != nil {
		return nil, notFound(err)
	}

	now := s.now()
	r := insights.NewResolver(biz.FinancialTrackingStart, s.opts.VATRate, s.opts.Location, now)
	// Business health needs the whole current year, the extractors their
	// own lookback, whichever reaches further back.
	since := now.AddDate(0, 0, -cfg.FetchWindowDays())
	if ys := r.YearStart(r.CurrentYear()); ys.Before(since) {
		since = ys
	}

	actions, err := s.actions.ListSince(ctx, businessID, since)
	if err != nil {
		return nil, fmt.Errorf("fetch actions: %w", err)
	}
	products, err := s.products.ListByBusiness(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}

	ds := insights.Dataset{
		Actions:                actions,
		Products:               products,
		FinancialTrackingStart: biz.FinancialTrackingStart,
	}
	ds.LastSale, ds.LastSaleErr = infra.Do(ctx, s.opts.LastSaleBreaker,
		func(ctx context.Context) (map[uuid.UUID]time.Time, error) {
			return s.actions.LastSaleByProduct(ctx, businessID)
		})
	if ds.LastSaleErr != nil {
		log.Warn().Err(ds.LastSaleErr).Str("business_id", businessID.String()).
			Msg("insights: last sale unavailable, dead stock treats every product as never sold")
	}
	if ds.SupplierNames, err = s.suppliers.NamesByBusiness(ctx, businessID); err != nil {
		log.Warn().Err(err).Str("business_id", businessID.String()).Msg("insights: supplier names unavailable")
	}

	data, err := insights.Compute(ds, cfg, now, s.opts.Location)
	if err != nil {
		return nil, err
	}

	if cacheKey != "" {
		s.cacheSet(cacheKey, data)
	}
	log.Debug().
		Str("business_id", businessID.String()).
		Int("actions", len(actions)).
		Int("products", len(products)).
		Int("high_severity", data.HighSeverityCount()).
		Msg("insights: computed")
	return data, nil
}

// ── Year over year ────────────────────────────────────────────────────────────

func (s *insightsService) YearOverYear(ctx context.Context, businessID uuid.UUID, years int) (*insights.YearOverYear, error) {
	if years < 1 {
		years = s.opts.Years
	}

	cacheKey := ""
	if ver, ok := s.cacheVersion(ctx, businessID); ok {
		cacheKey = fmt.Sprintf("insights:yoy:%s:v%d:%d", businessID, ver, years)
		var cached insights.YearOverYear
		if s.cacheGet(ctx, cacheKey, &cached) {
			return &cached, nil
		}
	}

	biz, err := s.businesses.FindByID(ctx, businessID)
	if err != nil {
		return nil, notFound(err)
	}

	r := insights.NewResolver(biz.FinancialTrackingStart, s.opts.VATRate, s.opts.Location, s.now())
	first := r.RelevantYears(years)[0]
	actions, err := s.actions.ListSince(ctx, businessID, r.YearStart(first))
	if err != nil {
		return nil, fmt.Errorf("fetch actions: %w", err)
	}

	out := insights.BuildYearOverYear(actions, r, years)
	if cacheKey != "" {
		s.cacheSet(cacheKey, out)
	}
	return out, nil
}

// ── Cache ─────────────────────────────────────────────────────────────────────
// Results are never deleted one by one: bumping the per-business version makes
// every older key unreachable and they age out through their TTL.

func versionKey(businessID uuid.UUID) string { return "insights:ver:" + businessID.String() }

func (s *insightsService) Invalidate(ctx context.Context, businessID uuid.UUID) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Incr(ctx, versionKey(businessID)).Err()
}

func (s *insightsService) Refresh(ctx context.Context, businessID uuid.UUID) error {
	if err := s.Invalidate(ctx, businessID); err != nil {
		return fmt.Errorf("invalidate insights cache: %w", err)
	}
	_, err := s.Insights(ctx, businessID, s.opts.Defaults)
	return err
}

// cacheVersion reports ok=false when caching is off or Redis is unreachable,
// in which case the request is served uncached.
func (s *insightsService) cacheVersion(ctx context.Context, businessID uuid.UUID) (int64, bool) {
	if s.rdb == nil || s.opts.CacheTTL <= 0 {
		return 0, false
	}
	ver, err := s.rdb.Get(ctx, versionKey(businessID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		log.Warn().Err(err).Msg("insights: cache version unavailable")
		return 0, false
	}
	return ver, true
}

func (s *insightsService) cacheGet(ctx context.Context, key string, dst interface{}) bool {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(b, dst) == nil
}

// cacheSet is best effort; a failed write only costs a recompute.
func (s *insightsService) cacheSet(key string, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = s.rdb.Set(context.Background(), key, b, s.opts.CacheTTL).Err()
}
