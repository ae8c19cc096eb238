package infra

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shelfwise/internal/config"
	"shelfwise/internal/insights"
	"shelfwise/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var reportNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

func sampleInsights(t *testing.T) *insights.Data {
	t.Helper()
	biz := uuid.New()
	p := model.Product{ID: uuid.New(), BusinessID: biz, Name: "Crème brûlée", Quantity: 3,
		Price: decimal.NewFromInt(10), Cost: decimal.NewNullDecimal(decimal.NewFromInt(20))}
	sale := model.InventoryAction{
		ID: uuid.New(), BusinessID: biz, ProductID: p.ID, ActionType: model.ActionRemove, QuantityChanged: 5,
		SaleTotalILS:    decimal.NewNullDecimal(decimal.NewFromInt(50)),
		CostSnapshotILS: decimal.NewNullDecimal(decimal.NewFromInt(20)),
		Timestamp:       reportNow.Add(-48 * time.Hour),
	}
	data, err := insights.Compute(insights.Dataset{
		Actions:  []model.InventoryAction{sale},
		Products: []model.Product{p},
	}, insights.DefaultConfig(), reportNow, time.UTC)
	require.NoError(t, err)
	return data
}

// ── Circuit breaker ───────────────────────────────────────────────────────────

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, OpenTimeout: time.Minute})
	clock := reportNow
	cb.now = func() time.Time { return clock }
	boom := errors.New("boom")
	fail := func(context.Context) (int, error) { return 0, boom }
	ctx := context.Background()

	_, err := Do(ctx, cb, fail)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, CBClosed, cb.State())
	_, err = Do(ctx, cb, fail)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, CBOpen, cb.State())

	called := false
	_, err = Do(ctx, cb, func(context.Context) (int, error) { called = true; return 1, nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	clock = clock.Add(time.Minute)
	assert.Equal(t, CBHalfOpen, cb.State())
	_, err = Do(ctx, cb, func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, CBClosed, cb.State())
	assert.Equal(t, "closed", cb.State().String())
}

func TestCircuitBreaker_SingleProbeWhileHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: time.Minute})
	clock := reportNow
	cb.now = func() time.Time { return clock }
	ctx := context.Background()

	_, _ = Do(ctx, cb, func(context.Context) (int, error) { return 0, errors.New("boom") })
	clock = clock.Add(time.Minute)

	var second error
	_, err := Do(ctx, cb, func(context.Context) (int, error) {
		// a concurrent caller arrives while the probe is in flight
		_, second = Do(ctx, cb, func(context.Context) (int, error) { return 2, nil })
		return 1, nil
	})
	require.NoError(t, err)
	assert.ErrorIs(t, second, ErrCircuitOpen)
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Minute})
	clock := reportNow
	cb.now = func() time.Time { return clock }
	ctx := context.Background()
	fail := func(context.Context) (int, error) { return 0, errors.New("boom") }

	_, _ = Do(ctx, cb, fail)
	clock = clock.Add(time.Minute)
	_, _ = Do(ctx, cb, fail)

	assert.Equal(t, CBOpen, cb.State())
	clock = clock.Add(30 * time.Second)
	assert.Equal(t, CBOpen, cb.State(), "timeout restarts from the failed probe")
}

func TestDo_IgnoresCallerCancellation(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, cb, func(ctx context.Context) (int, error) { return 0, ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, CBClosed, cb.State())

	v, err := Do(context.Background(), cb, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = Do(context.Background(), cb, func(context.Context) (int, error) { return 0, errors.New("db down") })
	require.Error(t, err)
	assert.Equal(t, CBOpen, cb.State())

	_, err = Do(context.Background(), cb, func(context.Context) (int, error) { return 1, nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

// ── Reports ───────────────────────────────────────────────────────────────────

func TestRenderInsightsPDF(t *testing.T) {
	out, err := RenderInsightsPDF(InsightsReport{
		BusinessName: "Corner Shop",
		GeneratedAt:  reportNow,
		Data:         sampleInsights(t),
	})

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Greater(t, len(out), 1000)
}

func TestSaveReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	path, err := SaveReport(dir, "insights_2026-10-19.pdf", []byte("%PDF-1.3"))

	require.NoError(t, err)
	assert.Equal(t, "insights_2026-10-19.pdf", filepath.Base(path))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(content))
}

func TestBuildYearOverYearWorkbook(t *testing.T) {
	sale := model.InventoryAction{
		ID: uuid.New(), ProductID: uuid.New(), ActionType: model.ActionRemove, QuantityChanged: 1,
		SaleTotalILS: decimal.NewNullDecimal(decimal.NewFromInt(118)),
		Timestamp:    time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC),
	}
	r := insights.NewResolver(nil, insights.DefaultVATRate, time.UTC, reportNow)
	yoy := insights.BuildYearOverYear([]model.InventoryAction{sale}, r, 2)

	out, err := BuildYearOverYearWorkbook(yoy)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "2025", "2026"}, f.GetSheetList())
	cell := func(sheet, axis string) string {
		v, err := f.GetCellValue(sheet, axis)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "Year", cell("Summary", "A1"))
	assert.Equal(t, "2025", cell("Summary", "A2"))
	assert.Equal(t, "2026", cell("Summary", "A3"))
	assert.Equal(t, "118", cell("Summary", "C3"))
	assert.Equal(t, "2026 vs 2025", cell("Summary", "A5"))

	months, err := f.GetRows("2026")
	require.NoError(t, err)
	assert.Len(t, months, 13)
	assert.Equal(t, "March", months[3][0])
}

// ── Mailer ────────────────────────────────────────────────────────────────────

func TestMailer_BuildDigestAttachesPDF(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "smtp.example.com", SMTPPort: 587, SMTPUser: "bot@example.com"})

	e, err := m.buildDigest("owner@example.com", "Digest", "body", "insights.pdf", []byte("%PDF-1.3"))

	require.NoError(t, err)
	assert.Equal(t, "bot@example.com", e.From)
	assert.Equal(t, []string{"owner@example.com"}, e.To)
	require.Len(t, e.Attachments, 1)
	assert.Equal(t, "insights.pdf", e.Attachments[0].Filename)
	assert.Equal(t, []byte("%PDF-1.3"), e.Attachments[0].Content)
}

func TestMailer_DisabledWithoutHost(t *testing.T) {
	m := NewMailer(&config.Config{})

	assert.False(t, m.Enabled())
	assert.Error(t, m.SendDigest("owner@example.com", "s", "b", "f.pdf", nil))
}

// ── Database ──────────────────────────────────────────────────────────────────

func TestNewDatabase_SQLiteMigrates(t *testing.T) {
	db, err := NewDatabase("sqlite", ":memory:")
	require.NoError(t, err)

	for _, table := range []string{"businesses", "suppliers", "products", "inventory_actions"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestNewDatabase_UnknownDriver(t *testing.T) {
	_, err := NewDatabase("oracle", "dsn")
	assert.Error(t, err)
}
