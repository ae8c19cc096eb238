package insights

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is returned by Compute when the thresholds fail validation.
var ErrInvalidConfig = errors.New("insights: invalid config")

var validate = validator.New()

// Config holds every threshold the extractors read. Build one with
// DefaultConfig and override fields; Compute validates it once on entry.
type Config struct {
	SalesLookbackDays     int     `json:"sales_lookback_days" validate:"gte=1,lte=365"`
	PurchasesLookbackDays int     `json:"purchases_lookback_days" validate:"gte=1,lte=730"`
	RecentPurchaseDays    int     `json:"recent_purchase_days" validate:"gte=1,ltefield=PurchasesLookbackDays"`
	LowMarginPercent      float64 `json:"low_margin_percent" validate:"gte=0,lte=100"`
	HighDiscountPercent   float64 `json:"high_discount_percent" validate:"gte=0,lte=100"`
	DeadStockDays         int     `json:"dead_stock_days" validate:"gte=1,lte=3650"`
	StockoutDaysCover     float64 `json:"stockout_days_cover" validate:"gt=0,lte=365"`
	CostIncreasePercent   float64 `json:"cost_increase_percent" validate:"gte=0,lte=1000"`
	Locale                string  `json:"locale" validate:"omitempty,oneof=en he"`
}

// DefaultConfig returns the thresholds used when a caller overrides nothing.
func DefaultConfig() Config {
	return Config{
		SalesLookbackDays:     30,
		PurchasesLookbackDays: 90,
		RecentPurchaseDays:    30,
		LowMarginPercent:      15,
		HighDiscountPercent:   20,
		DeadStockDays:         60,
		StockoutDaysCover:     14,
		CostIncreasePercent:   10,
		Locale:                "en",
	}
}

// Validate reports every offending field in a single error wrapping ErrInvalidConfig.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+"="+fe.Tag())
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(parts, ", "))
}

// FetchWindowDays is the widest lookback any extractor needs from the ledger.
func (c Config) FetchWindowDays() int {
	return max(c.SalesLookbackDays, c.PurchasesLookbackDays, c.RecentPurchaseDays)
}

// Key is a stable digest of the config, suitable as part of a cache key.
// encoding/json writes struct fields in declaration order, so equal configs
// always hash the same.
func (c Config) Key() string {
	b, _ := json.Marshal(c)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:12])
}
