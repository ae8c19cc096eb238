package insights

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys double as the English text; other locales register a
// translation in the default catalog.
const (
	msgTitleLowMargin    = "Low margin products"
	msgTitleHighDiscount = "High discount products"
	msgTitleDeadStock    = "Dead stock"
	msgTitleStockout     = "Stockout risk"
	msgTitleCostSpike    = "Cost increases"
	msgTitleHealth       = "Business health"

	msgLowMargin        = "%d products below %s%% margin"
	msgLowMarginNone    = "All products are above %s%% margin"
	msgHighDiscount     = "%d products averaging %s%% discount or more"
	msgHighDiscountNone = "No products discounted %s%% or more on average"
	msgDeadStock        = "%d products without a sale in %d days"
	msgDeadStockNone    = "No dead stock"
	msgStockout         = "%d products with less than %s days of cover"
	msgStockoutNone     = "No products at risk of running out"
	msgCostSpike        = "%d products with cost increases of %s%% or more"
	msgCostSpikeNone    = "No cost increases of %s%% or more"
	msgHealthOK         = "%d months of sales this year, no warning signs"
	msgHealthNone       = "No sales recorded this year yet"
	msgHealthWarning    = "Average discount rose from %s%% in %s to %s%% in %s while gross profit fell from %s to %s"
)

var supportedLocales = []language.Tag{language.English, language.Hebrew}

var hebrewMonths = [12]string{
	"ינואר", "פברואר", "מרץ", "אפריל", "מאי", "יוני",
	"יולי", "אוגוסט", "ספטמבר", "אוקטובר", "נובמבר", "דצמבר",
}

func init() {
	he := map[string]string{
		msgTitleLowMargin:    "מוצרים ברווחיות נמוכה",
		msgTitleHighDiscount: "מוצרים בהנחה גבוהה",
		msgTitleDeadStock:    "מלאי מת",
		msgTitleStockout:     "סיכון לחוסר במלאי",
		msgTitleCostSpike:    "עליות עלות",
		msgTitleHealth:       "בריאות העסק",
		msgLowMargin:         "%d מוצרים מתחת ל-%s%% רווחיות",
		msgLowMarginNone:     "כל המוצרים מעל %s%% רווחיות",
		msgHighDiscount:      "%d מוצרים עם הנחה ממוצעת של %s%% ומעלה",
		msgHighDiscountNone:  "אין מוצרים עם הנחה ממוצעת של %s%% ומעלה",
		msgDeadStock:         "%d מוצרים ללא מכירה ב-%d ימים",
		msgDeadStockNone:     "אין מלאי מת",
		msgStockout:          "%d מוצרים עם כיסוי של פחות מ-%s ימים",
		msgStockoutNone:      "אין מוצרים בסיכון לחוסר",
		msgCostSpike:         "%d מוצרים עם עליית עלות של %s%% ומעלה",
		msgCostSpikeNone:     "אין עליות עלות של %s%% ומעלה",
		msgHealthOK:          "%d חודשי מכירות השנה, ללא סימני אזהרה",
		msgHealthNone:        "עדיין לא נרשמו מכירות השנה",
		msgHealthWarning:     "ההנחה הממוצעת עלתה מ-%s%% ב%s ל-%s%% ב%s בזמן שהרווח הגולמי ירד מ-%s ל-%s",
	}
	for key, msg := range he {
		if err := message.SetString(language.Hebrew, key, msg); err != nil {
			panic(err)
		}
	}
}

// resolveLocale narrows any locale string to a supported base language code.
func resolveLocale(locale string) string {
	tag, _, _ := language.NewMatcher(supportedLocales).Match(language.Make(locale))
	base, _ := tag.Base()
	return base.String()
}

func printerFor(locale string) *message.Printer {
	return message.NewPrinter(language.Make(locale))
}

// MatchLocale maps an Accept-Language header onto a supported locale code.
func MatchLocale(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return "en"
	}
	tag, _, _ := language.NewMatcher(supportedLocales).Match(tags...)
	base, _ := tag.Base()
	return base.String()
}

func num(f float64) string { return decimal.NewFromFloat(f).String() }

func (s *snapshot) monthName(month int) string {
	if s.locale == "he" {
		return hebrewMonths[month]
	}
	return time.Month(month + 1).String()
}

func (s *snapshot) healthWarning(beforeIdx, lastIdx int, before, last *monthAcc) string {
	return s.printer.Sprintf(msgHealthWarning,
		before.avgDiscountPercent().Round(1).String(), s.monthName(beforeIdx),
		last.avgDiscountPercent().Round(1).String(), s.monthName(lastIdx),
		before.grossProfit.StringFixed(2), last.grossProfit.StringFixed(2),
	)
}

func (s *snapshot) title(key string) string { return s.printer.Sprintf(key) }

func (s *snapshot) lowMarginSummary(count int) string {
	if count == 0 {
		return s.printer.Sprintf(msgLowMarginNone, num(s.cfg.LowMarginPercent))
	}
	return s.printer.Sprintf(msgLowMargin, count, num(s.cfg.LowMarginPercent))
}

func (s *snapshot) highDiscountSummary(count int) string {
	if count == 0 {
		return s.printer.Sprintf(msgHighDiscountNone, num(s.cfg.HighDiscountPercent))
	}
	return s.printer.Sprintf(msgHighDiscount, count, num(s.cfg.HighDiscountPercent))
}

func (s *snapshot) deadStockSummary(count int) string {
	if count == 0 {
		return s.printer.Sprintf(msgDeadStockNone)
	}
	return s.printer.Sprintf(msgDeadStock, count, s.cfg.DeadStockDays)
}

func (s *snapshot) stockoutSummary(count int) string {
	if count == 0 {
		return s.printer.Sprintf(msgStockoutNone)
	}
	return s.printer.Sprintf(msgStockout, count, num(s.cfg.StockoutDaysCover))
}

func (s *snapshot) costSpikeSummary(count int) string {
	if count == 0 {
		return s.printer.Sprintf(msgCostSpikeNone, num(s.cfg.CostIncreasePercent))
	}
	return s.printer.Sprintf(msgCostSpike, count, num(s.cfg.CostIncreasePercent))
}

func (s *snapshot) healthSummary(months int, warning string) string {
	switch {
	case warning != "":
		return warning
	case months == 0:
		return s.printer.Sprintf(msgHealthNone)
	default:
		return s.printer.Sprintf(msgHealthOK, months)
	}
}
