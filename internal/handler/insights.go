package handler

import (
	"fmt"
	"net/http"
	"time"

	"shelfwise/internal/dto"
	"shelfwise/internal/insights"
	"shelfwise/internal/middleware"
	"shelfwise/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
)

type InsightsHandler struct {
	svc     service.InsightsService
	reports service.ReportService
	now     func() time.Time
}

func NewInsightsHandler(svc service.InsightsService, reports service.ReportService) *InsightsHandler {
	return &InsightsHandler{svc: svc, reports: reports, now: time.Now}
}

// GetInsights godoc
// @Summary Insights snapshot for the caller's business
// @Tags insights
// @Produce json
// @Security BearerAuth
// @Param sales_lookback_days query int false "Sales lookback in days"
// @Param purchases_lookback_days query int false "Purchases lookback in days"
// @Param recent_purchase_days query int false "Recent purchase window in days"
// @Param low_margin_percent query number false "Low margin threshold"
// @Param high_discount_percent query number false "High discount threshold"
// @Param dead_stock_days query int false "Days without a sale before stock counts as dead"
// @Param stockout_days_cover query number false "Days of cover below which stock is at risk"
// @Param cost_increase_percent query number false "Cost increase that counts as a spike"
// @Param Accept-Language header string false "Summary language (en, he)"
// @Success 200 {object} insights.Data
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/insights [get]
func (h *InsightsHandler) GetInsights(c *gin.Context) {
	var q dto.InsightsQuery
	if !bindQuery(c, &q) {
		return
	}
	cfg := q.Apply(h.svc.Defaults())
	if al := c.GetHeader("Accept-Language"); al != "" {
		cfg.Locale = insights.MatchLocale(al)
	}

	data, err := h.svc.Insights(c.Request.Context(), middleware.BusinessID(c), cfg)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// GetYearOverYear godoc
// @Summary Financial year-over-year comparison
// @Tags insights
// @Produce json
// @Security BearerAuth
// @Param years query int false "Number of financial years (1-10)"
// @Success 200 {object} insights.YearOverYear
// @Failure 404 {object} apierror.APIError
// @Router /v1/insights/year-over-year [get]
func (h *InsightsHandler) GetYearOverYear(c *gin.Context) {
	var q dto.YearOverYearQuery
	if !bindQuery(c, &q) {
		return
	}
	yoy, err := h.svc.YearOverYear(c.Request.Context(), middleware.BusinessID(c), q.Years)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, yoy)
}

// ExportYearOverYear godoc
// @Summary Year-over-year comparison as an Excel workbook
// @Tags insights
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param years query int false "Number of financial years (1-10)"
// @Success 200 {file} binary
// @Router /v1/insights/year-over-year/export [get]
func (h *InsightsHandler) ExportYearOverYear(c *gin.Context) {
	var q dto.YearOverYearQuery
	if !bindQuery(c, &q) {
		return
	}
	out, err := h.reports.YearOverYearWorkbook(c.Request.Context(), middleware.BusinessID(c), q.Years)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	h.attachment(c, "year_over_year", "xlsx", xlsxContentType, out)
}

// GetReportPDF godoc
// @Summary Insights report as PDF
// @Tags insights
// @Produce application/pdf
// @Security BearerAuth
// @Success 200 {file} binary
// @Router /v1/insights/report.pdf [get]
func (h *InsightsHandler) GetReportPDF(c *gin.Context) {
	out, err := h.reports.InsightsPDF(c.Request.Context(), middleware.BusinessID(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	h.attachment(c, "insights", "pdf", pdfContentType, out)
}

func (h *InsightsHandler) attachment(c *gin.Context, name, ext, contentType string, data []byte) {
	fileName := fmt.Sprintf("%s_%s.%s", name, h.now().Format("2006-01-02"), ext)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	c.Data(http.StatusOK, contentType, data)
}
