package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"shelfwise/internal/infra"
	"shelfwise/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReportService renders insights as downloadable files.
type ReportService interface {
	YearOverYearWorkbook(ctx context.Context, businessID uuid.UUID, years int) ([]byte, error)
	// InsightsPDF renders the default insights in English.
	InsightsPDF(ctx context.Context, businessID uuid.UUID) ([]byte, error)
}

type reportService struct {
	insights    InsightsService
	businesses  repository.BusinessRepository
	storagePath string // empty disables archiving
	now         func() time.Time
}

func NewReportService(insights InsightsService, businesses repository.BusinessRepository, storagePath string) ReportService {
	return &reportService{insights: insights, businesses: businesses, storagePath: storagePath, now: time.Now}
}

func (s *reportService) YearOverYearWorkbook(ctx context.Context, businessID uuid.UUID, years int) ([]byte, error) {
	yoy, err := s.insights.YearOverYear(ctx, businessID, years)
	if err != nil {
		return nil, err
	}
	return infra.BuildYearOverYearWorkbook(yoy)
}

func (s *reportService) InsightsPDF(ctx context.Context, businessID uuid.UUID) ([]byte, error) {
	biz, err := s.businesses.FindByID(ctx, businessID)
	if err != nil {
		return nil, notFound(err)
	}
	cfg := s.insights.Defaults()
	cfg.Locale = "en" // core PDF fonts cannot render Hebrew
	data, err := s.insights.Insights(ctx, businessID, cfg)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out, err := infra.RenderInsightsPDF(infra.InsightsReport{BusinessName: biz.Name, GeneratedAt: now, Data: data})
	if err != nil {
		return nil, err
	}

	if s.storagePath != "" {
		dir := filepath.Join(s.storagePath, businessID.String())
		if _, err := infra.SaveReport(dir, fmt.Sprintf("insights_%s.pdf", now.Format("2006-01-02")), out); err != nil {
			log.Warn().Err(err).Str("business_id", businessID.String()).Msg("report: archive PDF")
		}
	}
	return out, nil
}
