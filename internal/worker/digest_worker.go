package worker

// digest_worker.go
// Processes insights digest jobs from QueueEmail.
// Renders the insights PDF of a business and mails it to its digest address.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shelfwise/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// InsightsReporter renders the insights digest PDF.
type InsightsReporter interface {
	InsightsPDF(ctx context.Context, businessID uuid.UUID) ([]byte, error)
}

// DigestMailer delivers one digest email with the PDF attached.
type DigestMailer interface {
	SendDigest(to, subject, body, filename string, pdf []byte) error
}

// DigestWorker processes digest jobs from QueueEmail.
type DigestWorker struct {
	businesses repository.BusinessRepository
	reports    InsightsReporter
	mailer     DigestMailer
	now        func() time.Time
}

// NewDigestWorker creates a DigestWorker with the provided SMTP mailer.
func NewDigestWorker(businesses repository.BusinessRepository, reports InsightsReporter, mailer DigestMailer) *DigestWorker {
	return &DigestWorker{
		businesses: businesses,
		reports:    reports,
		mailer:     mailer,
		now:        time.Now,
	}
}

// Handle renders and sends the digest. It satisfies Handler.
func (w *DigestWorker) Handle(ctx context.Context, raw json.RawMessage) error {
	var payload BusinessPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.BusinessID == uuid.Nil {
		log.Error().Err(err).RawJSON("payload", raw).Msg("digest_worker: invalid payload")
		return nil
	}

	biz, err := w.businesses.FindByID(ctx, payload.BusinessID)
	if err != nil {
		return fmt.Errorf("load business: %w", err)
	}
	if biz.DigestEmail == nil || *biz.DigestEmail == "" {
		log.Warn().Str("business_id", biz.ID.String()).Msg("digest_worker: no digest email, skipping")
		return nil
	}

	pdf, err := w.reports.InsightsPDF(ctx, biz.ID)
	if err != nil {
		return fmt.Errorf("render digest: %w", err)
	}

	today := w.now()
	subject := fmt.Sprintf("Insights digest for %s, %s", biz.Name, today.Format("2 Jan 2006"))
	body := fmt.Sprintf("Attached are the latest inventory insights for %s.", biz.Name)
	filename := fmt.Sprintf("insights_%s.pdf", today.Format("2006-01-02"))
	if err := w.mailer.SendDigest(*biz.DigestEmail, subject, body, filename, pdf); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	log.Info().Str("business_id", biz.ID.String()).Str("to", *biz.DigestEmail).Msg("digest_worker: digest sent")
	return nil
}
