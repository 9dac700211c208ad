package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"desa-portal/internal/models"
	"desa-portal/internal/store"
)

type StatisticsService struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewStatisticsService(s store.Store, logger *slog.Logger) *StatisticsService {
	return &StatisticsService{store: s, logger: logger, now: time.Now}
}

// Record counts one event for today, both village-wide and for the template.
// Failures are logged and never fail the operation that triggered them.
func (s *StatisticsService) Record(ctx context.Context, event models.EventType, templateID string) {
	day := s.now().UTC().Truncate(24 * time.Hour)

	if err := s.store.IncrementStat(ctx, event, "", day); err != nil {
		s.logger.WarnContext(ctx, "failed to record global stat", "event", event, "error", err)
	}
	if templateID == "" {
		return
	}
	if err := s.store.IncrementStat(ctx, event, templateID, day); err != nil {
		s.logger.WarnContext(ctx, "failed to record template stat", "event", event, "template_id", templateID, "error", err)
	}
}

// GetLetterStatistics returns the dashboard summary with a daily series of
// the last days days for each event.
func (s *StatisticsService) GetLetterStatistics(ctx context.Context, days int) (*models.LetterStatistics, error) {
	if days <= 0 || days > 365 {
		days = 30
	}

	byStatus, err := s.store.CountRequestsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count requests by status: %w", err)
	}
	totals, err := s.store.StatTotals(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to read statistics totals: %w", err)
	}

	summary := &models.LetterStatistics{
		ByStatus:       make(map[models.LetterStatus]int64, len(models.AllLetterStatuses)),
		TotalSubmitted: totals[models.EventLetterSubmitted],
		TotalApproved:  totals[models.EventLetterApproved],
		TotalRejected:  totals[models.EventLetterRejected],
		TotalVerified:  totals[models.EventLetterVerified],
	}
	for _, status := range models.AllLetterStatuses {
		summary.ByStatus[status] = byStatus[status]
		summary.TotalRequests += byStatus[status]
	}

	to := s.now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -(days - 1))
	for _, event := range []models.EventType{
		models.EventLetterSubmitted,
		models.EventLetterApproved,
		models.EventLetterRejected,
		models.EventLetterVerified,
	} {
		points, err := s.store.StatSeries(ctx, event, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s series: %w", event, err)
		}
		series := models.TimeSeriesData{EventType: event, DataPoints: fillDays(points, from, days)}
		for _, p := range points {
			series.Total += p.Count
		}
		summary.Daily = append(summary.Daily, series)
	}

	return summary, nil
}

// GetTemplateTotals returns the event totals of one template
func (s *StatisticsService) GetTemplateTotals(ctx context.Context, templateID string) (map[models.EventType]int64, error) {
	totals, err := s.store.StatTotals(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to read template statistics: %w", err)
	}
	return totals, nil
}

// fillDays returns one point per day, zero where nothing was recorded
func fillDays(points []models.TimeSeriesPoint, from time.Time, days int) []models.TimeSeriesPoint {
	counts := make(map[string]int64, len(points))
	for _, p := range points {
		counts[p.Date] = p.Count
	}
	filled := make([]models.TimeSeriesPoint, 0, days)
	for i := 0; i < days; i++ {
		date := from.AddDate(0, 0, i).Format(models.DateLayout)
		filled = append(filled, models.TimeSeriesPoint{Date: date, Count: counts[date]})
	}
	return filled
}
