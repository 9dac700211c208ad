package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"desa-portal/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm is the relational Store used in production
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm {
	return &Gorm{db: db}
}

func (s *Gorm) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

func (s *Gorm) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Gorm{db: tx})
	})
}

// Letter templates

func (s *Gorm) CreateTemplate(ctx context.Context, t *models.LetterTemplate) error {
	// Select("*") so an explicit false is not replaced by the column default
	return translate(s.conn(ctx).Select("*").Create(t).Error)
}

func (s *Gorm) UpdateTemplate(ctx context.Context, t *models.LetterTemplate) error {
	return translate(s.conn(ctx).Save(t).Error)
}

func (s *Gorm) DeleteTemplate(ctx context.Context, id string) error {
	result := s.conn(ctx).Delete(&models.LetterTemplate{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Gorm) FindTemplateByID(ctx context.Context, id string) (*models.LetterTemplate, error) {
	var t models.LetterTemplate
	if err := s.conn(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *Gorm) FindTemplateByCode(ctx context.Context, code string) (*models.LetterTemplate, error) {
	var t models.LetterTemplate
	if err := s.conn(ctx).First(&t, "code = ?", code).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *Gorm) ListTemplates(ctx context.Context, activeOnly bool) ([]models.LetterTemplate, error) {
	var templates []models.LetterTemplate
	query := s.conn(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to list letter templates: %w", err)
	}
	return templates, nil
}

func (s *Gorm) CountTemplates(ctx context.Context) (int64, error) {
	var total int64
	if err := s.conn(ctx).Model(&models.LetterTemplate{}).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count letter templates: %w", err)
	}
	return total, nil
}

// Letter requests

func (s *Gorm) withRelations(ctx context.Context) *gorm.DB {
	return s.conn(ctx).
		Preload("Penduduk.KartuKeluarga").
		Preload("Template").
		Preload("Approver")
}

func (s *Gorm) CreateRequest(ctx context.Context, r *models.LetterRequest) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Create(r).Error)
}

func (s *Gorm) UpdateRequest(ctx context.Context, r *models.LetterRequest) error {
	return translate(s.conn(ctx).Omit(clause.Associations).Save(r).Error)
}

func (s *Gorm) DeleteRequest(ctx context.Context, id string) error {
	result := s.conn(ctx).Delete(&models.LetterRequest{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Gorm) FindRequestByID(ctx context.Context, id string) (*models.LetterRequest, error) {
	var r models.LetterRequest
	if err := s.withRelations(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *Gorm) FindRequestForUpdate(ctx context.Context, id string) (*models.LetterRequest, error) {
	// Lock with a bare query; preloads run as separate statements.
	var locked models.LetterRequest
	err := s.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&locked, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return s.FindRequestByID(ctx, id)
}

func (s *Gorm) FindRequestByVerificationCode(ctx context.Context, code string) (*models.LetterRequest, error) {
	var r models.LetterRequest
	if err := s.withRelations(ctx).First(&r, "verification_code = ?", code).Error; err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *Gorm) ListRequests(ctx context.Context, filter RequestFilter) ([]models.LetterRequest, int64, error) {
	filter.Normalize()

	query := s.conn(ctx).Model(&models.LetterRequest{})
	if filter.Status != "" {
		query = query.Where("letter_requests.status = ?", filter.Status)
	}
	if filter.TemplateID != "" {
		query = query.Where("letter_requests.template_id = ?", filter.TemplateID)
	}
	if filter.PendudukID != "" {
		query = query.Where("letter_requests.penduduk_id = ?", filter.PendudukID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.
			Joins("LEFT JOIN penduduk ON penduduk.id = letter_requests.penduduk_id").
			Where("LOWER(letter_requests.nomor_surat) LIKE ? OR LOWER(penduduk.nama) LIKE ? OR penduduk.nik LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count letter requests: %w", err)
	}

	var requests []models.LetterRequest
	err := query.
		Preload("Penduduk.KartuKeluarga").
		Preload("Template").
		Order("letter_requests.created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&requests).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list letter requests: %w", err)
	}

	return requests, total, nil
}

func (s *Gorm) LetterNumberTaken(ctx context.Context, nomorSurat, excludeID string) (bool, error) {
	var count int64
	err := s.conn(ctx).Model(&models.LetterRequest{}).
		Where("nomor_surat = ? AND id <> ?", nomorSurat, excludeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check letter number: %w", err)
	}
	return count > 0, nil
}

func (s *Gorm) CountRequestsByTemplate(ctx context.Context, templateID string) (int64, error) {
	var count int64
	err := s.conn(ctx).Model(&models.LetterRequest{}).
		Where("template_id = ?", templateID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count letter requests: %w", err)
	}
	return count, nil
}

func (s *Gorm) CountRequestsByStatus(ctx context.Context) (map[models.LetterStatus]int64, error) {
	var rows []struct {
		Status models.LetterStatus
		Total  int64
	}
	err := s.conn(ctx).Model(&models.LetterRequest{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count letter requests by status: %w", err)
	}

	counts := make(map[models.LetterStatus]int64, len(models.AllLetterStatuses))
	for _, status := range models.AllLetterStatuses {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// Reference data

func (s *Gorm) FindPendudukByID(ctx context.Context, id string) (*models.Penduduk, error) {
	var p models.Penduduk
	if err := s.conn(ctx).Preload("KartuKeluarga").First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Gorm) FindPendudukByNIK(ctx context.Context, nik string) (*models.Penduduk, error) {
	var p models.Penduduk
	if err := s.conn(ctx).Preload("KartuKeluarga").First(&p, "nik = ?", nik).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *Gorm) FindActiveOfficial(ctx context.Context, jabatan string) (*models.PerangkatDesa, error) {
	var official models.PerangkatDesa
	err := s.conn(ctx).
		Where("is_active = ? AND LOWER(jabatan) = ?", true, strings.ToLower(jabatan)).
		Order("urutan ASC").
		First(&official).Error
	if err != nil {
		return nil, translate(err)
	}
	return &official, nil
}

func (s *Gorm) FindTopOfficial(ctx context.Context) (*models.PerangkatDesa, error) {
	var official models.PerangkatDesa
	err := s.conn(ctx).
		Where("is_active = ?", true).
		Order("urutan ASC").
		Order("created_at ASC").
		First(&official).Error
	if err != nil {
		return nil, translate(err)
	}
	return &official, nil
}

func (s *Gorm) GetSetting(ctx context.Context, key string) (string, error) {
	var setting models.SiteSetting
	if err := s.conn(ctx).Where(&models.SiteSetting{Key: key}).First(&setting).Error; err != nil {
		return "", translate(err)
	}
	return setting.Value, nil
}

// Statistics

func (s *Gorm) IncrementStat(ctx context.Context, event models.EventType, templateID string, day time.Time) error {
	stat := models.Statistics{
		ID:         newID(),
		EventType:  event,
		TemplateID: templateID,
		Date:       day,
		Count:      1,
	}
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "event_type"}, {Name: "template_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count":      gorm.Expr("statistics.count + 1"),
			"updated_at": time.Now(),
		}),
	}).Create(&stat).Error
	if err != nil {
		return fmt.Errorf("failed to increment %s statistic: %w", event, err)
	}
	return nil
}

func (s *Gorm) StatTotals(ctx context.Context, templateID string) (map[models.EventType]int64, error) {
	var rows []struct {
		EventType models.EventType
		Total     int64
	}
	err := s.conn(ctx).Model(&models.Statistics{}).
		Select("event_type, SUM(count) AS total").
		Where("template_id = ?", templateID).
		Group("event_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum statistics: %w", err)
	}

	totals := make(map[models.EventType]int64, len(rows))
	for _, row := range rows {
		totals[row.EventType] = row.Total
	}
	return totals, nil
}

func (s *Gorm) StatSeries(ctx context.Context, event models.EventType, from, to time.Time) ([]models.TimeSeriesPoint, error) {
	var stats []models.Statistics
	err := s.conn(ctx).
		Where("event_type = ? AND template_id = ? AND date BETWEEN ? AND ?", event, "", from, to).
		Order("date ASC").
		Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s series: %w", event, err)
	}

	points := make([]models.TimeSeriesPoint, 0, len(stats))
	for _, stat := range stats {
		points = append(points, models.TimeSeriesPoint{
			Date:  stat.Date.Format(models.DateLayout),
			Count: stat.Count,
		})
	}
	return points, nil
}

// Activity logs

func (s *Gorm) CreateActivityLog(ctx context.Context, log *models.ActivityLog) error {
	return translate(s.conn(ctx).Create(log).Error)
}

func (s *Gorm) ListActivityLogs(ctx context.Context, limit, offset int) ([]models.ActivityLog, int64, error) {
	var logs []models.ActivityLog
	var total int64

	if err := s.conn(ctx).Model(&models.ActivityLog{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count logs: %w", err)
	}

	query := s.conn(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch logs: %w", err)
	}

	return logs, total, nil
}

var _ Store = (*Gorm)(nil)
