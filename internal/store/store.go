package store

import (
	"context"
	"errors"
	"time"

	"desa-portal/internal/models"
)

var (
	// ErrNotFound is returned when a lookup matches no record.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness rule.
	ErrDuplicate = errors.New("duplicate record")
)

// RequestFilter narrows ListRequests
type RequestFilter struct {
	Status     models.LetterStatus
	TemplateID string
	PendudukID string
	Search     string // matches nomor surat, resident name or NIK
	Page       int
	Limit      int
}

// Normalize applies paging defaults
func (f *RequestFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

// LetterTemplateStore persists letter templates
type LetterTemplateStore interface {
	CreateTemplate(ctx context.Context, t *models.LetterTemplate) error
	UpdateTemplate(ctx context.Context, t *models.LetterTemplate) error
	DeleteTemplate(ctx context.Context, id string) error
	FindTemplateByID(ctx context.Context, id string) (*models.LetterTemplate, error)
	FindTemplateByCode(ctx context.Context, code string) (*models.LetterTemplate, error)
	ListTemplates(ctx context.Context, activeOnly bool) ([]models.LetterTemplate, error)
	CountTemplates(ctx context.Context) (int64, error)
}

// LetterRequestStore persists letter requests. Find methods load the
// resident (with household) and the template.
type LetterRequestStore interface {
	CreateRequest(ctx context.Context, r *models.LetterRequest) error
	UpdateRequest(ctx context.Context, r *models.LetterRequest) error
	DeleteRequest(ctx context.Context, id string) error
	FindRequestByID(ctx context.Context, id string) (*models.LetterRequest, error)
	// FindRequestForUpdate is FindRequestByID that also locks the row until
	// the surrounding transaction ends.
	FindRequestForUpdate(ctx context.Context, id string) (*models.LetterRequest, error)
	FindRequestByVerificationCode(ctx context.Context, code string) (*models.LetterRequest, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]models.LetterRequest, int64, error)
	// LetterNumberTaken reports whether another request than excludeID holds
	// the letter number.
	LetterNumberTaken(ctx context.Context, nomorSurat, excludeID string) (bool, error)
	CountRequestsByTemplate(ctx context.Context, templateID string) (int64, error)
	CountRequestsByStatus(ctx context.Context) (map[models.LetterStatus]int64, error)
}

// ReferenceStore reads data owned by other parts of the portal
type ReferenceStore interface {
	FindPendudukByID(ctx context.Context, id string) (*models.Penduduk, error)
	FindPendudukByNIK(ctx context.Context, nik string) (*models.Penduduk, error)
	// FindActiveOfficial returns the active official holding jabatan
	// (case-insensitive), preferring the highest rank.
	FindActiveOfficial(ctx context.Context, jabatan string) (*models.PerangkatDesa, error)
	// FindTopOfficial returns the highest-ranking active official.
	FindTopOfficial(ctx context.Context) (*models.PerangkatDesa, error)
	GetSetting(ctx context.Context, key string) (string, error)
}

// StatisticsStore keeps daily event counters
type StatisticsStore interface {
	IncrementStat(ctx context.Context, event models.EventType, templateID string, day time.Time) error
	StatTotals(ctx context.Context, templateID string) (map[models.EventType]int64, error)
	StatSeries(ctx context.Context, event models.EventType, from, to time.Time) ([]models.TimeSeriesPoint, error)
}

// ActivityLogStore keeps the request audit trail
type ActivityLogStore interface {
	CreateActivityLog(ctx context.Context, log *models.ActivityLog) error
	ListActivityLogs(ctx context.Context, limit, offset int) ([]models.ActivityLog, int64, error)
}

// Store is the persistence collaborator of the letter service
type Store interface {
	LetterTemplateStore
	LetterRequestStore
	ReferenceStore
	StatisticsStore
	ActivityLogStore

	// Transaction runs fn against a store bound to one transaction. The
	// transaction commits when fn returns nil.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}
