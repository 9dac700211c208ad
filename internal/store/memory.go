package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"desa-portal/internal/models"
)

// InMemory is a Store backed by maps, used by tests and local demos.
// Transactions are serialised but do not roll back.
type InMemory struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	templates map[string]models.LetterTemplate
	requests  map[string]models.LetterRequest
	penduduk  map[string]models.Penduduk
	keluarga  map[string]models.KartuKeluarga
	officials map[string]models.PerangkatDesa
	users     map[string]models.User
	settings  map[string]string
	stats     map[statKey]int64
	logs      []models.ActivityLog
}

type statKey struct {
	event      models.EventType
	templateID string
	day        string
}

func NewInMemory() *InMemory {
	return &InMemory{
		templates: make(map[string]models.LetterTemplate),
		requests:  make(map[string]models.LetterRequest),
		penduduk:  make(map[string]models.Penduduk),
		keluarga:  make(map[string]models.KartuKeluarga),
		officials: make(map[string]models.PerangkatDesa),
		users:     make(map[string]models.User),
		settings:  make(map[string]string),
		stats:     make(map[statKey]int64),
	}
}

func (s *InMemory) Transaction(ctx context.Context, fn func(tx Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

// Seeding helpers for reference data owned elsewhere

func (s *InMemory) AddKartuKeluarga(kk models.KartuKeluarga) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keluarga[kk.ID] = kk
}

func (s *InMemory) AddPenduduk(p models.Penduduk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.KartuKeluarga = nil
	s.penduduk[p.ID] = p
}

func (s *InMemory) AddOfficial(o models.PerangkatDesa) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.officials[o.ID] = o
}

func (s *InMemory) AddUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *InMemory) SetSetting(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
}

// Letter templates

func (s *InMemory) CreateTemplate(ctx context.Context, t *models.LetterTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.templates[t.ID]; exists {
		return ErrDuplicate
	}
	if s.templateCodeTaken(t.Code, t.ID) {
		return ErrDuplicate
	}
	now := time.Now()
	t.CreatedAt, t.UpdatedAt = now, now
	s.templates[t.ID] = *t
	return nil
}

func (s *InMemory) templateCodeTaken(code, excludeID string) bool {
	for id, existing := range s.templates {
		if id != excludeID && existing.Code == code {
			return true
		}
	}
	return false
}

func (s *InMemory) UpdateTemplate(ctx context.Context, t *models.LetterTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.templates[t.ID]; !exists {
		return ErrNotFound
	}
	if s.templateCodeTaken(t.Code, t.ID) {
		return ErrDuplicate
	}
	t.UpdatedAt = time.Now()
	s.templates[t.ID] = *t
	return nil
}

func (s *InMemory) DeleteTemplate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.templates[id]; !exists {
		return ErrNotFound
	}
	delete(s.templates, id)
	return nil
}

func (s *InMemory) FindTemplateByID(ctx context.Context, id string) (*models.LetterTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.templates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (s *InMemory) FindTemplateByCode(ctx context.Context, code string) (*models.LetterTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.templates {
		if t.Code == code {
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) ListTemplates(ctx context.Context, activeOnly bool) ([]models.LetterTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	templates := make([]models.LetterTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		if activeOnly && !t.IsActive {
			continue
		}
		templates = append(templates, t)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].Name < templates[j].Name })
	return templates, nil
}

func (s *InMemory) CountTemplates(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.templates)), nil
}

// Letter requests

// numberTaken mirrors the partial unique index on final letter numbers.
func (s *InMemory) numberTaken(nomorSurat, excludeID string) bool {
	if models.IsTempLetterNumber(nomorSurat) {
		return false
	}
	for id, r := range s.requests {
		if id != excludeID && r.NomorSurat == nomorSurat {
			return true
		}
	}
	return false
}

func (s *InMemory) codeTaken(code *string, excludeID string) bool {
	if code == nil {
		return false
	}
	for id, r := range s.requests {
		if id != excludeID && r.VerificationCode != nil && *r.VerificationCode == *code {
			return true
		}
	}
	return false
}

func stripRelations(r models.LetterRequest) models.LetterRequest {
	r.Penduduk = nil
	r.Template = nil
	r.Approver = nil
	return r
}

func (s *InMemory) CreateRequest(ctx context.Context, r *models.LetterRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[r.ID]; exists {
		return ErrDuplicate
	}
	if s.numberTaken(r.NomorSurat, r.ID) || s.codeTaken(r.VerificationCode, r.ID) {
		return ErrDuplicate
	}
	now := time.Now()
	r.CreatedAt, r.UpdatedAt = now, now
	s.requests[r.ID] = stripRelations(*r)
	return nil
}

func (s *InMemory) UpdateRequest(ctx context.Context, r *models.LetterRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[r.ID]; !exists {
		return ErrNotFound
	}
	if s.numberTaken(r.NomorSurat, r.ID) || s.codeTaken(r.VerificationCode, r.ID) {
		return ErrDuplicate
	}
	r.UpdatedAt = time.Now()
	s.requests[r.ID] = stripRelations(*r)
	return nil
}

func (s *InMemory) DeleteRequest(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[id]; !exists {
		return ErrNotFound
	}
	delete(s.requests, id)
	return nil
}

// withRelations returns a copy of r with its relations attached.
// Callers must hold s.mu.
func (s *InMemory) withRelations(r models.LetterRequest) *models.LetterRequest {
	if p, ok := s.penduduk[r.PendudukID]; ok {
		resident := s.residentWithHousehold(p)
		r.Penduduk = &resident
	}
	if t, ok := s.templates[r.TemplateID]; ok {
		r.Template = &t
	}
	if r.ApproverID != nil {
		if u, ok := s.users[*r.ApproverID]; ok {
			r.Approver = &u
		}
	}
	return &r
}

func (s *InMemory) residentWithHousehold(p models.Penduduk) models.Penduduk {
	if p.KartuKeluargaID != nil {
		if kk, ok := s.keluarga[*p.KartuKeluargaID]; ok {
			p.KartuKeluarga = &kk
		}
	}
	return p
}

func (s *InMemory) FindRequestByID(ctx context.Context, id string) (*models.LetterRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.withRelations(r), nil
}

func (s *InMemory) FindRequestForUpdate(ctx context.Context, id string) (*models.LetterRequest, error) {
	return s.FindRequestByID(ctx, id)
}

func (s *InMemory) FindRequestByVerificationCode(ctx context.Context, code string) (*models.LetterRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.requests {
		if r.VerificationCode != nil && *r.VerificationCode == code {
			return s.withRelations(r), nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) ListRequests(ctx context.Context, filter RequestFilter) ([]models.LetterRequest, int64, error) {
	filter.Normalize()

	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []models.LetterRequest
	for _, r := range s.requests {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.TemplateID != "" && r.TemplateID != filter.TemplateID {
			continue
		}
		if filter.PendudukID != "" && r.PendudukID != filter.PendudukID {
			continue
		}
		full := s.withRelations(r)
		if search != "" && !matchesSearch(full, search) {
			continue
		}
		matched = append(matched, *full)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start >= len(matched) {
		return []models.LetterRequest{}, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func matchesSearch(r *models.LetterRequest, search string) bool {
	if strings.Contains(strings.ToLower(r.NomorSurat), search) {
		return true
	}
	if r.Penduduk != nil {
		return strings.Contains(strings.ToLower(r.Penduduk.Nama), search) ||
			strings.Contains(r.Penduduk.NIK, search)
	}
	return false
}

func (s *InMemory) LetterNumberTaken(ctx context.Context, nomorSurat, excludeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, r := range s.requests {
		if id != excludeID && r.NomorSurat == nomorSurat {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemory) CountRequestsByTemplate(ctx context.Context, templateID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, r := range s.requests {
		if r.TemplateID == templateID {
			count++
		}
	}
	return count, nil
}

func (s *InMemory) CountRequestsByStatus(ctx context.Context) (map[models.LetterStatus]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.LetterStatus]int64, len(models.AllLetterStatuses))
	for _, status := range models.AllLetterStatuses {
		counts[status] = 0
	}
	for _, r := range s.requests {
		counts[r.Status]++
	}
	return counts, nil
}

// Reference data

func (s *InMemory) FindPendudukByID(ctx context.Context, id string) (*models.Penduduk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.penduduk[id]
	if !ok {
		return nil, ErrNotFound
	}
	resident := s.residentWithHousehold(p)
	return &resident, nil
}

func (s *InMemory) FindPendudukByNIK(ctx context.Context, nik string) (*models.Penduduk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.penduduk {
		if p.NIK == nik {
			resident := s.residentWithHousehold(p)
			return &resident, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemory) activeOfficials(match func(models.PerangkatDesa) bool) []models.PerangkatDesa {
	var officials []models.PerangkatDesa
	for _, o := range s.officials {
		if o.IsActive && match(o) {
			officials = append(officials, o)
		}
	}
	sort.Slice(officials, func(i, j int) bool {
		if officials[i].Urutan != officials[j].Urutan {
			return officials[i].Urutan < officials[j].Urutan
		}
		return officials[i].CreatedAt.Before(officials[j].CreatedAt)
	})
	return officials
}

func (s *InMemory) FindActiveOfficial(ctx context.Context, jabatan string) (*models.PerangkatDesa, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	officials := s.activeOfficials(func(o models.PerangkatDesa) bool {
		return strings.EqualFold(o.Jabatan, jabatan)
	})
	if len(officials) == 0 {
		return nil, ErrNotFound
	}
	return &officials[0], nil
}

func (s *InMemory) FindTopOfficial(ctx context.Context) (*models.PerangkatDesa, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	officials := s.activeOfficials(func(models.PerangkatDesa) bool { return true })
	if len(officials) == 0 {
		return nil, ErrNotFound
	}
	return &officials[0], nil
}

func (s *InMemory) GetSetting(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.settings[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Statistics

func (s *InMemory) IncrementStat(ctx context.Context, event models.EventType, templateID string, day time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[statKey{event: event, templateID: templateID, day: day.Format(models.DateLayout)}]++
	return nil
}

func (s *InMemory) StatTotals(ctx context.Context, templateID string) (map[models.EventType]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[models.EventType]int64)
	for key, count := range s.stats {
		if key.templateID == templateID {
			totals[key.event] += count
		}
	}
	return totals, nil
}

func (s *InMemory) StatSeries(ctx context.Context, event models.EventType, from, to time.Time) ([]models.TimeSeriesPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fromDay, toDay := from.Format(models.DateLayout), to.Format(models.DateLayout)
	var points []models.TimeSeriesPoint
	for key, count := range s.stats {
		if key.event != event || key.templateID != "" || key.day < fromDay || key.day > toDay {
			continue
		}
		points = append(points, models.TimeSeriesPoint{Date: key.day, Count: count})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points, nil
}

// Activity logs

func (s *InMemory) CreateActivityLog(ctx context.Context, log *models.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, *log)
	return nil
}

func (s *InMemory) ListActivityLogs(ctx context.Context, limit, offset int) ([]models.ActivityLog, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := int64(len(s.logs))
	logs := make([]models.ActivityLog, 0, len(s.logs))
	for i := len(s.logs) - 1; i >= 0; i-- {
		logs = append(logs, s.logs[i])
	}
	if offset >= len(logs) {
		return []models.ActivityLog{}, total, nil
	}
	logs = logs[offset:]
	if limit > 0 && limit < len(logs) {
		logs = logs[:limit]
	}
	return logs, total, nil
}

var _ Store = (*InMemory)(nil)
