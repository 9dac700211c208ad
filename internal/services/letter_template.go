package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"desa-portal/internal/apperrors"
	"desa-portal/internal/metrics"
	"desa-portal/internal/models"
	"desa-portal/internal/processor"
	"desa-portal/internal/store"
	"desa-portal/internal/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var templateCodePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{0,49}$`)

type LetterTemplateService struct {
	store     store.Store
	assembler *letterAssembler
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func NewLetterTemplateService(s store.Store, defaults LetterDefaults, m *metrics.Metrics, logger *slog.Logger) *LetterTemplateService {
	return &LetterTemplateService{
		store:     s,
		assembler: &letterAssembler{store: s, defaults: defaults},
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

type CreateLetterTemplateInput struct {
	Code        string                  `json:"code" binding:"required,max=50"`
	Name        string                  `json:"name" binding:"required,max=255"`
	Description string                  `json:"description"`
	Template    string                  `json:"template" binding:"required"`
	Fields      []utils.FieldDefinition `json:"fields"`
	IsActive    *bool                   `json:"isActive"`
}

type UpdateLetterTemplateInput struct {
	Code        *string                  `json:"code" binding:"omitempty,max=50"`
	Name        *string                  `json:"name" binding:"omitempty,max=255"`
	Description *string                  `json:"description"`
	Template    *string                  `json:"template"`
	Fields      *[]utils.FieldDefinition `json:"fields"`
	IsActive    *bool                    `json:"isActive"`
}

// PlaceholderReport lists what a template references
type PlaceholderReport struct {
	Placeholders []string `json:"placeholders"`
	Core         []string `json:"core"`
	Declared     []string `json:"declared"`
	Unknown      []string `json:"unknown"`
}

type PreviewInput struct {
	Template *string                    `json:"template"`
	FormData map[string]json.RawMessage `json:"formData"`
}

type PreviewResult struct {
	Content string `json:"content"`
}

func normalizeTemplateCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !templateCodePattern.MatchString(code) {
		return "", apperrors.Validation("Kode template hanya boleh berisi huruf, angka, - dan _")
	}
	return code, nil
}

// normalizeFields validates declared fields and adds definitions for dynamic
// placeholders the author did not declare.
func normalizeFields(tpl string, fields []utils.FieldDefinition) ([]utils.FieldDefinition, error) {
	declared := make(map[string]bool, len(fields))
	normalized := make([]utils.FieldDefinition, 0, len(fields))

	for _, f := range fields {
		f.Key = strings.TrimSpace(f.Key)
		if !formKeyPattern.MatchString(f.Key) {
			return nil, apperrors.Validation(fmt.Sprintf("Nama field %q tidak valid", f.Key))
		}
		if processor.IsCoreField(f.Key) {
			return nil, apperrors.Validation(fmt.Sprintf("Field %s sudah disediakan otomatis", f.Key))
		}
		if declared[f.Key] {
			return nil, apperrors.Validation(fmt.Sprintf("Field %s dideklarasikan lebih dari sekali", f.Key))
		}
		if f.DataType == "" {
			f.DataType = utils.DataTypeText
		}
		if !f.DataType.Valid() {
			return nil, apperrors.Validation(fmt.Sprintf("Tipe data field %s tidak valid", f.Key))
		}
		if f.InputType == "" {
			f.InputType = utils.DetectFieldType(f.Key).InputType
		}
		if f.Label == "" {
			f.Label = utils.DetectFieldType(f.Key).Label
		}
		declared[f.Key] = true
		normalized = append(normalized, f)
	}

	// Author order first, unordered fields after
	sort.SliceStable(normalized, func(i, j int) bool {
		oi, oj := normalized[i].Order, normalized[j].Order
		if oi <= 0 || oj <= 0 {
			return oi > 0 && oj <= 0
		}
		return oi < oj
	})

	var missing []string
	for _, key := range processor.ExtractPlaceholders(tpl) {
		if !processor.IsCoreField(key) && !declared[key] && formKeyPattern.MatchString(key) {
			missing = append(missing, key)
		}
	}
	normalized = append(normalized, utils.GenerateFieldDefinitions(missing)...)

	for i := range normalized {
		normalized[i].Order = i + 1
	}
	return normalized, nil
}

func templateStoreError(err error, op string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NotFound("Template surat tidak ditemukan")
	case errors.Is(err, store.ErrDuplicate):
		return apperrors.Conflict("Kode template sudah digunakan")
	}
	return apperrors.Internal("Gagal "+op+" template surat", err)
}

func (s *LetterTemplateService) Create(ctx context.Context, in CreateLetterTemplateInput) (*models.LetterTemplate, error) {
	code, err := normalizeTemplateCode(in.Code)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Template) == "" {
		return nil, apperrors.Validation("Nama dan isi template wajib diisi")
	}
	fields, err := normalizeFields(in.Template, in.Fields)
	if err != nil {
		return nil, err
	}

	tpl := &models.LetterTemplate{
		ID:          uuid.New().String(),
		Code:        code,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Template:    in.Template,
		Fields:      fields,
		IsActive:    in.IsActive == nil || *in.IsActive,
	}
	if err := s.store.CreateTemplate(ctx, tpl); err != nil {
		return nil, templateStoreError(err, "membuat")
	}

	s.logger.InfoContext(ctx, "letter template created", "template_id", tpl.ID, "code", tpl.Code)
	return tpl, nil
}

func (s *LetterTemplateService) Get(ctx context.Context, id string) (*models.LetterTemplate, error) {
	tpl, err := s.store.FindTemplateByID(ctx, id)
	if err != nil {
		return nil, templateStoreError(err, "mengambil")
	}
	return tpl, nil
}

func (s *LetterTemplateService) List(ctx context.Context, activeOnly bool) ([]models.LetterTemplate, error) {
	templates, err := s.store.ListTemplates(ctx, activeOnly)
	if err != nil {
		return nil, templateStoreError(err, "mengambil daftar")
	}
	return templates, nil
}

func (s *LetterTemplateService) Update(ctx context.Context, id string, in UpdateLetterTemplateInput) (*models.LetterTemplate, error) {
	tpl, err := s.store.FindTemplateByID(ctx, id)
	if err != nil {
		return nil, templateStoreError(err, "mengambil")
	}

	if in.Code != nil {
		if tpl.Code, err = normalizeTemplateCode(*in.Code); err != nil {
			return nil, err
		}
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperrors.Validation("Nama template wajib diisi")
		}
		tpl.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		tpl.Description = *in.Description
	}
	if in.Template != nil {
		if strings.TrimSpace(*in.Template) == "" {
			return nil, apperrors.Validation("Isi template wajib diisi")
		}
		tpl.Template = *in.Template
	}
	if in.IsActive != nil {
		tpl.IsActive = *in.IsActive
	}

	fields := []utils.FieldDefinition(tpl.Fields)
	if in.Fields != nil {
		fields = *in.Fields
	}
	if in.Fields != nil || in.Template != nil {
		normalized, err := normalizeFields(tpl.Template, fields)
		if err != nil {
			return nil, err
		}
		tpl.Fields = normalized
	}

	if err := s.store.UpdateTemplate(ctx, tpl); err != nil {
		return nil, templateStoreError(err, "memperbarui")
	}
	return tpl, nil
}

// Delete removes a template nobody has requested yet. Used templates can
// only be deactivated.
func (s *LetterTemplateService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.FindTemplateByID(ctx, id); err != nil {
		return templateStoreError(err, "mengambil")
	}

	used, err := s.store.CountRequestsByTemplate(ctx, id)
	if err != nil {
		return apperrors.Internal("Gagal menghapus template surat", err)
	}
	if used > 0 {
		return apperrors.Conflict(fmt.Sprintf("Template sudah digunakan oleh %d permohonan, nonaktifkan saja", used))
	}

	if err := s.store.DeleteTemplate(ctx, id); err != nil {
		return templateStoreError(err, "menghapus")
	}
	s.logger.InfoContext(ctx, "letter template deleted", "template_id", id)
	return nil
}

func (s *LetterTemplateService) Placeholders(ctx context.Context, id string) (*PlaceholderReport, error) {
	tpl, err := s.store.FindTemplateByID(ctx, id)
	if err != nil {
		return nil, templateStoreError(err, "mengambil")
	}

	report := &PlaceholderReport{
		Placeholders: processor.ExtractPlaceholders(tpl.Template),
		Core:         []string{},
		Declared:     []string{},
		Unknown:      []string{},
	}
	for _, key := range report.Placeholders {
		_, declared := tpl.Field(key)
		switch {
		case processor.IsCoreField(key):
			report.Core = append(report.Core, key)
		case declared:
			report.Declared = append(report.Declared, key)
		default:
			report.Unknown = append(report.Unknown, key)
		}
	}
	return report, nil
}

// Preview renders the stored template, or an unsaved draft of it, against
// a sample resident so authors can check the layout.
func (s *LetterTemplateService) Preview(ctx context.Context, id string, in PreviewInput) (*PreviewResult, error) {
	start := s.now()
	defer func() { s.metrics.ObserveRender("preview", s.now().Sub(start)) }()

	tpl, err := s.store.FindTemplateByID(ctx, id)
	if err != nil {
		return nil, templateStoreError(err, "mengambil")
	}
	if in.Template != nil {
		tpl.Template = *in.Template
	}

	sample := sampleFormData(tpl)
	if len(in.FormData) > 0 {
		provided, err := ParseFormData(in.FormData, &models.LetterTemplate{Fields: tpl.Fields})
		if err != nil {
			return nil, err
		}
		for key, v := range provided {
			sample[key] = v
		}
	}

	request := sampleRequest(tpl, sample)
	data, err := s.assembler.assemble(ctx, request, s.now())
	if err != nil {
		return nil, apperrors.Internal("Gagal membuat pratinjau surat", err)
	}
	return &PreviewResult{Content: processor.Render(tpl.Template, data)}, nil
}

// InitializeDefaultTemplates creates the default letters whose code is not
// taken yet and reports how many were created.
func (s *LetterTemplateService) InitializeDefaultTemplates(ctx context.Context) (int, error) {
	created := 0
	for _, def := range models.DefaultLetterTemplates() {
		_, err := s.store.FindTemplateByCode(ctx, def.Code)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return created, apperrors.Internal("Gagal menyiapkan template bawaan", err)
		}

		def.ID = uuid.New().String()
		if err := s.store.CreateTemplate(ctx, &def); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				continue
			}
			return created, apperrors.Internal("Gagal menyiapkan template bawaan", err)
		}
		created++
	}

	s.logger.InfoContext(ctx, "initialized default letter templates", "created", created)
	return created, nil
}

func sampleFormData(tpl *models.LetterTemplate) models.FormData {
	sample := make(models.FormData, len(tpl.Fields))
	for _, f := range tpl.Fields {
		switch f.DataType {
		case utils.DataTypeNumber:
			sample[f.Key] = models.NumberValue(1500000)
		case utils.DataTypeDate:
			sample[f.Key] = models.DateValue(time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC))
		default:
			if f.Validation != nil && len(f.Validation.Options) > 0 {
				sample[f.Key] = models.StringValue(f.Validation.Options[0])
			} else {
				sample[f.Key] = models.StringValue("[" + fieldLabel(f) + "]")
			}
		}
	}
	return sample
}

func sampleRequest(tpl *models.LetterTemplate, data models.FormData) *models.LetterRequest {
	birth := time.Date(1990, time.May, 12, 0, 0, 0, 0, time.UTC)
	r := &models.LetterRequest{
		NomorSurat: "470/001/DS/" + fmt.Sprint(time.Now().Year()),
		Purpose:    "Contoh keperluan",
		Template:   tpl,
		Penduduk: &models.Penduduk{
			NIK:          "3201010101900001",
			Nama:         "Budi Santoso",
			TempatLahir:  "Bandung",
			TanggalLahir: &birth,
			JenisKelamin: models.GenderLakiLaki,
			Agama:        "Islam",
			Pekerjaan:    "Petani",
			KartuKeluarga: &models.KartuKeluarga{
				Alamat: "Jl. Merdeka No. 1",
				RT:     "001",
				RW:     "002",
			},
		},
	}
	r.FormData = datatypes.NewJSONType(data)
	return r
}
