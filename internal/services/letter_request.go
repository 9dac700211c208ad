package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"desa-portal/internal/apperrors"
	"desa-portal/internal/metrics"
	"desa-portal/internal/models"
	"desa-portal/internal/processor"
	"desa-portal/internal/storage"
	"desa-portal/internal/store"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type LetterRequestService struct {
	store     store.Store
	assembler *letterAssembler
	stats     *StatisticsService
	pdf       PDFConverter
	files     storage.StorageClient
	metrics   *metrics.Metrics
	logger    *slog.Logger

	now       func() time.Time
	newCode   CodeGenerator
	urlExpiry time.Duration
}

func NewLetterRequestService(
	s store.Store,
	defaults LetterDefaults,
	stats *StatisticsService,
	pdf PDFConverter,
	files storage.StorageClient,
	m *metrics.Metrics,
	logger *slog.Logger,
) *LetterRequestService {
	return &LetterRequestService{
		store:     s,
		assembler: &letterAssembler{store: s, defaults: defaults},
		stats:     stats,
		pdf:       pdf,
		files:     files,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
		newCode:   NewVerificationCode,
		urlExpiry: 15 * time.Minute,
	}
}

// SetPDFURLExpiry sets how long signed download links stay valid
func (s *LetterRequestService) SetPDFURLExpiry(d time.Duration) {
	if d > 0 {
		s.urlExpiry = d
	}
}

// SubmitLetterRequestInput identifies the resident by id or NIK and the
// template by id or code.
type SubmitLetterRequestInput struct {
	PendudukID   string                     `json:"pendudukId"`
	NIK          string                     `json:"nik" binding:"omitempty,numeric,len=16"`
	TemplateID   string                     `json:"templateId"`
	TemplateCode string                     `json:"templateCode"`
	Purpose      string                     `json:"purpose" binding:"max=500"`
	FormData     map[string]json.RawMessage `json:"formData"`
}

type ApproveInput struct {
	LetterNumber string  `json:"letterNumber"`
	Notes        *string `json:"notes"`
	PdfURL       *string `json:"pdfUrl"`
}

type ApproveResult struct {
	LetterNumber     string                `json:"letterNumber"`
	VerificationCode string                `json:"verificationCode"`
	Request          *models.LetterRequest `json:"request"`
}

type UpdateStatusInput struct {
	Status string  `json:"status" binding:"required"`
	Notes  *string `json:"notes"`
}

type RequestList struct {
	Data       []models.LetterRequest `json:"data"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"totalPages"`
}

type LetterContent struct {
	NomorSurat string `json:"nomorSurat"`
	JenisSurat string `json:"jenisSurat"`
	Tanggal    string `json:"tanggal"`
	LogoURL    string `json:"logoUrl"`
	Content    string `json:"content"`
}

type PDFResult struct {
	PdfPath string `json:"pdfPath"`
	URL     string `json:"url"`
	Size    int64  `json:"size"`
}

func requestStoreError(err error, message string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NotFound("Permohonan surat tidak ditemukan")
	}
	return apperrors.Internal(message, err)
}

func (s *LetterRequestService) record(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = string(apperrors.KindOf(err))
	}
	s.metrics.IncrementOperation(operation, outcome)
}

func (s *LetterRequestService) resolveResident(ctx context.Context, in SubmitLetterRequestInput) (*models.Penduduk, error) {
	var (
		resident *models.Penduduk
		err      error
	)
	if id := strings.TrimSpace(in.PendudukID); id != "" {
		resident, err = s.store.FindPendudukByID(ctx, id)
	} else {
		resident, err = s.store.FindPendudukByNIK(ctx, strings.TrimSpace(in.NIK))
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound("Data penduduk tidak ditemukan")
	}
	if err != nil {
		return nil, apperrors.Internal("Gagal mengambil data penduduk", err)
	}

	if nik := strings.TrimSpace(in.NIK); nik != "" && nik != resident.NIK {
		return nil, apperrors.Validation("NIK tidak sesuai dengan data penduduk")
	}
	return resident, nil
}

func (s *LetterRequestService) resolveTemplate(ctx context.Context, in SubmitLetterRequestInput) (*models.LetterTemplate, error) {
	var (
		tpl *models.LetterTemplate
		err error
	)
	if id := strings.TrimSpace(in.TemplateID); id != "" {
		tpl, err = s.store.FindTemplateByID(ctx, id)
	} else {
		tpl, err = s.store.FindTemplateByCode(ctx, strings.ToUpper(strings.TrimSpace(in.TemplateCode)))
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound("Template surat tidak ditemukan")
	}
	if err != nil {
		return nil, apperrors.Internal("Gagal mengambil template surat", err)
	}
	if !tpl.IsActive {
		return nil, apperrors.Validation("Jenis surat ini sedang tidak dilayani")
	}
	return tpl, nil
}

// Submit creates a PENDING request carrying a temporary letter number
func (s *LetterRequestService) Submit(ctx context.Context, in SubmitLetterRequestInput) (req *models.LetterRequest, err error) {
	defer func() { s.record("submit", err) }()

	switch {
	case strings.TrimSpace(in.PendudukID) == "" && strings.TrimSpace(in.NIK) == "":
		return nil, apperrors.Validation("Data penduduk wajib diisi")
	case strings.TrimSpace(in.TemplateID) == "" && strings.TrimSpace(in.TemplateCode) == "":
		return nil, apperrors.Validation("Jenis surat wajib dipilih")
	case strings.TrimSpace(in.Purpose) == "":
		return nil, apperrors.Validation("Keperluan wajib diisi")
	}

	resident, err := s.resolveResident(ctx, in)
	if err != nil {
		return nil, err
	}
	tpl, err := s.resolveTemplate(ctx, in)
	if err != nil {
		return nil, err
	}
	formData, err := ParseFormData(in.FormData, tpl)
	if err != nil {
		return nil, err
	}

	req = &models.LetterRequest{
		ID:         uuid.New().String(),
		NomorSurat: tempLetterNumber(s.now()),
		Status:     models.StatusPending,
		Purpose:    strings.TrimSpace(in.Purpose),
		FormData:   datatypes.NewJSONType(formData),
		PendudukID: resident.ID,
		TemplateID: tpl.ID,
	}
	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, apperrors.Internal("Gagal menyimpan permohonan surat", err)
	}
	req.Penduduk = resident
	req.Template = tpl

	s.stats.Record(ctx, models.EventLetterSubmitted, tpl.ID)
	s.logger.InfoContext(ctx, "letter request submitted",
		"request_id", req.ID, "template", tpl.Code, "penduduk_id", resident.ID)
	return req, nil
}

func templateCodeOf(r *models.LetterRequest) string {
	if r.Template != nil {
		return r.Template.Code
	}
	return ""
}

// Approve issues the letter under letterNumber. The request row stays locked
// from the status check until the write so two administrators cannot both
// approve it, and the number check runs in the same transaction.
func (s *LetterRequestService) Approve(ctx context.Context, id, approverID string, in ApproveInput) (result *ApproveResult, err error) {
	defer func() { s.record("approve", err) }()

	number := strings.TrimSpace(in.LetterNumber)
	if number == "" {
		return nil, apperrors.Validation("Nomor surat wajib diisi")
	}
	if models.IsTempLetterNumber(number) {
		return nil, apperrors.Validation("Nomor surat tidak boleh diawali " + models.TempLetterNumberPrefix)
	}

	var approved *models.LetterRequest
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		r, err := tx.FindRequestForUpdate(ctx, id)
		if err != nil {
			return requestStoreError(err, "Gagal mengambil permohonan surat")
		}
		if !r.Status.Approvable() {
			return apperrors.Conflict(fmt.Sprintf("Permohonan sudah berstatus %s", r.Status))
		}

		taken, err := tx.LetterNumberTaken(ctx, number, r.ID)
		if err != nil {
			return apperrors.Internal("Gagal memeriksa nomor surat", err)
		}
		if taken {
			return apperrors.Conflict(fmt.Sprintf("Nomor surat %s sudah digunakan", number))
		}

		now := s.now()
		code, err := s.newCode(templateCodeOf(r), now)
		if err != nil {
			return apperrors.Internal("Gagal membuat kode verifikasi", err)
		}

		r.Status = models.StatusApproved
		r.NomorSurat = number
		r.ApprovedAt = &now
		r.ApproverID = &approverID
		r.VerificationCode = &code
		if in.Notes != nil {
			r.Notes = *in.Notes
		}
		if in.PdfURL != nil {
			r.PdfURL = *in.PdfURL
		}

		if err := tx.UpdateRequest(ctx, r); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperrors.Conflict(fmt.Sprintf("Nomor surat %s sudah digunakan", number))
			}
			return apperrors.Internal("Gagal menyetujui permohonan surat", err)
		}
		approved = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.stats.Record(ctx, models.EventLetterApproved, approved.TemplateID)
	s.logger.InfoContext(ctx, "letter request approved",
		"request_id", approved.ID, "nomor_surat", number, "approver_id", approverID)

	return &ApproveResult{
		LetterNumber:     approved.NomorSurat,
		VerificationCode: *approved.VerificationCode,
		Request:          approved,
	}, nil
}

// UpdateStatus moves a request along the lifecycle or edits its notes
func (s *LetterRequestService) UpdateStatus(ctx context.Context, id, actorID string, in UpdateStatusInput) (req *models.LetterRequest, err error) {
	defer func() { s.record("update_status", err) }()

	next, ok := models.ParseLetterStatus(in.Status)
	if !ok {
		return nil, apperrors.Validation(fmt.Sprintf("Status %q tidak dikenal", in.Status))
	}

	var previous models.LetterStatus
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		r, err := tx.FindRequestForUpdate(ctx, id)
		if err != nil {
			return requestStoreError(err, "Gagal mengambil permohonan surat")
		}
		if !r.Status.CanTransitionTo(next) {
			return apperrors.Conflict(fmt.Sprintf("Status tidak dapat diubah dari %s ke %s", r.Status, next))
		}
		previous = r.Status

		now := s.now()
		r.Status = next
		if in.Notes != nil {
			r.Notes = *in.Notes
		}
		if next == models.StatusApproved || next == models.StatusRejected {
			r.ApproverID = &actorID
		}
		if next.Issued() && r.ApprovedAt == nil {
			r.ApprovedAt = &now
		}
		if next == models.StatusApproved && r.VerificationCode == nil {
			code, err := s.newCode(templateCodeOf(r), now)
			if err != nil {
				return apperrors.Internal("Gagal membuat kode verifikasi", err)
			}
			r.VerificationCode = &code
		}

		if err := tx.UpdateRequest(ctx, r); err != nil {
			return apperrors.Internal("Gagal memperbarui status permohonan", err)
		}
		req = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if previous != next {
		switch next {
		case models.StatusApproved:
			s.stats.Record(ctx, models.EventLetterApproved, req.TemplateID)
		case models.StatusRejected:
			s.stats.Record(ctx, models.EventLetterRejected, req.TemplateID)
		}
	}
	s.logger.InfoContext(ctx, "letter request status updated",
		"request_id", req.ID, "from", previous, "to", next, "actor_id", actorID)
	return req, nil
}

// Delete removes a request in any status along with its stored PDF
func (s *LetterRequestService) Delete(ctx context.Context, id string) (err error) {
	defer func() { s.record("delete", err) }()

	r, err := s.store.FindRequestByID(ctx, id)
	if err != nil {
		return requestStoreError(err, "Gagal mengambil permohonan surat")
	}
	if err := s.store.DeleteRequest(ctx, id); err != nil {
		return requestStoreError(err, "Gagal menghapus permohonan surat")
	}

	if r.PdfPath != "" && s.files != nil {
		if err := s.files.DeleteFile(ctx, r.PdfPath); err != nil {
			s.logger.WarnContext(ctx, "failed to delete letter pdf", "request_id", id, "pdf_path", r.PdfPath, "error", err)
		}
	}
	s.logger.InfoContext(ctx, "letter request deleted", "request_id", id, "status", r.Status)
	return nil
}

func (s *LetterRequestService) Get(ctx context.Context, id string) (*models.LetterRequest, error) {
	r, err := s.store.FindRequestByID(ctx, id)
	if err != nil {
		return nil, requestStoreError(err, "Gagal mengambil permohonan surat")
	}
	return r, nil
}

func (s *LetterRequestService) List(ctx context.Context, filter store.RequestFilter) (*RequestList, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("Status %q tidak dikenal", filter.Status))
	}
	filter.Normalize()

	requests, total, err := s.store.ListRequests(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("Gagal mengambil daftar permohonan surat", err)
	}
	if requests == nil {
		requests = []models.LetterRequest{}
	}

	return &RequestList{
		Data:       requests,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int((total + int64(filter.Limit) - 1) / int64(filter.Limit)),
	}, nil
}

// render assembles and renders the letter of r
func (s *LetterRequestService) render(ctx context.Context, r *models.LetterRequest, purpose string) (*LetterContent, error) {
	start := s.now()
	defer func() { s.metrics.ObserveRender(purpose, s.now().Sub(start)) }()

	if r.Template == nil {
		return nil, apperrors.Internal("Gagal menampilkan surat", fmt.Errorf("request %s has no template", r.ID))
	}
	data, err := s.assembler.assemble(ctx, r, s.now())
	if err != nil {
		return nil, apperrors.Internal("Gagal menampilkan surat", err)
	}
	logo, err := s.assembler.logoURL(ctx)
	if err != nil {
		return nil, apperrors.Internal("Gagal menampilkan surat", err)
	}

	return &LetterContent{
		NomorSurat: r.NomorSurat,
		JenisSurat: r.Template.Name,
		Tanggal:    processor.FormatDate(*data.TanggalSurat),
		LogoURL:    logo,
		Content:    processor.Render(r.Template.Template, data),
	}, nil
}

// RenderContent lets administrators read the letter in any status
func (s *LetterRequestService) RenderContent(ctx context.Context, id string) (*LetterContent, error) {
	r, err := s.store.FindRequestByID(ctx, id)
	if err != nil {
		return nil, requestStoreError(err, "Gagal mengambil permohonan surat")
	}
	return s.render(ctx, r, "content")
}

// GeneratePDF renders an issued letter to PDF, stores it and records the
// object on the request. A previously generated PDF is replaced.
func (s *LetterRequestService) GeneratePDF(ctx context.Context, id string) (*PDFResult, error) {
	if s.pdf == nil || s.files == nil {
		return nil, apperrors.Internal("Layanan PDF tidak tersedia", errors.New("pdf converter or storage not configured"))
	}

	r, err := s.store.FindRequestByID(ctx, id)
	if err != nil {
		return nil, requestStoreError(err, "Gagal mengambil permohonan surat")
	}
	if !r.Status.Issued() {
		return nil, apperrors.NotIssued("Surat belum diterbitkan")
	}

	content, err := s.render(ctx, r, "pdf")
	if err != nil {
		return nil, err
	}
	page, err := renderLetterPage(letterPageData{
		Title:            content.JenisSurat,
		NomorSurat:       content.NomorSurat,
		LogoURL:          content.LogoURL,
		VerificationCode: derefString(r.VerificationCode),
	}, content.Content)
	if err != nil {
		return nil, apperrors.Internal("Gagal membuat PDF surat", err)
	}

	start := s.now()
	body, err := s.pdf.ConvertHTMLToPDF(ctx, page)
	if err != nil {
		return nil, apperrors.Internal("Gagal membuat PDF surat", err)
	}
	defer body.Close()

	objectName := storage.LetterPDFObjectName(r.ID, r.NomorSurat, s.now())
	upload, err := s.files.UploadFile(ctx, body, objectName, "application/pdf")
	if err != nil {
		return nil, apperrors.Internal("Gagal menyimpan PDF surat", err)
	}
	s.metrics.ObservePDF(s.now().Sub(start))

	oldPath := r.PdfPath
	r.PdfPath = upload.ObjectName
	if err := s.store.UpdateRequest(ctx, r); err != nil {
		s.files.DeleteFile(ctx, upload.ObjectName)
		return nil, apperrors.Internal("Gagal menyimpan PDF surat", err)
	}
	if oldPath != "" && oldPath != upload.ObjectName {
		if err := s.files.DeleteFile(ctx, oldPath); err != nil {
			s.logger.WarnContext(ctx, "failed to delete replaced letter pdf", "pdf_path", oldPath, "error", err)
		}
	}

	url, err := s.files.GetSignedURL(upload.ObjectName, s.urlExpiry)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to sign letter pdf url", "pdf_path", upload.ObjectName, "error", err)
		url = upload.PublicURL
	}

	s.logger.InfoContext(ctx, "letter pdf generated", "request_id", r.ID, "pdf_path", upload.ObjectName, "size", upload.Size)
	return &PDFResult{PdfPath: upload.ObjectName, URL: url, Size: upload.Size}, nil
}

// Download opens the stored PDF of a request. The caller closes the reader.
func (s *LetterRequestService) Download(ctx context.Context, id string) (io.ReadCloser, string, error) {
	r, err := s.store.FindRequestByID(ctx, id)
	if err != nil {
		return nil, "", requestStoreError(err, "Gagal mengambil permohonan surat")
	}
	if r.PdfPath == "" || s.files == nil {
		return nil, "", apperrors.NotFound("PDF surat belum dibuat")
	}

	body, err := s.files.ReadFile(ctx, r.PdfPath)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, "", apperrors.NotFound("PDF surat belum dibuat")
	}
	if err != nil {
		return nil, "", apperrors.Internal("Gagal membaca PDF surat", err)
	}

	filename := fmt.Sprintf("%s.pdf", strings.NewReplacer("/", "_", " ", "_").Replace(r.NomorSurat))
	return body, filename, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
