package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"desa-portal/internal/apperrors"
	"desa-portal/internal/metrics"
	"desa-portal/internal/models"
	"desa-portal/internal/processor"
	"desa-portal/internal/store"
)

type VerifyInput struct {
	Code string `json:"code" binding:"required"`
	NIK  string `json:"nik" binding:"required"`
}

// VerificationService serves the public letter check. It never changes a
// request, so repeated calls return the same letter.
type VerificationService struct {
	store     store.Store
	assembler *letterAssembler
	stats     *StatisticsService
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

func NewVerificationService(s store.Store, defaults LetterDefaults, stats *StatisticsService, m *metrics.Metrics, logger *slog.Logger) *VerificationService {
	return &VerificationService{
		store:     s,
		assembler: &letterAssembler{store: s, defaults: defaults},
		stats:     stats,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Verify returns the issued letter behind code when nik belongs to the
// resident it was issued to.
func (s *VerificationService) Verify(ctx context.Context, in VerifyInput) (content *LetterContent, err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = string(apperrors.KindOf(err))
		}
		s.metrics.IncrementVerification(result)
	}()

	code := strings.TrimSpace(in.Code)
	nik := strings.TrimSpace(in.NIK)
	if code == "" || nik == "" {
		return nil, apperrors.Validation("Kode verifikasi dan NIK wajib diisi")
	}

	r, err := s.store.FindRequestByVerificationCode(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound("Kode verifikasi tidak ditemukan")
	}
	if err != nil {
		return nil, apperrors.Internal("Gagal memverifikasi surat", err)
	}

	if r.Penduduk == nil || r.Penduduk.NIK != nik {
		s.logger.WarnContext(ctx, "verification nik mismatch", "request_id", r.ID)
		return nil, apperrors.Forbidden("NIK tidak sesuai dengan data pemohon")
	}
	if !r.Status.Issued() {
		return nil, apperrors.NotIssued("Surat belum diterbitkan")
	}
	if r.Template == nil {
		return nil, apperrors.Internal("Gagal memverifikasi surat", errors.New("verified request has no template"))
	}

	start := s.now()
	data, err := s.assembler.assemble(ctx, r, start)
	if err != nil {
		return nil, apperrors.Internal("Gagal memverifikasi surat", err)
	}
	logo, err := s.assembler.logoURL(ctx)
	if err != nil {
		return nil, apperrors.Internal("Gagal memverifikasi surat", err)
	}
	rendered := processor.Render(r.Template.Template, data)
	s.metrics.ObserveRender("verify", s.now().Sub(start))

	s.stats.Record(ctx, models.EventLetterVerified, r.TemplateID)

	return &LetterContent{
		NomorSurat: r.NomorSurat,
		JenisSurat: r.Template.Name,
		Tanggal:    processor.FormatDate(*data.TanggalSurat),
		LogoURL:    logo,
		Content:    rendered,
	}, nil
}
