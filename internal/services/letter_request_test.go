package services

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"desa-portal/internal/apperrors"
	"desa-portal/internal/models"
	"desa-portal/internal/store"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
)

type LetterRequestServiceSuite struct {
	letterSuite
}

func TestLetterRequestServiceSuite(t *testing.T) {
	suite.Run(t, new(LetterRequestServiceSuite))
}

func (s *LetterRequestServiceSuite) TestSubmit() {
	s.Run("creates a pending request with a temporary number", func() {
		req := s.submit()

		s.Equal(models.StatusPending, req.Status)
		s.Equal("TEMP-1740994200000", req.NomorSurat)
		s.Nil(req.VerificationCode)
		s.Equal(models.NumberValue(1500000), req.Data()["penghasilan"])
		s.Require().NotNil(req.Penduduk)
		s.Equal("Siti Aminah", req.Penduduk.Nama)
	})

	s.Run("resolves resident by NIK and template by code", func() {
		req, err := s.requests.Submit(s.ctx, SubmitLetterRequestInput{
			NIK:          s.resident.NIK,
			TemplateCode: "SkTm",
			Purpose:      "Berobat",
		})
		s.Require().NoError(err)
		s.Equal(s.resident.ID, req.PendudukID)
		s.Equal(s.template.ID, req.TemplateID)
	})

	s.Run("missing references or purpose are validation errors", func() {
		cases := []SubmitLetterRequestInput{
			{TemplateID: s.template.ID, Purpose: "x"},
			{PendudukID: s.resident.ID, Purpose: "x"},
			{PendudukID: s.resident.ID, TemplateID: s.template.ID, Purpose: "   "},
		}
		for _, in := range cases {
			_, err := s.requests.Submit(s.ctx, in)
			s.ErrorIs(err, apperrors.ErrValidation)
		}
	})

	s.Run("unknown resident or template is not found", func() {
		_, err := s.requests.Submit(s.ctx, SubmitLetterRequestInput{PendudukID: "nope", TemplateID: s.template.ID, Purpose: "x"})
		s.ErrorIs(err, apperrors.ErrNotFound)

		_, err = s.requests.Submit(s.ctx, SubmitLetterRequestInput{PendudukID: s.resident.ID, TemplateCode: "NOPE", Purpose: "x"})
		s.ErrorIs(err, apperrors.ErrNotFound)
	})

	s.Run("NIK that does not match the resident id is rejected", func() {
		_, err := s.requests.Submit(s.ctx, SubmitLetterRequestInput{
			PendudukID: s.resident.ID, NIK: "9999999999999999", TemplateID: s.template.ID, Purpose: "x",
		})
		s.ErrorIs(err, apperrors.ErrValidation)
	})

	s.Run("inactive template refuses submissions", func() {
		inactive := false
		_, err := s.templates.Update(s.ctx, s.template.ID, UpdateLetterTemplateInput{IsActive: &inactive})
		s.Require().NoError(err)

		_, err = s.requests.Submit(s.ctx, SubmitLetterRequestInput{PendudukID: s.resident.ID, TemplateID: s.template.ID, Purpose: "x"})
		s.ErrorIs(err, apperrors.ErrValidation)
	})
}

func (s *LetterRequestServiceSuite) TestSubmitRejectsInvalidFormData() {
	_, err := s.requests.Submit(s.ctx, SubmitLetterRequestInput{
		PendudukID: s.resident.ID,
		TemplateID: s.template.ID,
		Purpose:    "Beasiswa",
		FormData:   rawForm(`{"penghasilan": "banyak"}`),
	})
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *LetterRequestServiceSuite) TestApprove() {
	req := s.submit()

	res := s.approve(req.ID, "470/123/2025")

	s.Equal("470/123/2025", res.LetterNumber)
	s.True(strings.HasPrefix(res.VerificationCode, "SKTM-"))
	s.Equal(models.StatusApproved, res.Request.Status)
	s.Require().NotNil(res.Request.ApprovedAt)
	s.True(res.Request.ApprovedAt.Equal(fixedNow))
	s.Equal("admin-1", *res.Request.ApproverID)

	stored, err := s.store.FindRequestByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(res.VerificationCode, *stored.VerificationCode)
	s.Equal("470/123/2025", stored.NomorSurat)
}

func (s *LetterRequestServiceSuite) TestApproveTwiceKeepsCode() {
	req := s.submit()
	first := s.approve(req.ID, "470/123/2025")

	_, err := s.requests.Approve(s.ctx, req.ID, "admin-2", ApproveInput{LetterNumber: "470/124/2025"})
	s.ErrorIs(err, apperrors.ErrConflict)

	stored, err := s.store.FindRequestByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(first.VerificationCode, *stored.VerificationCode)
	s.Equal("470/123/2025", stored.NomorSurat)
	s.Equal("admin-1", *stored.ApproverID)
}

func (s *LetterRequestServiceSuite) TestApproveRejectedRequestFails() {
	req := s.submit()
	_, err := s.requests.UpdateStatus(s.ctx, req.ID, "admin-1", UpdateStatusInput{Status: "REJECTED"})
	s.Require().NoError(err)

	_, err = s.requests.Approve(s.ctx, req.ID, "admin-1", ApproveInput{LetterNumber: "470/1/2025"})
	s.ErrorIs(err, apperrors.ErrConflict)

	stored, err := s.store.FindRequestByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusRejected, stored.Status)
	s.Nil(stored.VerificationCode)
}

func (s *LetterRequestServiceSuite) TestApproveValidatesLetterNumber() {
	req := s.submit()

	_, err := s.requests.Approve(s.ctx, req.ID, "admin-1", ApproveInput{LetterNumber: "  "})
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.requests.Approve(s.ctx, req.ID, "admin-1", ApproveInput{LetterNumber: "TEMP-1"})
	s.ErrorIs(err, apperrors.ErrValidation)

	_, err = s.requests.Approve(s.ctx, "missing", "admin-1", ApproveInput{LetterNumber: "470/1/2025"})
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *LetterRequestServiceSuite) TestApproveDuplicateNumberConflicts() {
	first := s.submit()
	second := s.submit()
	s.approve(first.ID, "470/123/2025")

	_, err := s.requests.Approve(s.ctx, second.ID, "admin-1", ApproveInput{LetterNumber: "470/123/2025"})
	s.ErrorIs(err, apperrors.ErrConflict)

	stored, err := s.store.FindRequestByID(s.ctx, second.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, stored.Status)
}

func (s *LetterRequestServiceSuite) TestConcurrentApprovalsWithSameNumber() {
	const n = 8
	ids := make([]string, n)
	for i := range ids {
		ids[i] = s.submit().ID
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := s.requests.Approve(s.ctx, id, "admin-1", ApproveInput{LetterNumber: "470/777/2025"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, apperrors.ErrConflict):
				conflicts++
			}
		}(id)
	}
	wg.Wait()

	s.Equal(1, succeeded)
	s.Equal(n-1, conflicts)
}

func (s *LetterRequestServiceSuite) TestConcurrentApprovalsOfSameRequest() {
	req := s.submit()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.requests.Approve(s.ctx, req.ID, "admin-1", ApproveInput{LetterNumber: "470/" + string(rune('A'+i)) + "/2025"})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	s.Equal(1, succeeded)
}

func (s *LetterRequestServiceSuite) TestUpdateStatus() {
	s.Run("follows the transition table", func() {
		req := s.submit()

		updated, err := s.requests.UpdateStatus(s.ctx, req.ID, "admin-1", UpdateStatusInput{Status: "processing"})
		s.Require().NoError(err)
		s.Equal(models.StatusProcessing, updated.Status)
		s.Nil(updated.ApproverID)

		_, err = s.requests.UpdateStatus(s.ctx, req.ID, "admin-1", UpdateStatusInput{Status: "PENDING"})
		s.ErrorIs(err, apperrors.ErrConflict)

		_, err = s.requests.UpdateStatus(s.ctx, req.ID, "admin-1", UpdateStatusInput{Status: "COMPLETED"})
		s.ErrorIs(err, apperrors.ErrConflict)
	})

	s.Run("approving mints a code and stamps the approver", func() {
		req := s.submit()

		updated, err := s.requests.UpdateStatus(s.ctx, req.ID, "admin-2", UpdateStatusInput{Status: "APPROVED"})
		s.Require().NoError(err)
		s.Require().NotNil(updated.VerificationCode)
		s.True(strings.HasPrefix(*updated.VerificationCode, "SKTM-"))
		s.Equal("admin-2", *updated.ApproverID)
		s.Require().NotNil(updated.ApprovedAt)

		code := *updated.VerificationCode
		completed, err := s.requests.UpdateStatus(s.ctx, req.ID, "admin-3", UpdateStatusInput{Status: "COMPLETED"})
		s.Require().NoError(err)
		s.Equal(code, *completed.VerificationCode)
		s.Equal("admin-2", *completed.ApproverID)
		s.True(completed.ApprovedAt.Equal(*updated.ApprovedAt))
	})

	s.Run("rejecting records the approver", func() {
		req := s.submit()
		notes := "Berkas tidak lengkap"

		updated, err := s.requests.UpdateStatus(s.ctx, req.ID, "admin-4", UpdateStatusInput{Status: "REJECTED", Notes: &notes})
		s.Require().NoError(err)
		s.Equal("admin-4", *updated.ApproverID)
		s.Equal(notes, updated.Notes)
		s.Nil(updated.ApprovedAt)
		s.Nil(updated.VerificationCode)
	})

	s.Run("same status edits notes", func() {
		req := s.submit()
		notes := "Menunggu tanda tangan"

		updated, err := s.requests.UpdateStatus(s.ctx, req.ID, "admin-1", UpdateStatusInput{Status: "PENDING", Notes: &notes})
		s.Require().NoError(err)
		s.Equal(notes, updated.Notes)
	})

	s.Run("unknown status is a validation error", func() {
		req := s.submit()
		_, err := s.requests.UpdateStatus(s.ctx, req.ID, "admin-1", UpdateStatusInput{Status: "ARCHIVED"})
		s.ErrorIs(err, apperrors.ErrValidation)
	})
}

func (s *LetterRequestServiceSuite) TestDeleteIsUnconditional() {
	req := s.submit()
	s.approve(req.ID, "470/123/2025")

	s.Require().NoError(s.requests.Delete(s.ctx, req.ID))

	_, err := s.requests.Get(s.ctx, req.ID)
	s.ErrorIs(err, apperrors.ErrNotFound)
	s.ErrorIs(s.requests.Delete(s.ctx, req.ID), apperrors.ErrNotFound)
}

func (s *LetterRequestServiceSuite) TestList() {
	for i := 0; i < 3; i++ {
		s.submit()
		time.Sleep(time.Millisecond)
	}
	approved := s.submit()
	s.approve(approved.ID, "470/9/2025")

	list, err := s.requests.List(s.ctx, store.RequestFilter{Status: models.StatusPending, Limit: 2})
	s.Require().NoError(err)
	s.Equal(int64(3), list.Total)
	s.Len(list.Data, 2)
	s.Equal(2, list.TotalPages)

	_, err = s.requests.List(s.ctx, store.RequestFilter{Status: "BOGUS"})
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *LetterRequestServiceSuite) TestRenderContent() {
	req := s.submit()

	content, err := s.requests.RenderContent(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Equal(
		"Nomor "+req.NomorSurat+". Yth. Siti Aminah, NIK 1101010101900001, lahir 12 Mei 1990. Penghasilan Rp 1.500.000. Keperluan: Beasiswa. H. Darmawan",
		content.Content,
	)
	s.Equal("3 Maret 2025", content.Tanggal)
	s.Equal("Surat Keterangan Tidak Mampu", content.JenisSurat)
}

func (s *LetterRequestServiceSuite) TestGeneratePDFAndDownload() {
	req := s.submit()

	_, err := s.requests.GeneratePDF(s.ctx, req.ID)
	s.ErrorIs(err, apperrors.ErrNotIssued)

	_, _, err = s.requests.Download(s.ctx, req.ID)
	s.ErrorIs(err, apperrors.ErrNotFound)

	s.approve(req.ID, "470/123/2025")
	res, err := s.requests.GeneratePDF(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Contains(res.PdfPath, "letters/"+req.ID+"/")
	s.Contains(res.URL, "signature=")
	s.Require().Len(s.converter.pages, 1)
	s.Contains(s.converter.pages[0], "470/123/2025")
	s.Contains(s.converter.pages[0], "Siti Aminah")

	body, filename, err := s.requests.Download(s.ctx, req.ID)
	s.Require().NoError(err)
	defer body.Close()
	data, err := io.ReadAll(body)
	s.Require().NoError(err)
	s.Equal("%PDF-1.7 fake", string(data))
	s.Equal("470_123_2025.pdf", filename)
}

func (s *LetterRequestServiceSuite) TestGeneratePDFConverterFailure() {
	req := s.submit()
	s.approve(req.ID, "470/123/2025")
	s.converter.err = errors.New("gotenberg down")

	_, err := s.requests.GeneratePDF(s.ctx, req.ID)
	s.ErrorIs(err, apperrors.ErrInternal)

	stored, err := s.store.FindRequestByID(s.ctx, req.ID)
	s.Require().NoError(err)
	s.Empty(stored.PdfPath)
}

func (s *LetterRequestServiceSuite) TestOperationMetrics() {
	req := s.submit()
	s.approve(req.ID, "470/123/2025")
	_, _ = s.requests.Approve(s.ctx, req.ID, "admin-1", ApproveInput{LetterNumber: "470/124/2025"})

	s.Equal(1.0, testutil.ToFloat64(s.metrics.Operations.WithLabelValues("approve", "success")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Operations.WithLabelValues("approve", "conflict")))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Operations.WithLabelValues("submit", "success")))
}
