package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"desa-portal/internal/metrics"
	"desa-portal/internal/models"
	"desa-portal/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

var fixedNow = time.Date(2025, time.March, 3, 9, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeConverter struct {
	mu    sync.Mutex
	pages []string
	err   error
}

func (f *fakeConverter) ConvertHTMLToPDF(ctx context.Context, html string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.pages = append(f.pages, html)
	return io.NopCloser(strings.NewReader("%PDF-1.7 fake")), nil
}

// letterSuite wires the services to an in-memory store seeded with one
// resident, one official and one template.
type letterSuite struct {
	suite.Suite

	ctx       context.Context
	store     *store.InMemory
	metrics   *metrics.Metrics
	stats     *StatisticsService
	templates *LetterTemplateService
	requests  *LetterRequestService
	verifier  *VerificationService
	converter *fakeConverter

	template models.LetterTemplate
	resident models.Penduduk
}

func (s *letterSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.metrics = metrics.New(prometheus.NewRegistry())
	logger := discardLogger()

	defaults := LetterDefaults{
		Location:           time.UTC,
		SignerPosition:     "Kepala Desa",
		DefaultSignerName:  "Pejabat Desa",
		DefaultSignerTitle: "Sekretaris Desa",
		DefaultLogoURL:     "/images/logo-default.png",
	}
	now := func() time.Time { return fixedNow }

	s.stats = NewStatisticsService(s.store, logger)
	s.stats.now = now
	s.templates = NewLetterTemplateService(s.store, defaults, s.metrics, logger)
	s.templates.now = now

	s.converter = &fakeConverter{}
	files, err := newTestStorage(s.T().TempDir())
	s.Require().NoError(err)
	s.requests = NewLetterRequestService(s.store, defaults, s.stats, s.converter, files, s.metrics, logger)
	s.requests.now = now

	s.verifier = NewVerificationService(s.store, defaults, s.stats, s.metrics, logger)
	s.verifier.now = now

	birth := time.Date(1990, time.May, 12, 0, 0, 0, 0, time.UTC)
	kk := "kk-1"
	s.store.AddKartuKeluarga(models.KartuKeluarga{ID: kk, NoKK: "3201010101010001", Alamat: "Dusun Krajan", RT: "001", RW: "003"})
	s.resident = models.Penduduk{
		ID:              "p-1",
		NIK:             "1101010101900001",
		Nama:            "Siti Aminah",
		TempatLahir:     "Bogor",
		TanggalLahir:    &birth,
		JenisKelamin:    models.GenderPerempuan,
		Agama:           "Islam",
		Pekerjaan:       "Pedagang",
		KartuKeluargaID: &kk,
	}
	s.store.AddPenduduk(s.resident)
	s.store.AddOfficial(models.PerangkatDesa{ID: "o-1", Nama: "H. Darmawan", Jabatan: "Kepala Desa", Urutan: 1, IsActive: true})

	tpl, err := s.templates.Create(s.ctx, CreateLetterTemplateInput{
		Code:     "sktm",
		Name:     "Surat Keterangan Tidak Mampu",
		Template: "Nomor {{nomorSurat}}. Yth. {{nama}}, NIK {{nik}}, lahir {{tanggalLahir}}. Penghasilan Rp {{penghasilan}}. Keperluan: {{tujuan}}. {{namaPenandatangan}}",
	})
	s.Require().NoError(err)
	s.template = *tpl
}

func (s *letterSuite) submit() *models.LetterRequest {
	s.T().Helper()
	req, err := s.requests.Submit(s.ctx, SubmitLetterRequestInput{
		PendudukID: s.resident.ID,
		TemplateID: s.template.ID,
		Purpose:    "Beasiswa",
		FormData:   rawForm(`{"penghasilan": 1500000}`),
	})
	s.Require().NoError(err)
	return req
}

func (s *letterSuite) approve(id, number string) *ApproveResult {
	s.T().Helper()
	res, err := s.requests.Approve(s.ctx, id, "admin-1", ApproveInput{LetterNumber: number})
	s.Require().NoError(err)
	return res
}
