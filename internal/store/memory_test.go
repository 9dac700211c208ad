package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"desa-portal/internal/models"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()

	kkID := "kk-1"
	s.store.AddKartuKeluarga(models.KartuKeluarga{ID: kkID, NoKK: "3201010101010001", Alamat: "Jl. Melati 1", RT: "001", RW: "002"})
	s.store.AddPenduduk(models.Penduduk{ID: "p-1", NIK: "3201010101900001", Nama: "Siti Aminah", KartuKeluargaID: &kkID})
	s.Require().NoError(s.store.CreateTemplate(s.ctx, &models.LetterTemplate{ID: "t-1", Code: "SKTM", Name: "Surat Keterangan Tidak Mampu", IsActive: true}))
}

func (s *InMemoryStoreSuite) newRequest(id, nomor string) *models.LetterRequest {
	return &models.LetterRequest{
		ID:         id,
		NomorSurat: nomor,
		Status:     models.StatusPending,
		Purpose:    "Beasiswa",
		PendudukID: "p-1",
		TemplateID: "t-1",
	}
}

// TestTemplateCodeUniqueness verifies template codes cannot be reused.
func (s *InMemoryStoreSuite) TestTemplateCodeUniqueness() {
	err := s.store.CreateTemplate(s.ctx, &models.LetterTemplate{ID: "t-2", Code: "SKTM", Name: "Duplikat"})
	s.ErrorIs(err, ErrDuplicate)

	s.Require().NoError(s.store.CreateTemplate(s.ctx, &models.LetterTemplate{ID: "t-2", Code: "SKD", Name: "Domisili"}))
	t2, err := s.store.FindTemplateByID(s.ctx, "t-2")
	s.Require().NoError(err)
	t2.Code = "SKTM"
	s.ErrorIs(s.store.UpdateTemplate(s.ctx, t2), ErrDuplicate)
}

// TestLetterNumberUniqueness verifies only final letter numbers are unique.
func (s *InMemoryStoreSuite) TestLetterNumberUniqueness() {
	s.Run("temporary numbers may repeat", func() {
		s.Require().NoError(s.store.CreateRequest(s.ctx, s.newRequest("r-1", "TEMP-1700000000000")))
		s.Require().NoError(s.store.CreateRequest(s.ctx, s.newRequest("r-2", "TEMP-1700000000000")))
	})

	s.Run("final numbers may not repeat", func() {
		s.Require().NoError(s.store.CreateRequest(s.ctx, s.newRequest("r-3", "470/1/2025")))
		s.ErrorIs(s.store.CreateRequest(s.ctx, s.newRequest("r-4", "470/1/2025")), ErrDuplicate)

		r1, err := s.store.FindRequestByID(s.ctx, "r-1")
		s.Require().NoError(err)
		r1.NomorSurat = "470/1/2025"
		s.ErrorIs(s.store.UpdateRequest(s.ctx, r1), ErrDuplicate)
	})

	s.Run("number check excludes the request itself", func() {
		taken, err := s.store.LetterNumberTaken(s.ctx, "470/1/2025", "r-3")
		s.Require().NoError(err)
		s.False(taken)

		taken, err = s.store.LetterNumberTaken(s.ctx, "470/1/2025", "r-1")
		s.Require().NoError(err)
		s.True(taken)
	})
}

// TestRelationsAreLoaded verifies requests come back with resident, household and template.
func (s *InMemoryStoreSuite) TestRelationsAreLoaded() {
	code := "SKTM-ABC"
	r := s.newRequest("r-1", "TEMP-1")
	r.VerificationCode = &code
	s.Require().NoError(s.store.CreateRequest(s.ctx, r))

	found, err := s.store.FindRequestByVerificationCode(s.ctx, code)
	s.Require().NoError(err)
	s.Require().NotNil(found.Penduduk)
	s.Require().NotNil(found.Penduduk.KartuKeluarga)
	s.Require().NotNil(found.Template)
	s.Equal("Jl. Melati 1", found.Penduduk.KartuKeluarga.Alamat)
	s.Equal("SKTM", found.Template.Code)

	_, err = s.store.FindRequestByVerificationCode(s.ctx, "missing")
	s.ErrorIs(err, ErrNotFound)
}

// TestListRequests verifies filtering, search and paging.
func (s *InMemoryStoreSuite) TestListRequests() {
	for i, id := range []string{"r-1", "r-2", "r-3"} {
		r := s.newRequest(id, "TEMP-"+id)
		if i == 2 {
			r.Status = models.StatusApproved
			r.NomorSurat = "470/9/2025"
		}
		s.Require().NoError(s.store.CreateRequest(s.ctx, r))
		time.Sleep(time.Millisecond)
	}

	all, total, err := s.store.ListRequests(s.ctx, RequestFilter{})
	s.Require().NoError(err)
	s.EqualValues(3, total)
	s.Equal("r-3", all[0].ID)

	approved, total, err := s.store.ListRequests(s.ctx, RequestFilter{Status: models.StatusApproved})
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal("r-3", approved[0].ID)

	byName, total, err := s.store.ListRequests(s.ctx, RequestFilter{Search: "aminah"})
	s.Require().NoError(err)
	s.EqualValues(3, total)
	s.Len(byName, 3)

	page, total, err := s.store.ListRequests(s.ctx, RequestFilter{Page: 2, Limit: 2})
	s.Require().NoError(err)
	s.EqualValues(3, total)
	s.Len(page, 1)
}

// TestOfficialLookup verifies the signer lookups honour rank and active flag.
func (s *InMemoryStoreSuite) TestOfficialLookup() {
	s.store.AddOfficial(models.PerangkatDesa{ID: "o-1", Nama: "Sekdes", Jabatan: "Sekretaris Desa", Urutan: 2, IsActive: true})
	s.store.AddOfficial(models.PerangkatDesa{ID: "o-2", Nama: "Kades Lama", Jabatan: "Kepala Desa", Urutan: 1, IsActive: false})

	top, err := s.store.FindTopOfficial(s.ctx)
	s.Require().NoError(err)
	s.Equal("o-1", top.ID)

	_, err = s.store.FindActiveOfficial(s.ctx, "kepala desa")
	s.ErrorIs(err, ErrNotFound)

	s.store.AddOfficial(models.PerangkatDesa{ID: "o-3", Nama: "Kades Baru", Jabatan: "Kepala Desa", Urutan: 1, IsActive: true})
	kades, err := s.store.FindActiveOfficial(s.ctx, "KEPALA DESA")
	s.Require().NoError(err)
	s.Equal("o-3", kades.ID)
}

// TestStatistics verifies counters accumulate per day and template.
func (s *InMemoryStoreSuite) TestStatistics() {
	day := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.IncrementStat(s.ctx, models.EventLetterSubmitted, "", day))
	s.Require().NoError(s.store.IncrementStat(s.ctx, models.EventLetterSubmitted, "", day))
	s.Require().NoError(s.store.IncrementStat(s.ctx, models.EventLetterSubmitted, "t-1", day))
	s.Require().NoError(s.store.IncrementStat(s.ctx, models.EventLetterSubmitted, "", day.AddDate(0, 0, 1)))

	totals, err := s.store.StatTotals(s.ctx, "")
	s.Require().NoError(err)
	s.EqualValues(3, totals[models.EventLetterSubmitted])

	series, err := s.store.StatSeries(s.ctx, models.EventLetterSubmitted, day, day.AddDate(0, 0, 7))
	s.Require().NoError(err)
	s.Equal([]models.TimeSeriesPoint{{Date: "2025-03-01", Count: 2}, {Date: "2025-03-02", Count: 1}}, series)
}
