package processor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"desa-portal/internal/models"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestRenderScenario(t *testing.T) {
	out := Render("Yth. {{nama}}, NIK {{nik}}, lahir {{tanggalLahir}}.", &LetterData{
		Nama:         "Siti",
		NIK:          "1101010101900001",
		TanggalLahir: date(1990, time.May, 12),
	})

	assert.Equal(t, "Yth. Siti, NIK 1101010101900001, lahir 12 Mei 1990.", out)
}

func TestRenderLegacyAlongsideBraces(t *testing.T) {
	out := Render("[NAMA] / {{nama}} / [NAMA]", &LetterData{Nama: "Budi"})
	assert.Equal(t, "Budi / Budi / Budi", out)
}

func TestRenderMissingFields(t *testing.T) {
	data := &LetterData{
		Extra: models.FormData{
			"namaUsaha": models.EmptyValue(),
			"catatan":   models.StringValue(""),
		},
	}

	t.Run("core fields render as dash", func(t *testing.T) {
		for _, key := range CoreFields {
			assert.Equal(t, "-", Render("{{"+key+"}}", data), key)
		}
	})

	t.Run("legacy fields render as dash", func(t *testing.T) {
		assert.Equal(t, "- - -", Render("[NAMA] [TANGGAL_LAHIR] [TAHUN]", data))
	})

	t.Run("dynamic fields render as empty string", func(t *testing.T) {
		assert.Equal(t, "usaha=;catatan=", Render("usaha={{namaUsaha}};catatan={{catatan}}", data))
	})
}

func TestRenderFormatting(t *testing.T) {
	data := &LetterData{
		JenisKelamin: models.GenderPerempuan,
		TanggalSurat: date(2025, time.January, 5),
		Extra: models.FormData{
			"penghasilan":  models.NumberValue(1500000),
			"luasTanah":    models.NumberValue(1234.5),
			"tanggalUsaha": models.DateValue(time.Date(2020, time.August, 17, 0, 0, 0, 0, time.UTC)),
			"namaUsaha":    models.StringValue("Warung Makan"),
		},
	}

	cases := map[string]string{
		"{{jenisKelamin}}": "Perempuan",
		"{{tanggalSurat}}": "5 Januari 2025",
		"{{tahun}}":        "2025",
		"[TAHUN]":          "2025",
		"{{penghasilan}}":  "1.500.000",
		"{{luasTanah}}":    "1.234,5",
		"{{tanggalUsaha}}": "17 Agustus 2020",
		"{{namaUsaha}}":    "Warung Makan",
		"[JENIS_KELAMIN]":  "Perempuan",
		"[TANGGAL_SURAT]":  "5 Januari 2025",
	}
	for tpl, want := range cases {
		assert.Equal(t, want, Render(tpl, data), tpl)
	}

	assert.Equal(t, "Laki-laki", Render("{{jenisKelamin}}", &LetterData{JenisKelamin: models.GenderLakiLaki}))
}

func TestRenderDoesNotRescanSubstitutedText(t *testing.T) {
	data := &LetterData{
		Nama:   "{{nik}}",
		NIK:    "3201",
		Alamat: "[NAMA]",
	}

	out := Render("{{nama}}|{{nik}}|{{alamat}}", data)
	assert.Equal(t, "{{nik}}|3201|[NAMA]", out)
}

func TestRenderIsIdempotentOnSubstitutedPlaceholders(t *testing.T) {
	data := &LetterData{
		Nama:         "Siti",
		NIK:          "1101010101900001",
		TanggalLahir: date(1990, time.May, 12),
		Extra:        models.FormData{"keperluan": models.StringValue("beasiswa")},
	}
	tpl := "{{nama}} {{nik}} [NAMA] {{tanggalLahir}} {{keperluan}} {{unknown}}"

	once := Render(tpl, data)
	twice := Render(once, data)
	assert.Equal(t, once, twice)
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	data := &LetterData{Nama: "Siti"}

	assert.Equal(t, "{{tidakAda}} [TIDAK_ADA] [RT] {{nama", Render("{{tidakAda}} [TIDAK_ADA] [RT] {{nama", data))
	assert.Equal(t, "{Siti}", Render("{{{nama}}}", data))
	assert.Equal(t, "", Render("", data))
}

func TestRenderCoreFieldsWinOverDynamicFields(t *testing.T) {
	data := &LetterData{
		NIK:   "3201010101900001",
		Extra: models.FormData{"nik": models.StringValue("9999")},
	}
	assert.Equal(t, "3201010101900001", Render("{{nik}}", data))
}

func TestRenderNilData(t *testing.T) {
	assert.Equal(t, "- {{x}}", Render("{{nama}} {{x}}", nil))
}

func TestExtractPlaceholders(t *testing.T) {
	keys := ExtractPlaceholders("{{nama}} [NIK] {{namaUsaha}} {{nama}} [LAINNYA] {{nik}}")
	require.Equal(t, []string{"nama", "nik", "namaUsaha"}, keys)
	assert.Empty(t, ExtractPlaceholders("tanpa placeholder"))
}

func TestFormatDateUsesIndonesianMonths(t *testing.T) {
	assert.Equal(t, "5 Mei 1990", FormatDate(time.Date(1990, time.May, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "31 Desember 2024", FormatDate(time.Date(2024, time.December, 31, 23, 0, 0, 0, time.UTC)))
}
