package processor

import (
	"strconv"
	"strings"
	"time"

	"desa-portal/internal/models"
)

// missingValue is what a core field renders as when it has no value
const missingValue = "-"

// LetterData is everything a letter template can reference
type LetterData struct {
	NomorSurat           string
	Nama                 string
	NIK                  string
	TempatLahir          string
	TanggalLahir         *time.Time
	JenisKelamin         models.Gender
	Agama                string
	Pekerjaan            string
	Alamat               string
	RT                   string
	RW                   string
	Tujuan               string
	TanggalSurat         *time.Time
	NamaPenandatangan    string
	JabatanPenandatangan string

	// Extra holds the request's dynamic form fields
	Extra models.FormData
}

// Core placeholder keys, in the order template authors see them
var CoreFields = []string{
	"nomorSurat",
	"nama",
	"nik",
	"tempatLahir",
	"tanggalLahir",
	"jenisKelamin",
	"agama",
	"pekerjaan",
	"alamat",
	"rt",
	"rw",
	"tujuan",
	"tanggalSurat",
	"tahun",
	"namaPenandatangan",
	"jabatanPenandatangan",
}

// legacyFields maps bracket placeholders kept for older templates to the
// core field they stand for.
var legacyFields = map[string]string{
	"NOMOR_SURAT":           "nomorSurat",
	"NAMA":                  "nama",
	"NIK":                   "nik",
	"TEMPAT_LAHIR":          "tempatLahir",
	"TANGGAL_LAHIR":         "tanggalLahir",
	"JENIS_KELAMIN":         "jenisKelamin",
	"AGAMA":                 "agama",
	"PEKERJAAN":             "pekerjaan",
	"ALAMAT":                "alamat",
	"TANGGAL_SURAT":         "tanggalSurat",
	"TAHUN":                 "tahun",
	"NAMA_PENANDATANGAN":    "namaPenandatangan",
	"JABATAN_PENANDATANGAN": "jabatanPenandatangan",
}

// IsCoreField reports whether key is part of the fixed vocabulary
func IsCoreField(key string) bool {
	for _, f := range CoreFields {
		if f == key {
			return true
		}
	}
	return false
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return missingValue
	}
	return s
}

func dateOrMissing(t *time.Time) string {
	if t == nil || t.IsZero() {
		return missingValue
	}
	return FormatDate(*t)
}

// values builds the substitution table. Core fields take precedence over
// dynamic fields with the same key.
func (d *LetterData) values() map[string]string {
	tahun := missingValue
	if d.TanggalSurat != nil && !d.TanggalSurat.IsZero() {
		tahun = strconv.Itoa(d.TanggalSurat.Year())
	}

	values := map[string]string{
		"nomorSurat":           orMissing(d.NomorSurat),
		"nama":                 orMissing(d.Nama),
		"nik":                  orMissing(d.NIK),
		"tempatLahir":          orMissing(d.TempatLahir),
		"tanggalLahir":         dateOrMissing(d.TanggalLahir),
		"jenisKelamin":         orMissing(FormatGender(d.JenisKelamin)),
		"agama":                orMissing(d.Agama),
		"pekerjaan":            orMissing(d.Pekerjaan),
		"alamat":               orMissing(d.Alamat),
		"rt":                   orMissing(d.RT),
		"rw":                   orMissing(d.RW),
		"tujuan":               orMissing(d.Tujuan),
		"tanggalSurat":         dateOrMissing(d.TanggalSurat),
		"tahun":                tahun,
		"namaPenandatangan":    orMissing(d.NamaPenandatangan),
		"jabatanPenandatangan": orMissing(d.JabatanPenandatangan),
	}

	for key, v := range d.Extra {
		if _, core := values[key]; core {
			continue
		}
		values[key] = FormatValue(v)
	}
	return values
}

// Render substitutes every {{key}} and legacy [KEY] placeholder in tpl.
//
// The template is scanned once from left to right and substituted text is
// never scanned again, so values that happen to contain placeholder syntax
// are copied verbatim. Placeholders with unknown keys are left untouched.
func Render(tpl string, data *LetterData) string {
	if data == nil {
		data = &LetterData{}
	}
	values := data.values()

	var b strings.Builder
	b.Grow(len(tpl))

	for i := 0; i < len(tpl); {
		switch {
		case strings.HasPrefix(tpl[i:], "{{"):
			if end := strings.Index(tpl[i+2:], "}}"); end >= 0 {
				if value, ok := values[tpl[i+2:i+2+end]]; ok {
					b.WriteString(value)
					i += end + 4
					continue
				}
			}
		case tpl[i] == '[':
			if end := strings.IndexByte(tpl[i+1:], ']'); end >= 0 {
				if field, ok := legacyFields[tpl[i+1:i+1+end]]; ok {
					b.WriteString(values[field])
					i += end + 2
					continue
				}
			}
		}
		b.WriteByte(tpl[i])
		i++
	}

	return b.String()
}

// ExtractPlaceholders returns the distinct {{key}} names in tpl in order of
// first appearance. Legacy bracket placeholders are reported by their core
// field name.
func ExtractPlaceholders(tpl string) []string {
	var keys []string
	seen := make(map[string]bool)
	add := func(key string) {
		if key != "" && !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}

	for i := 0; i < len(tpl); {
		switch {
		case strings.HasPrefix(tpl[i:], "{{"):
			if end := strings.Index(tpl[i+2:], "}}"); end >= 0 {
				key := tpl[i+2 : i+2+end]
				if !strings.ContainsAny(key, "{}") {
					add(key)
					i += end + 4
					continue
				}
			}
		case tpl[i] == '[':
			if end := strings.IndexByte(tpl[i+1:], ']'); end >= 0 {
				if field, ok := legacyFields[tpl[i+1:i+1+end]]; ok {
					add(field)
					i += end + 2
					continue
				}
			}
		}
		i++
	}

	return keys
}
