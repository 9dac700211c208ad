package processor

import (
	"fmt"
	"math"
	"time"

	"desa-portal/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var indonesianMonths = [12]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// FormatDate renders t as "D MMMM YYYY" with Indonesian month names,
// e.g. "5 Mei 1990". The calendar fields of t are used as-is.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), indonesianMonths[t.Month()-1], t.Year())
}

// FormatNumber renders n with Indonesian digit grouping: "1.500.000",
// "1.234,5". At most three fraction digits are kept.
func FormatNumber(n float64) string {
	p := message.NewPrinter(language.Indonesian)
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return p.Sprintf("%d", int64(n))
	}
	return p.Sprint(number.Decimal(n, number.MaxFractionDigits(3)))
}

// FormatGender maps the stored enum to the wording used on letters.
func FormatGender(g models.Gender) string {
	switch g {
	case models.GenderLakiLaki:
		return "Laki-laki"
	case models.GenderPerempuan:
		return "Perempuan"
	case "":
		return ""
	}
	return string(g)
}

// FormatValue renders a dynamic form value. Empty values render as "".
func FormatValue(v models.FormValue) string {
	switch v.Kind {
	case models.FormValueString:
		return v.Text
	case models.FormValueNumber:
		return FormatNumber(v.Number)
	case models.FormValueDate:
		return FormatDate(v.Date)
	case models.FormValueEmpty:
		return ""
	}
	return ""
}
