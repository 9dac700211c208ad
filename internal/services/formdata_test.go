package services

import (
	"regexp"
	"testing"
	"time"

	"desa-portal/internal/apperrors"
	"desa-portal/internal/models"
	"desa-portal/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatRef(v float64) *float64 { return &v }
func intRef(v int) *int           { return &v }

func formTemplate() *models.LetterTemplate {
	return &models.LetterTemplate{
		Fields: []utils.FieldDefinition{
			{Key: "penghasilan", Label: "Penghasilan", DataType: utils.DataTypeNumber, Required: true, Validation: &utils.FieldValidation{Min: floatRef(0)}},
			{Key: "tanggalPindah", DataType: utils.DataTypeDate},
			{Key: "statusPerkawinan", DataType: utils.DataTypeText, Validation: &utils.FieldValidation{Options: utils.StatusPerkawinanOptions}},
			{Key: "namaUsaha", DataType: utils.DataTypeText, Validation: &utils.FieldValidation{MaxLength: intRef(5)}},
		},
	}
}

func TestParseFormDataCoercesDeclaredFields(t *testing.T) {
	data, err := ParseFormData(rawForm(`{
		"penghasilan": "1500000",
		"tanggalPindah": "2024-02-29",
		"statusPerkawinan": "kawin",
		"catatan": "bebas",
		"jumlah": 3,
		"kosong": null
	}`), formTemplate())
	require.NoError(t, err)

	assert.Equal(t, models.NumberValue(1500000), data["penghasilan"])
	assert.Equal(t, models.DateValue(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)), data["tanggalPindah"])
	assert.Equal(t, models.StringValue("kawin"), data["statusPerkawinan"])
	assert.Equal(t, models.StringValue("bebas"), data["catatan"])
	assert.Equal(t, models.NumberValue(3), data["jumlah"])
	assert.True(t, data["kosong"].IsEmpty())
}

func TestParseFormDataAcceptsRFC3339Dates(t *testing.T) {
	data, err := ParseFormData(rawForm(`{"penghasilan": 1, "tanggalPindah": "2024-02-29T10:00:00Z"}`), formTemplate())
	require.NoError(t, err)
	assert.Equal(t, models.DateValue(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)), data["tanggalPindah"])
}

func TestParseFormDataRejects(t *testing.T) {
	cases := map[string]string{
		"required missing":    `{}`,
		"required empty":      `{"penghasilan": ""}`,
		"not a number":        `{"penghasilan": "satu juta"}`,
		"below minimum":       `{"penghasilan": -1}`,
		"bad date":            `{"penghasilan": 1, "tanggalPindah": "29/02/2024"}`,
		"option not allowed":  `{"penghasilan": 1, "statusPerkawinan": "Duda"}`,
		"too long":            `{"penghasilan": 1, "namaUsaha": "Warung Makan"}`,
		"object value":        `{"penghasilan": 1, "lain": {"a": 1}}`,
		"array value":         `{"penghasilan": 1, "lain": [1, 2]}`,
		"boolean value":       `{"penghasilan": 1, "lain": true}`,
		"key is not a name":   `{"penghasilan": 1, "nama lengkap": "x"}`,
		"key with braces":     `{"penghasilan": 1, "{{nama}}": "x"}`,
		"declared text array": `{"penghasilan": 1, "namaUsaha": ["a"]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFormData(rawForm(raw), formTemplate())
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestNewVerificationCode(t *testing.T) {
	at := time.UnixMilli(1740994200000)

	code, err := NewVerificationCode("sktm", at)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^SKTM-[0-9A-Z]+-[A-Z2-7]{16}$`), code)

	other, err := NewVerificationCode("SKTM", at)
	require.NoError(t, err)
	assert.NotEqual(t, code, other)

	fallback, err := NewVerificationCode("", at)
	require.NoError(t, err)
	assert.Regexp(t, `^SURAT-`, fallback)
}
