package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"desa-portal/internal/apperrors"
	"desa-portal/internal/models"
	"desa-portal/internal/utils"
)

var formKeyPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ParseFormData converts raw JSON form values into typed values. Fields the
// template declares are coerced to their data type and checked against
// their rules; other keys accept strings and numbers only.
func ParseFormData(raw map[string]json.RawMessage, tpl *models.LetterTemplate) (models.FormData, error) {
	data := make(models.FormData, len(raw))

	for key, msg := range raw {
		if !formKeyPattern.MatchString(key) {
			return nil, apperrors.Validation(fmt.Sprintf("Nama field %q tidak valid", key))
		}

		var value any
		dec := json.NewDecoder(bytes.NewReader(msg))
		dec.UseNumber()
		if err := dec.Decode(&value); err != nil {
			return nil, apperrors.Validation(fmt.Sprintf("Nilai field %s tidak valid", key))
		}

		var (
			parsed models.FormValue
			err    error
		)
		if field, ok := tpl.Field(key); ok {
			parsed, err = coerceField(field, value)
		} else {
			parsed, err = coerceLoose(key, value)
		}
		if err != nil {
			return nil, err
		}
		data[key] = parsed
	}

	for _, field := range tpl.Fields {
		if !field.Required {
			continue
		}
		if v, ok := data[field.Key]; !ok || v.IsEmpty() {
			return nil, apperrors.Validation(fmt.Sprintf("%s wajib diisi", fieldLabel(field)))
		}
	}

	return data, nil
}

func fieldLabel(f utils.FieldDefinition) string {
	if f.Label != "" {
		return f.Label
	}
	return f.Key
}

// coerceLoose handles keys the template does not declare
func coerceLoose(key string, value any) (models.FormValue, error) {
	switch v := value.(type) {
	case nil:
		return models.EmptyValue(), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return models.EmptyValue(), nil
		}
		return models.StringValue(v), nil
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return models.FormValue{}, apperrors.Validation(fmt.Sprintf("Nilai field %s tidak valid", key))
		}
		return models.NumberValue(n), nil
	}
	return models.FormValue{}, apperrors.Validation(fmt.Sprintf("Field %s harus berupa teks atau angka", key))
}

func coerceField(field utils.FieldDefinition, value any) (models.FormValue, error) {
	label := fieldLabel(field)

	if value == nil {
		return models.EmptyValue(), nil
	}
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return models.EmptyValue(), nil
	}

	switch field.DataType {
	case utils.DataTypeNumber:
		n, err := toNumber(value)
		if err != nil {
			return models.FormValue{}, apperrors.Validation(fmt.Sprintf("%s harus berupa angka", label))
		}
		if err := checkNumber(field, n); err != nil {
			return models.FormValue{}, err
		}
		return models.NumberValue(n), nil

	case utils.DataTypeDate:
		s, ok := value.(string)
		if !ok {
			return models.FormValue{}, apperrors.Validation(fmt.Sprintf("%s harus berupa tanggal", label))
		}
		t, err := parseDate(s)
		if err != nil {
			return models.FormValue{}, apperrors.Validation(fmt.Sprintf("%s harus berformat YYYY-MM-DD", label))
		}
		return models.DateValue(t), nil

	default:
		var s string
		switch v := value.(type) {
		case string:
			s = strings.TrimSpace(v)
		case json.Number:
			s = v.String()
		default:
			return models.FormValue{}, apperrors.Validation(fmt.Sprintf("%s harus berupa teks", label))
		}
		if err := checkText(field, s); err != nil {
			return models.FormValue{}, err
		}
		return models.StringValue(s), nil
	}
}

func toNumber(value any) (float64, error) {
	switch v := value.(type) {
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	}
	return 0, fmt.Errorf("not a number: %T", value)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(models.DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func checkNumber(field utils.FieldDefinition, n float64) error {
	rules := field.Validation
	if rules == nil {
		return nil
	}
	label := fieldLabel(field)
	if rules.Min != nil && n < *rules.Min {
		return apperrors.Validation(fmt.Sprintf("%s minimal %v", label, *rules.Min))
	}
	if rules.Max != nil && n > *rules.Max {
		return apperrors.Validation(fmt.Sprintf("%s maksimal %v", label, *rules.Max))
	}
	return nil
}

func checkText(field utils.FieldDefinition, s string) error {
	rules := field.Validation
	if rules == nil {
		return nil
	}
	label := fieldLabel(field)
	length := utf8.RuneCountInString(s)
	if rules.MinLength != nil && length < *rules.MinLength {
		return apperrors.Validation(fmt.Sprintf("%s minimal %d karakter", label, *rules.MinLength))
	}
	if rules.MaxLength != nil && length > *rules.MaxLength {
		return apperrors.Validation(fmt.Sprintf("%s maksimal %d karakter", label, *rules.MaxLength))
	}
	if len(rules.Options) > 0 {
		for _, opt := range rules.Options {
			if strings.EqualFold(opt, s) {
				return nil
			}
		}
		return apperrors.Validation(fmt.Sprintf("%s harus salah satu dari: %s", label, strings.Join(rules.Options, ", ")))
	}
	return nil
}
