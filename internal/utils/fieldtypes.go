package utils

import (
	"sort"
	"strings"
)

// DataType represents the type of data for a dynamic letter field
type DataType string

const (
	DataTypeText   DataType = "text"
	DataTypeNumber DataType = "number"
	DataTypeDate   DataType = "date"
)

// Valid reports whether t is one of the supported data types
func (t DataType) Valid() bool {
	switch t {
	case DataTypeText, DataTypeNumber, DataTypeDate:
		return true
	}
	return false
}

// InputType represents the HTML input type used by the request form
type InputType string

const (
	InputTypeText     InputType = "text"
	InputTypeTextarea InputType = "textarea"
	InputTypeNumber   InputType = "number"
	InputTypeDate     InputType = "date"
	InputTypeSelect   InputType = "select"
)

// FieldValidation contains validation rules for a field
type FieldValidation struct {
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Options   []string `json:"options,omitempty"`
}

// FieldDefinition describes one dynamic form field of a letter template
type FieldDefinition struct {
	Key         string           `json:"key"`
	Label       string           `json:"label,omitempty"`
	DataType    DataType         `json:"dataType"`
	InputType   InputType        `json:"inputType"`
	Required    bool             `json:"required,omitempty"`
	Validation  *FieldValidation `json:"validation,omitempty"`
	Description string           `json:"description,omitempty"`
	Order       int              `json:"order"`
}

// Common options offered to form authors
var AgamaOptions = []string{
	"Islam",
	"Kristen",
	"Katolik",
	"Hindu",
	"Buddha",
	"Konghucu",
}

var StatusPerkawinanOptions = []string{
	"Belum Kawin",
	"Kawin",
	"Cerai Hidup",
	"Cerai Mati",
}

func floatPtr(v float64) *float64 {
	return &v
}

// DetectFieldType guesses a definition from the placeholder key
func DetectFieldType(key string) FieldDefinition {
	key = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(key, "{{"), "}}"))
	lowerKey := strings.ToLower(key)

	definition := FieldDefinition{
		Key:       key,
		Label:     labelFromKey(key),
		DataType:  DataTypeText,
		InputType: InputTypeText,
	}

	switch {
	case strings.HasPrefix(lowerKey, "tanggal") || strings.HasPrefix(lowerKey, "tgl"):
		definition.DataType = DataTypeDate
		definition.InputType = InputTypeDate
	case strings.HasPrefix(lowerKey, "jumlah") || strings.HasPrefix(lowerKey, "penghasilan") ||
		strings.HasPrefix(lowerKey, "nominal") || strings.HasPrefix(lowerKey, "luas"):
		definition.DataType = DataTypeNumber
		definition.InputType = InputTypeNumber
		definition.Validation = &FieldValidation{Min: floatPtr(0)}
	case lowerKey == "umur" || lowerKey == "usia":
		definition.DataType = DataTypeNumber
		definition.InputType = InputTypeNumber
		definition.Validation = &FieldValidation{Min: floatPtr(0), Max: floatPtr(150)}
	case strings.Contains(lowerKey, "agama"):
		definition.InputType = InputTypeSelect
		definition.Validation = &FieldValidation{Options: AgamaOptions}
	case strings.Contains(lowerKey, "perkawinan"):
		definition.InputType = InputTypeSelect
		definition.Validation = &FieldValidation{Options: StatusPerkawinanOptions}
	case strings.Contains(lowerKey, "alamat") || strings.Contains(lowerKey, "keterangan"):
		definition.InputType = InputTypeTextarea
	}

	return definition
}

// labelFromKey turns camelCase or snake_case keys into a readable label
func labelFromKey(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
			continue
		case i > 0 && r >= 'A' && r <= 'Z':
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	label := strings.Join(strings.Fields(b.String()), " ")
	if label == "" {
		return label
	}
	return strings.ToUpper(label[:1]) + label[1:]
}

// GenerateFieldDefinitions builds definitions for the given placeholder keys,
// ordered by key
func GenerateFieldDefinitions(keys []string) []FieldDefinition {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	definitions := make([]FieldDefinition, 0, len(sorted))
	for i, key := range sorted {
		def := DetectFieldType(key)
		def.Order = i + 1
		definitions = append(definitions, def)
	}
	return definitions
}
