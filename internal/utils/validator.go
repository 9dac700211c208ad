package utils

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FormatValidationErrors renders binding errors as an Indonesian sentence.
// Errors that are not validator errors (malformed JSON, wrong types) fall
// back to a generic message.
func FormatValidationErrors(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return "Format data tidak valid"
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			messages = append(messages, field+" wajib diisi")
		case "min":
			messages = append(messages, field+" minimal "+e.Param()+" karakter")
		case "max":
			messages = append(messages, field+" maksimal "+e.Param()+" karakter")
		case "len":
			messages = append(messages, field+" harus "+e.Param()+" karakter")
		case "numeric":
			messages = append(messages, field+" harus berupa angka")
		case "oneof":
			messages = append(messages, field+" harus salah satu: "+e.Param())
		case "url":
			messages = append(messages, field+" harus berupa URL")
		case "required_without":
			messages = append(messages, field+" wajib diisi jika "+e.Param()+" kosong")
		default:
			messages = append(messages, field+" tidak valid")
		}
	}
	return strings.Join(messages, "; ")
}
