package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// FormValueKind is the closed set of value kinds a form field can hold
type FormValueKind string

const (
	FormValueEmpty  FormValueKind = "empty"
	FormValueString FormValueKind = "string"
	FormValueNumber FormValueKind = "number"
	FormValueDate   FormValueKind = "date"
)

// DateLayout is the wire format of date values
const DateLayout = "2006-01-02"

// FormValue is one typed value of a letter request's dynamic form data
type FormValue struct {
	Kind   FormValueKind
	Text   string
	Number float64
	Date   time.Time
}

func StringValue(s string) FormValue {
	return FormValue{Kind: FormValueString, Text: s}
}

func NumberValue(n float64) FormValue {
	return FormValue{Kind: FormValueNumber, Number: n}
}

func DateValue(t time.Time) FormValue {
	return FormValue{Kind: FormValueDate, Date: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

func EmptyValue() FormValue {
	return FormValue{Kind: FormValueEmpty}
}

// IsEmpty reports whether the value carries nothing worth rendering
func (v FormValue) IsEmpty() bool {
	switch v.Kind {
	case FormValueString:
		return v.Text == ""
	case FormValueNumber, FormValueDate:
		return false
	}
	return true
}

type formValueJSON struct {
	Kind  FormValueKind   `json:"kind"`
	Value json.RawMessage `json:"value,omitempty"`
}

func (v FormValue) MarshalJSON() ([]byte, error) {
	var raw any
	switch v.Kind {
	case FormValueString:
		raw = v.Text
	case FormValueNumber:
		raw = v.Number
	case FormValueDate:
		raw = v.Date.Format(DateLayout)
	default:
		return json.Marshal(formValueJSON{Kind: FormValueEmpty})
	}
	value, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return json.Marshal(formValueJSON{Kind: v.Kind, Value: value})
}

func (v *FormValue) UnmarshalJSON(data []byte) error {
	var wire formValueJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("invalid form value: %w", err)
	}

	switch wire.Kind {
	case FormValueString:
		var s string
		if err := json.Unmarshal(wire.Value, &s); err != nil {
			return fmt.Errorf("invalid string form value: %w", err)
		}
		*v = StringValue(s)
	case FormValueNumber:
		var n float64
		if err := json.Unmarshal(wire.Value, &n); err != nil {
			return fmt.Errorf("invalid number form value: %w", err)
		}
		*v = NumberValue(n)
	case FormValueDate:
		var s string
		if err := json.Unmarshal(wire.Value, &s); err != nil {
			return fmt.Errorf("invalid date form value: %w", err)
		}
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return fmt.Errorf("invalid date form value %q: %w", s, err)
		}
		*v = DateValue(t)
	case FormValueEmpty, "":
		*v = EmptyValue()
	default:
		return fmt.Errorf("unknown form value kind %q", wire.Kind)
	}
	return nil
}

// FormData maps dynamic field keys to typed values
type FormData map[string]FormValue
