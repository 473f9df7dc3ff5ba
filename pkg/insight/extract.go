// Package insight recovers structured data from free-form language-model
// output. Extraction never fails: text that cannot be parsed is handed back
// verbatim so callers can display it as-is.
package insight

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Shape is the top-level JSON form an extraction expects.
type Shape string

const (
	ShapeObject Shape = "object"
	ShapeArray  Shape = "array"
)

func (s Shape) delimiters() (open, close string) {
	if s == ShapeArray {
		return "[", "]"
	}
	return "{", "}"
}

// Method records which attempt produced a Result.
type Method string

const (
	MethodStrict   Method = "strict"
	MethodScan     Method = "scan"
	MethodFallback Method = "fallback"
)

// Result holds either a structured value or the raw text it came from.
type Result[T any] struct {
	Value      T
	Raw        string
	Structured bool
	Method     Method
}

// Extract parses raw as T. It first tries the whole text, then the span from
// the first opening delimiter to the last closing one. When both fail the
// original text is returned unchanged with Structured set to false.
//
// The last-closing-delimiter rule can pick a broken span when the text holds
// several fragments and the final one is truncated; such input falls back.
func Extract[T any](raw string, shape Shape) (result Result[T]) {
	result = Result[T]{Raw: raw, Method: MethodFallback}
	defer func() {
		if r := recover(); r != nil {
			result = Result[T]{Raw: raw, Method: MethodFallback}
		}
	}()

	open, close := shape.delimiters()

	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, open) {
		var v T
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return Result[T]{Value: v, Raw: raw, Structured: true, Method: MethodStrict}
		}
	}

	start := strings.Index(raw, open)
	end := strings.LastIndex(raw, close)
	if start >= 0 && end > start {
		var v T
		if err := json.Unmarshal([]byte(raw[start:end+1]), &v); err == nil {
			return Result[T]{Value: v, Raw: raw, Structured: true, Method: MethodScan}
		}
	}

	return result
}

// Text returns the raw text when extraction fell back.
func (r Result[T]) Text() (string, bool) {
	if r.Structured {
		return "", false
	}
	return r.Raw, true
}

// MarshalJSON renders the structured value, or the raw text as a JSON string.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.Structured {
		return json.Marshal(r.Value)
	}
	return json.Marshal(r.Raw)
}

// UnmarshalJSON restores a Result written by MarshalJSON.
func (r *Result[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Result[T]{Raw: s, Method: MethodFallback}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Result[T]{Value: v, Raw: string(data), Structured: true, Method: MethodStrict}
	return nil
}
