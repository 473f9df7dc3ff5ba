package insight

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// PredictionInsight is the commentary attached to a score prediction.
type PredictionInsight struct {
	SuccessProbability FlexString `json:"successProbability,omitempty"`
	Strengths          StringList `json:"strengths"`
	Improvements       StringList `json:"improvements"`
	Recommendations    StringList `json:"recommendations"`
}

// ComicPanel is one panel of a four-panel progress story.
type ComicPanel struct {
	Panel    FlexString `json:"panel"`
	Scene    FlexString `json:"scene"`
	Dialogue FlexString `json:"dialogue"`
	Mood     FlexString `json:"mood"`
}

// WhatIfInsight is the projected effect of a hypothetical change.
type WhatIfInsight struct {
	Impact          FlexString `json:"impact"`
	ProjectedScores any        `json:"projectedScores,omitempty"`
	Timeline        FlexString `json:"timeline"`
	ActionSteps     StringList `json:"actionSteps"`
	Challenges      StringList `json:"challenges"`
	Encouragement   FlexString `json:"encouragement"`
}

// FlexString accepts any JSON scalar, or a compacted object/array, as text.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case data[0] == '{' || data[0] == '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*f = FlexString(buf.String())
	default:
		*f = FlexString(data)
	}
	return nil
}

// StringList accepts a JSON array of scalars or a single string.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	switch data[0] {
	case '[':
		var items []FlexString
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make(StringList, 0, len(items))
		for _, item := range items {
			if s := strings.TrimSpace(string(item)); s != "" {
				out = append(out, s)
			}
		}
		*l = out
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s = strings.TrimSpace(s); s == "" {
			*l = nil
			return nil
		}
		*l = StringList{s}
		return nil
	default:
		return fmt.Errorf("insight: cannot read %s as a list", string(data))
	}
}
