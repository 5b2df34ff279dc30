package model

import (
	"encoding/json"
	"fmt"
)

const (
	AnswerKindIndex = "index"
	AnswerKindBool  = "bool"
	AnswerKindText  = "text"
)

// AnswerValue is the tagged union of the three answer shapes. The kind is
// validated on unmarshal and must match the declared question type before an
// answer is recorded.
type AnswerValue struct {
	Kind          string `json:"kind"`
	SelectedIndex int    `json:"selected_index,omitempty"`
	BoolValue     bool   `json:"bool_value,omitempty"`
	TextValue     string `json:"text_value,omitempty"`
}

func IndexAnswer(idx int) AnswerValue {
	return AnswerValue{Kind: AnswerKindIndex, SelectedIndex: idx}
}

func BoolAnswer(v bool) AnswerValue {
	return AnswerValue{Kind: AnswerKindBool, BoolValue: v}
}

func TextAnswer(s string) AnswerValue {
	return AnswerValue{Kind: AnswerKindText, TextValue: s}
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	type raw AnswerValue
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	switch r.Kind {
	case AnswerKindIndex, AnswerKindBool, AnswerKindText:
	default:
		return fmt.Errorf("unknown answer kind %q", r.Kind)
	}
	*v = AnswerValue(r)
	return nil
}

// MatchesType reports whether this value's kind is the one a question of the
// given type expects.
func (v AnswerValue) MatchesType(questionType string) bool {
	switch questionType {
	case QuestionTypeMCQ:
		return v.Kind == AnswerKindIndex
	case QuestionTypeTrueFalse:
		return v.Kind == AnswerKindBool
	case QuestionTypeShortAnswer:
		return v.Kind == AnswerKindText
	}
	return false
}

// AnswerRecord is one recorded answer on an attempt. IsCorrect is computed at
// record time against the attempt snapshot and recomputed on re-answer.
type AnswerRecord struct {
	Answer    AnswerValue `json:"answer"`
	IsCorrect bool        `json:"is_correct"`
}
