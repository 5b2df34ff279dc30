package service

import (
	"strings"

	"github.com/ltkhang/quizcore/internal/model"
)

// AnswerScorer grades a submitted answer against a snapshot question. It is
// pure and deterministic; identical inputs always grade identically.
type AnswerScorer interface {
	IsCorrect(question model.QuestionSnapshot, answer model.AnswerValue) bool
	Points(question model.QuestionSnapshot, answer model.AnswerValue) int
	TotalPoints(snapshot []model.QuestionSnapshot) int
}

type answerScorer struct{}

func NewAnswerScorer() AnswerScorer {
	return &answerScorer{}
}

func (s *answerScorer) IsCorrect(question model.QuestionSnapshot, answer model.AnswerValue) bool {
	if !answer.MatchesType(question.Type) {
		return false
	}
	switch question.Type {
	case model.QuestionTypeMCQ:
		return question.CorrectIndex != nil && answer.SelectedIndex == *question.CorrectIndex
	case model.QuestionTypeTrueFalse:
		return question.CorrectBool != nil && answer.BoolValue == *question.CorrectBool
	case model.QuestionTypeShortAnswer:
		// Exact normalized match only: trimmed, case-insensitive. No partial
		// credit, no fuzzy matching.
		if question.CorrectText == nil {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(answer.TextValue), strings.TrimSpace(*question.CorrectText))
	}
	return false
}

func (s *answerScorer) Points(question model.QuestionSnapshot, answer model.AnswerValue) int {
	if s.IsCorrect(question, answer) {
		return question.Points
	}
	return 0
}

func (s *answerScorer) TotalPoints(snapshot []model.QuestionSnapshot) int {
	total := 0
	for _, q := range snapshot {
		total += q.Points
	}
	return total
}
