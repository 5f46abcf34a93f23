package validator

import (
	"fmt"
	"strings"

	"github.com/quizdeck/assessment-service/internal/models"
)

// QuestionValidator checks question definitions field by field so a teacher
// sees every problem at once instead of the first one.
type QuestionValidator struct{}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion validates a single question definition. It returns the
// full list of field errors; an empty list means the definition is valid.
func (v *QuestionValidator) ValidateQuestion(q models.Question) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(q.Question) == "" {
		errs = append(errs, ValidationError{Field: "question", Message: "question text cannot be empty"})
	}
	if q.Points < 1 {
		errs = append(errs, ValidationError{Field: "points", Message: "points must be at least 1", Value: q.Points})
	}

	switch q.Type {
	case models.MultipleChoice:
		errs = append(errs, v.validateMultipleChoice(q)...)
	case models.TrueFalse:
		errs = append(errs, v.validateTrueFalse(q)...)
	case models.Identification:
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			errs = append(errs, ValidationError{Field: "correct_answer", Message: "correct answer cannot be empty"})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "type",
			Message: fmt.Sprintf("unknown question type %q", q.Type),
			Value:   string(q.Type),
		})
	}

	if q.BloomClassification != "" &&
		q.BloomClassification != models.BloomHOTS &&
		q.BloomClassification != models.BloomLOTS {
		errs = append(errs, ValidationError{
			Field:   "bloom_classification",
			Message: "must be HOTS or LOTS",
			Value:   string(q.BloomClassification),
		})
	}

	return errs
}

// ValidateQuestions validates a whole quiz question list. Field names are
// prefixed with the question position for reporting.
func (v *QuestionValidator) ValidateQuestions(questions []models.Question) ValidationErrors {
	var errs ValidationErrors
	for i, q := range questions {
		for _, err := range v.ValidateQuestion(q) {
			err.Field = fmt.Sprintf("questions[%d].%s", i, err.Field)
			errs = append(errs, err)
		}
	}
	return errs
}

func (v *QuestionValidator) validateMultipleChoice(q models.Question) ValidationErrors {
	var errs ValidationErrors

	if len(q.Choices) < 2 {
		errs = append(errs, ValidationError{Field: "choices", Message: "must have at least 2 choices", Value: len(q.Choices)})
	}
	for i, c := range q.Choices {
		if strings.TrimSpace(c.Text) == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("choices[%d].text", i),
				Message: "choice text cannot be empty",
			})
		}
	}
	if q.CorrectChoice() == nil {
		errs = append(errs, ValidationError{Field: "choices", Message: "no choice is marked correct"})
	}
	return errs
}

func (v *QuestionValidator) validateTrueFalse(q models.Question) ValidationErrors {
	answer := strings.ToLower(strings.TrimSpace(q.CorrectAnswer))
	if answer != "true" && answer != "false" {
		return ValidationErrors{{
			Field:   "correct_answer",
			Message: "must be \"true\" or \"false\"",
			Value:   q.CorrectAnswer,
		}}
	}
	return nil
}
