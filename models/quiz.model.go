package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Answer kinds stored in Quiz.AnswerKind.
const (
	AnswerSingle   = "single"
	AnswerMultiple = "multiple"
)

// Quiz is attached to at most one lesson. The answer key is kept as a tagged
// variant: AnswerKind says how to read AnswerIndices.
type Quiz struct {
	gorm.Model
	LessonID      uint           `json:"lesson_id" gorm:"uniqueIndex;not null"`
	Question      string         `json:"question" gorm:"type:text"`
	Options       datatypes.JSON `json:"options"`
	AnswerKind    string         `json:"answer_kind,omitempty" gorm:"type:varchar(16);not null"`
	AnswerIndices datatypes.JSON `json:"answer_indices,omitempty"`
}

// OptionList decodes the stored options.
func (q Quiz) OptionList() ([]string, error) {
	var options []string
	if len(q.Options) == 0 {
		return options, nil
	}
	err := json.Unmarshal(q.Options, &options)
	return options, err
}

// WithoutAnswer returns a copy safe to show to students.
func (q Quiz) WithoutAnswer() Quiz {
	q.AnswerKind = ""
	q.AnswerIndices = nil
	return q
}
