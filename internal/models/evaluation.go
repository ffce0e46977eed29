package models

import "time"

// EvaluationType categorizes an assessment instrument.
type EvaluationType string

const (
	EvaluationTypeExam         EvaluationType = "EXAM"
	EvaluationTypeAssignment   EvaluationType = "ASSIGNMENT"
	EvaluationTypeProject      EvaluationType = "PROJECT"
	EvaluationTypeQuiz         EvaluationType = "QUIZ"
	EvaluationTypePresentation EvaluationType = "PRESENTATION"
	EvaluationTypeOther        EvaluationType = "OTHER"
)

// Valid reports whether the type is known.
func (t EvaluationType) Valid() bool {
	switch t {
	case EvaluationTypeExam, EvaluationTypeAssignment, EvaluationTypeProject,
		EvaluationTypeQuiz, EvaluationTypePresentation, EvaluationTypeOther:
		return true
	}
	return false
}

// Evaluation is an assessment instrument defined for a class group.
// Weight must be positive; it is relative, not a percentage.
type Evaluation struct {
	ID           string         `db:"id" json:"id"`
	ClassGroupID string         `db:"class_group_id" json:"class_group_id"`
	Name         string         `db:"name" json:"name"`
	Type         EvaluationType `db:"type" json:"type"`
	Description  *string        `db:"description" json:"description,omitempty"`
	Weight       float64        `db:"weight" json:"weight"`
	MaxScore     float64        `db:"max_score" json:"max_score"`
	Date         *time.Time     `db:"date" json:"date,omitempty"`
	IsPublished  bool           `db:"is_published" json:"is_published"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// CreateEvaluationRequest creates an evaluation for a class group.
type CreateEvaluationRequest struct {
	ClassGroupID string         `json:"class_group_id" validate:"required,uuid4"`
	Name         string         `json:"name" validate:"required,min=2,max=150"`
	Type         EvaluationType `json:"type" validate:"required"`
	Description  *string        `json:"description,omitempty"`
	Weight       float64        `json:"weight" validate:"required,gt=0"`
	MaxScore     float64        `json:"max_score" validate:"required,gt=0"`
	Date         *time.Time     `json:"date,omitempty"`
}

// UpdateEvaluationRequest updates evaluation attributes.
type UpdateEvaluationRequest struct {
	Name        *string         `json:"name,omitempty" validate:"omitempty,min=2,max=150"`
	Type        *EvaluationType `json:"type,omitempty"`
	Description *string         `json:"description,omitempty"`
	Weight      *float64        `json:"weight,omitempty" validate:"omitempty,gt=0"`
	MaxScore    *float64        `json:"max_score,omitempty" validate:"omitempty,gt=0"`
	Date        *time.Time      `json:"date,omitempty"`
	IsPublished *bool           `json:"is_published,omitempty"`
}
