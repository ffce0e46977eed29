package models

import "time"

// Grade is one student's result on one evaluation.
// Unique (enrollment_id, evaluation_id). Score may be null when the grade
// row exists but no score was assigned yet.
type Grade struct {
	ID           string     `db:"id" json:"id"`
	EnrollmentID string     `db:"enrollment_id" json:"enrollment_id"`
	EvaluationID string     `db:"evaluation_id" json:"evaluation_id"`
	Score        *float64   `db:"score" json:"score,omitempty"`
	Comments     *string    `db:"comments" json:"comments,omitempty"`
	GradedBy     *string    `db:"graded_by" json:"graded_by,omitempty"`
	GradedAt     *time.Time `db:"graded_at" json:"graded_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// GradeDetail enriches a grade with its evaluation context.
type GradeDetail struct {
	Grade
	EvaluationName   string         `db:"evaluation_name" json:"evaluation_name"`
	EvaluationType   EvaluationType `db:"evaluation_type" json:"evaluation_type"`
	EvaluationWeight float64        `db:"evaluation_weight" json:"evaluation_weight"`
	MaxScore         float64        `db:"max_score" json:"max_score"`
}

// UpsertGradeRequest records or replaces a score for one enrollment and
// evaluation pair.
type UpsertGradeRequest struct {
	EnrollmentID string   `json:"enrollment_id" validate:"required,uuid4"`
	EvaluationID string   `json:"evaluation_id" validate:"required,uuid4"`
	Score        *float64 `json:"score" validate:"omitempty,gte=0"`
	Comments     *string  `json:"comments,omitempty" validate:"omitempty,max=500"`
}

// BatchGradesRequest records scores for many students on one evaluation.
type BatchGradesRequest struct {
	EvaluationID string           `json:"evaluation_id" validate:"required,uuid4"`
	Grades       []BatchGradeItem `json:"grades" validate:"required,min=1,dive"`
}

// BatchGradeItem is one entry of a batch grade submission.
type BatchGradeItem struct {
	EnrollmentID string   `json:"enrollment_id" validate:"required,uuid4"`
	Score        *float64 `json:"score" validate:"omitempty,gte=0"`
	Comments     *string  `json:"comments,omitempty" validate:"omitempty,max=500"`
}

// BatchGradeError reports why one batch item was rejected.
type BatchGradeError struct {
	EnrollmentID string `json:"enrollment_id"`
	Reason       string `json:"reason"`
}
