package models

import "time"

// Subject belongs to a course; unique (course_id, code).
type Subject struct {
	ID            string    `db:"id" json:"id"`
	CourseID      string    `db:"course_id" json:"course_id"`
	Name          string    `db:"name" json:"name"`
	Code          string    `db:"code" json:"code"`
	Description   *string   `db:"description" json:"description,omitempty"`
	Credits       int       `db:"credits" json:"credits"`
	WorkloadHours int       `db:"workload_hours" json:"workload_hours"`
	Semester      *int      `db:"semester" json:"semester,omitempty"`
	Mandatory     bool      `db:"mandatory" json:"mandatory"`
	Prerequisites IDList    `db:"prerequisites" json:"prerequisites"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFilter provides filters for listing subjects.
type SubjectFilter struct {
	CourseID string
	Semester *int
	Active   *bool
	Search   string
	Page     int
	PageSize int
}
