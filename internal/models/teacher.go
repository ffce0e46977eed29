package models

import "time"

// TeacherStatus represents a teacher's employment standing.
type TeacherStatus string

const (
	TeacherStatusActive   TeacherStatus = "ACTIVE"
	TeacherStatusInactive TeacherStatus = "INACTIVE"
	TeacherStatusOnLeave  TeacherStatus = "ON_LEAVE"
)

// Valid reports whether the status is known.
func (s TeacherStatus) Valid() bool {
	switch s {
	case TeacherStatusActive, TeacherStatusInactive, TeacherStatusOnLeave:
		return true
	}
	return false
}

var teacherTransitions = map[TeacherStatus][]TeacherStatus{
	TeacherStatusActive:   {TeacherStatusInactive, TeacherStatusOnLeave},
	TeacherStatusInactive: {TeacherStatusActive},
	TeacherStatusOnLeave:  {TeacherStatusActive, TeacherStatusInactive},
}

// CanTransition reports whether a teacher may move between statuses.
func (s TeacherStatus) CanTransition(to TeacherStatus) bool {
	for _, next := range teacherTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Teacher wraps a user identity with employment attributes.
type Teacher struct {
	ID             string        `db:"id" json:"id"`
	UserID         string        `db:"user_id" json:"user_id"`
	EmployeeNumber string        `db:"employee_number" json:"employee_number"`
	Department     *string       `db:"department" json:"department,omitempty"`
	Specialization *string       `db:"specialization" json:"specialization,omitempty"`
	AcademicDegree string        `db:"academic_degree" json:"academic_degree"`
	HireDate       time.Time     `db:"hire_date" json:"hire_date"`
	Status         TeacherStatus `db:"status" json:"status"`
	DocumentType   *string       `db:"document_type" json:"document_type,omitempty"`
	DocumentNumber *string       `db:"document_number" json:"document_number,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// TeacherDetail enriches a teacher with user info.
type TeacherDetail struct {
	Teacher
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
}

// TeacherFilter provides filters for listing teachers.
type TeacherFilter struct {
	Department string
	Status     *TeacherStatus
	Search     string
	Page       int
	PageSize   int
}
