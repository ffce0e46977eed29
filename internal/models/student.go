package models

import "time"

// StudentStatus represents a student's standing.
type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "ACTIVE"
	StudentStatusInactive  StudentStatus = "INACTIVE"
	StudentStatusGraduated StudentStatus = "GRADUATED"
	StudentStatusDropped   StudentStatus = "DROPPED"
	StudentStatusSuspended StudentStatus = "SUSPENDED"
)

// Valid reports whether the status is known.
func (s StudentStatus) Valid() bool {
	switch s {
	case StudentStatusActive, StudentStatusInactive, StudentStatusGraduated, StudentStatusDropped, StudentStatusSuspended:
		return true
	}
	return false
}

var studentTransitions = map[StudentStatus][]StudentStatus{
	StudentStatusActive:    {StudentStatusInactive, StudentStatusGraduated, StudentStatusDropped, StudentStatusSuspended},
	StudentStatusInactive:  {StudentStatusActive, StudentStatusDropped},
	StudentStatusSuspended: {StudentStatusActive, StudentStatusDropped},
}

// CanTransition reports whether a student may move between statuses.
// GRADUATED and DROPPED are terminal.
func (s StudentStatus) CanTransition(to StudentStatus) bool {
	for _, next := range studentTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Student wraps a user identity with academic attributes.
type Student struct {
	ID             string        `db:"id" json:"id"`
	UserID         string        `db:"user_id" json:"user_id"`
	StudentNumber  string        `db:"student_number" json:"student_number"`
	CourseID       string        `db:"course_id" json:"course_id"`
	EnrollmentDate time.Time     `db:"enrollment_date" json:"enrollment_date"`
	Status         StudentStatus `db:"status" json:"status"`
	BirthDate      *time.Time    `db:"birth_date" json:"birth_date,omitempty"`
	DocumentType   *string       `db:"document_type" json:"document_type,omitempty"`
	DocumentNumber *string       `db:"document_number" json:"document_number,omitempty"`
	Address        *string       `db:"address" json:"address,omitempty"`
	City           *string       `db:"city" json:"city,omitempty"`
	State          *string       `db:"state" json:"state,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentDetail enriches a student with user and course info.
type StudentDetail struct {
	Student
	FullName   string `db:"full_name" json:"full_name"`
	Email      string `db:"email" json:"email"`
	CourseName string `db:"course_name" json:"course_name"`
}

// StudentFilter provides filters for listing students.
type StudentFilter struct {
	CourseID string
	Status   *StudentStatus
	Search   string
	Page     int
	PageSize int
}
