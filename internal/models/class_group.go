package models

import "time"

// ClassStatus represents the lifecycle of a class group offering.
type ClassStatus string

// Class group statuses. COMPLETED and CANCELLED are terminal.
const (
	ClassStatusPlanned   ClassStatus = "PLANNED"
	ClassStatusActive    ClassStatus = "ACTIVE"
	ClassStatusCompleted ClassStatus = "COMPLETED"
	ClassStatusCancelled ClassStatus = "CANCELLED"
)

// Valid reports whether the status is known.
func (s ClassStatus) Valid() bool {
	switch s {
	case ClassStatusPlanned, ClassStatusActive, ClassStatusCompleted, ClassStatusCancelled:
		return true
	}
	return false
}

var classTransitions = map[ClassStatus][]ClassStatus{
	ClassStatusPlanned: {ClassStatusActive, ClassStatusCancelled},
	ClassStatusActive:  {ClassStatusCompleted, ClassStatusCancelled},
}

// CanTransition reports whether a class group may move between statuses.
func (s ClassStatus) CanTransition(to ClassStatus) bool {
	for _, next := range classTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ClassGroup is one offering of a subject in a semester/year, taught by one
// teacher. Unique (subject_id, class_code, semester, year).
type ClassGroup struct {
	ID           string      `db:"id" json:"id"`
	SubjectID    string      `db:"subject_id" json:"subject_id"`
	TeacherID    string      `db:"teacher_id" json:"teacher_id"`
	ClassCode    string      `db:"class_code" json:"class_code"`
	Semester     int         `db:"semester" json:"semester"`
	Year         int         `db:"year" json:"year"`
	MaxStudents  int         `db:"max_students" json:"max_students"`
	Classroom    *string     `db:"classroom" json:"classroom,omitempty"`
	ScheduleInfo *string     `db:"schedule_info" json:"schedule_info,omitempty"`
	Status       ClassStatus `db:"status" json:"status"`
	StartDate    *time.Time  `db:"start_date" json:"start_date,omitempty"`
	EndDate      *time.Time  `db:"end_date" json:"end_date,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// ClassGroupDetail enriches a class group with joined context.
type ClassGroupDetail struct {
	ClassGroup
	SubjectName    string `db:"subject_name" json:"subject_name"`
	SubjectCode    string `db:"subject_code" json:"subject_code"`
	SubjectCredits int    `db:"subject_credits" json:"subject_credits"`
	TeacherName    string `db:"teacher_name" json:"teacher_name"`
	EnrolledCount  int    `db:"enrolled_count" json:"enrolled_count"`
}

// ClassGroupFilter provides filters for listing class groups.
type ClassGroupFilter struct {
	SubjectID string
	TeacherID string
	Status    *ClassStatus
	Semester  *int
	Year      *int
	Page      int
	PageSize  int
}
