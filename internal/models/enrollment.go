package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusEnrolled  EnrollmentStatus = "ENROLLED"
	EnrollmentStatusDropped   EnrollmentStatus = "DROPPED"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusFailed    EnrollmentStatus = "FAILED"
)

// Valid reports whether the status is known.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusEnrolled, EnrollmentStatusDropped, EnrollmentStatusCompleted, EnrollmentStatusFailed:
		return true
	}
	return false
}

var enrollmentTransitions = map[EnrollmentStatus][]EnrollmentStatus{
	EnrollmentStatusEnrolled: {EnrollmentStatusDropped, EnrollmentStatusCompleted, EnrollmentStatusFailed},
}

// CanTransition reports whether an enrollment may move between statuses.
// Only ENROLLED is non-terminal.
func (s EnrollmentStatus) CanTransition(to EnrollmentStatus) bool {
	for _, next := range enrollmentTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// FinalStatus is the academic outcome of an enrollment.
type FinalStatus string

const (
	FinalStatusInProgress FinalStatus = "IN_PROGRESS"
	FinalStatusApproved   FinalStatus = "APPROVED"
	FinalStatusFailed     FinalStatus = "FAILED"
	FinalStatusIncomplete FinalStatus = "INCOMPLETE"
)

// Valid reports whether the final status is known.
func (s FinalStatus) Valid() bool {
	switch s {
	case FinalStatusInProgress, FinalStatusApproved, FinalStatusFailed, FinalStatusIncomplete:
		return true
	}
	return false
}

// Enrollment links a student to a class group. Unique (student_id, class_group_id).
// FinalGrade is maintained by the grade repository whenever grades change.
type Enrollment struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	ClassGroupID   string           `db:"class_group_id" json:"class_group_id"`
	EnrollmentDate time.Time        `db:"enrollment_date" json:"enrollment_date"`
	Status         EnrollmentStatus `db:"status" json:"status"`
	FinalGrade     *float64         `db:"final_grade" json:"final_grade,omitempty"`
	FinalStatus    FinalStatus      `db:"final_status" json:"final_status"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches an enrollment with joined context.
type EnrollmentDetail struct {
	Enrollment
	StudentName   string `db:"student_name" json:"student_name"`
	StudentNumber string `db:"student_number" json:"student_number"`
	SubjectName   string `db:"subject_name" json:"subject_name"`
	SubjectCode   string `db:"subject_code" json:"subject_code"`
	ClassCode     string `db:"class_code" json:"class_code"`
	Semester      int    `db:"semester" json:"semester"`
	Year          int    `db:"year" json:"year"`
	Credits       int    `db:"credits" json:"credits"`
}

// EnrollRequest creates a new enrollment.
type EnrollRequest struct {
	StudentID    string `json:"student_id" validate:"required,uuid4"`
	ClassGroupID string `json:"class_group_id" validate:"required,uuid4"`
}

// EnrollmentStatusRequest changes an enrollment's lifecycle status.
type EnrollmentStatusRequest struct {
	Status      EnrollmentStatus `json:"status" validate:"required"`
	FinalStatus *FinalStatus     `json:"final_status,omitempty"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID    string
	ClassGroupID string
	Status       *EnrollmentStatus
	Page         int
	PageSize     int
}
