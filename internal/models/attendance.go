package models

import "time"

// AttendanceStatus classifies a student's presence in one class period.
type AttendanceStatus string

const (
	AttendancePresent   AttendanceStatus = "PRESENT"
	AttendanceAbsent    AttendanceStatus = "ABSENT"
	AttendanceLate      AttendanceStatus = "LATE"
	AttendanceJustified AttendanceStatus = "JUSTIFIED"
)

// Valid reports whether the status is known.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceJustified:
		return true
	}
	return false
}

// Attended reports whether the status counts toward attendance.
// LATE counts as attended; JUSTIFIED does not.
func (s AttendanceStatus) Attended() bool {
	return s == AttendancePresent || s == AttendanceLate
}

// Attendance is one presence record. Unique (enrollment_id, class_date, class_period).
type Attendance struct {
	ID           string           `db:"id" json:"id"`
	EnrollmentID string           `db:"enrollment_id" json:"enrollment_id"`
	ClassDate    time.Time        `db:"class_date" json:"class_date"`
	ClassPeriod  int              `db:"class_period" json:"class_period"`
	Status       AttendanceStatus `db:"status" json:"status"`
	Notes        *string          `db:"notes" json:"notes,omitempty"`
	RecordedBy   *string          `db:"recorded_by" json:"recorded_by,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// RecordAttendanceRequest records presence for one enrollment and period.
type RecordAttendanceRequest struct {
	EnrollmentID string           `json:"enrollment_id" validate:"required,uuid4"`
	ClassDate    time.Time        `json:"class_date" validate:"required"`
	ClassPeriod  int              `json:"class_period" validate:"required,min=1"`
	Status       AttendanceStatus `json:"status" validate:"required"`
	Notes        *string          `json:"notes,omitempty" validate:"omitempty,max=300"`
}

// UpdateAttendanceRequest amends an existing presence record.
type UpdateAttendanceRequest struct {
	Status AttendanceStatus `json:"status" validate:"required"`
	Notes  *string          `json:"notes,omitempty" validate:"omitempty,max=300"`
}

// AttendanceSummary aggregates presence counts for one enrollment.
type AttendanceSummary struct {
	EnrollmentID string  `json:"enrollment_id"`
	Total        int     `json:"total"`
	Present      int     `json:"present"`
	Absent       int     `json:"absent"`
	Late         int     `json:"late"`
	Justified    int     `json:"justified"`
	Percentage   float64 `json:"percentage"`
}
