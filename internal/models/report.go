package models

import "time"

// TranscriptEntry is one enrollment as it appears on a transcript.
type TranscriptEntry struct {
	EnrollmentID string           `json:"enrollment_id"`
	SubjectName  string           `json:"subject_name"`
	SubjectCode  string           `json:"subject_code"`
	ClassCode    string           `json:"class_code"`
	Credits      int              `json:"credits"`
	Status       EnrollmentStatus `json:"status"`
	FinalGrade   *float64         `json:"final_grade,omitempty"`
	FinalStatus  FinalStatus      `json:"final_status"`
}

// TranscriptSemester groups transcript entries by academic term.
type TranscriptSemester struct {
	Year     int               `json:"year"`
	Semester int               `json:"semester"`
	Label    string            `json:"label"`
	GPA      float64           `json:"gpa"`
	Entries  []TranscriptEntry `json:"entries"`
}

// Transcript is a student's full academic history.
type Transcript struct {
	StudentID        string               `json:"student_id"`
	StudentName      string               `json:"student_name"`
	StudentNumber    string               `json:"student_number"`
	CourseName       string               `json:"course_name"`
	Semesters        []TranscriptSemester `json:"semesters"`
	CumulativeGPA    float64              `json:"cumulative_gpa"`
	CreditsAttempted int                  `json:"credits_attempted"`
	CreditsEarned    int                  `json:"credits_earned"`
	ApprovedCount    int                  `json:"approved_count"`
	FailedCount      int                  `json:"failed_count"`
}

// GradebookRow is one student's line in a class gradebook.
type GradebookRow struct {
	EnrollmentID  string      `json:"enrollment_id"`
	StudentID     string      `json:"student_id"`
	StudentName   string      `json:"student_name"`
	StudentNumber string      `json:"student_number"`
	Scores        []*float64  `json:"scores"`
	FinalGrade    *float64    `json:"final_grade,omitempty"`
	FinalStatus   FinalStatus `json:"final_status"`
}

// Gradebook lists every score of a class group, one row per enrolled student
// and one column per evaluation.
type Gradebook struct {
	ClassGroupID string         `json:"class_group_id"`
	SubjectName  string         `json:"subject_name"`
	ClassCode    string         `json:"class_code"`
	Evaluations  []Evaluation   `json:"evaluations"`
	Rows         []GradebookRow `json:"rows"`
}

// PendingGrade is an enrollment/evaluation pair with no grade row yet.
type PendingGrade struct {
	EnrollmentID   string `json:"enrollment_id"`
	EvaluationID   string `json:"evaluation_id"`
	StudentName    string `json:"student_name"`
	EvaluationName string `json:"evaluation_name"`
}

// ClassSummary aggregates grading and attendance state for one class group.
type ClassSummary struct {
	ClassGroupID       string      `json:"class_group_id"`
	SubjectName        string      `json:"subject_name"`
	ClassCode          string      `json:"class_code"`
	TeacherName        string      `json:"teacher_name"`
	Status             ClassStatus `json:"status"`
	EnrolledCount      int         `json:"enrolled_count"`
	MaxStudents        int         `json:"max_students"`
	CapacityPercentage float64     `json:"capacity_percentage"`
	EvaluationCount    int         `json:"evaluation_count"`
	PendingGradeCount  int         `json:"pending_grade_count"`
	AverageGrade       *float64    `json:"average_grade,omitempty"`
	AverageAttendance  float64     `json:"average_attendance"`
}

// TeacherWorkloadClass is one class group in a teacher's workload report.
type TeacherWorkloadClass struct {
	ClassGroupID  string      `json:"class_group_id"`
	SubjectName   string      `json:"subject_name"`
	ClassCode     string      `json:"class_code"`
	Semester      int         `json:"semester"`
	Year          int         `json:"year"`
	Status        ClassStatus `json:"status"`
	EnrolledCount int         `json:"enrolled_count"`
	WorkloadHours int         `json:"workload_hours"`
}

// TeacherWorkload summarizes a teacher's current teaching load.
type TeacherWorkload struct {
	TeacherID          string                 `json:"teacher_id"`
	TeacherName        string                 `json:"teacher_name"`
	Classes            []TeacherWorkloadClass `json:"classes"`
	TotalClasses       int                    `json:"total_classes"`
	TotalStudents      int                    `json:"total_students"`
	TotalWorkloadHours int                    `json:"total_workload_hours"`
}

// ClassOccupancy is one class group's seat usage.
type ClassOccupancy struct {
	ClassGroupID       string      `db:"class_group_id" json:"class_group_id"`
	SubjectName        string      `db:"subject_name" json:"subject_name"`
	ClassCode          string      `db:"class_code" json:"class_code"`
	Status             ClassStatus `db:"status" json:"status"`
	EnrolledCount      int         `db:"enrolled_count" json:"enrolled_count"`
	MaxStudents        int         `db:"max_students" json:"max_students"`
	CapacityPercentage float64     `json:"capacity_percentage"`
}

// ClassStatsReport covers occupancy across active and planned classes.
type ClassStatsReport struct {
	Classes           []ClassOccupancy `json:"classes"`
	AverageEnrollment float64          `json:"average_enrollment"`
}

// StudentStatsReport breaks the student body down by status and by course.
type StudentStatsReport struct {
	TotalStudents    int                   `json:"total_students"`
	ActiveStudents   int                   `json:"active_students"`
	StudentsByStatus map[StudentStatus]int `json:"students_by_status"`
	StudentsByCourse map[string]int        `json:"students_by_course"`
}

// CourseStatsReport breaks the catalog down by degree type and institution.
// The distributions only count active courses.
type CourseStatsReport struct {
	TotalCourses         int                `json:"total_courses"`
	ActiveCourses        int                `json:"active_courses"`
	CoursesByDegreeType  map[DegreeType]int `json:"courses_by_degree_type"`
	CoursesByInstitution map[string]int     `json:"courses_by_institution"`
}

// PerformanceAggregate is the raw per-student aggregate behind the course
// performance report.
type PerformanceAggregate struct {
	StudentID     string   `db:"student_id"`
	StudentName   string   `db:"student_name"`
	StudentNumber string   `db:"student_number"`
	AverageGrade  *float64 `db:"average_grade"`
	ApprovedCount int      `db:"approved_count"`
	FailedCount   int      `db:"failed_count"`
	Attended      int      `db:"attended"`
	TotalRecords  int      `db:"total_records"`
}

// StudentPerformance is one student's line in a performance report.
type StudentPerformance struct {
	StudentID     string   `json:"student_id"`
	StudentName   string   `json:"student_name"`
	StudentNumber string   `json:"student_number"`
	AverageGrade  *float64 `json:"average_grade,omitempty"`
	Attendance    float64  `json:"attendance"`
	ApprovedCount int      `json:"approved_count"`
	FailedCount   int      `json:"failed_count"`
}

// PerformanceReport ranks students of a course by academic results.
type PerformanceReport struct {
	CourseID   string               `json:"course_id"`
	CourseName string               `json:"course_name"`
	Students   []StudentPerformance `json:"students"`
}

// SystemMetrics is a point-in-time snapshot of process health counters.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	GradeWrites              uint64    `json:"grade_writes"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// DashboardStats is the administrative overview.
type DashboardStats struct {
	TotalStudents     int     `db:"total_students" json:"total_students"`
	ActiveStudents    int     `db:"active_students" json:"active_students"`
	TotalTeachers     int     `db:"total_teachers" json:"total_teachers"`
	TotalCourses      int     `db:"total_courses" json:"total_courses"`
	ActiveClasses     int     `db:"active_classes" json:"active_classes"`
	TotalEnrollments  int     `db:"total_enrollments" json:"total_enrollments"`
	PendingGrades     int     `db:"-" json:"pending_grades"`
	AverageEnrollment float64 `db:"-" json:"average_enrollment"`
}
