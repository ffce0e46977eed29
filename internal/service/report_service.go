package service

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/noah-isme/sga-api/internal/grading"
	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/policy"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
)

type reportRepo interface {
	DashboardCounts(ctx context.Context) (*models.DashboardStats, error)
	CountPendingGrades(ctx context.Context) (int, error)
	CountActiveClassesForTeacher(ctx context.Context, teacherID string) (int, error)
	CountPendingGradesForTeacher(ctx context.Context, teacherID string) (int, error)
	CountActiveEnrollmentsForStudent(ctx context.Context, studentID string) (int, error)
	StudentCountsByStatus(ctx context.Context) (map[string]int, error)
	ActiveStudentCountsByCourse(ctx context.Context) (map[string]int, error)
	CourseCounts(ctx context.Context) (total, active int, err error)
	ActiveCourseCountsByDegreeType(ctx context.Context) (map[string]int, error)
	ActiveCourseCountsByInstitution(ctx context.Context) (map[string]int, error)
	ClassOccupancy(ctx context.Context) ([]models.ClassOccupancy, error)
	TeacherWorkloadRows(ctx context.Context, teacherID string, semester, year *int) ([]models.TeacherWorkloadClass, error)
	PerformanceRows(ctx context.Context, courseID string) ([]models.PerformanceAggregate, error)
	AverageFinalGrade(ctx context.Context, classGroupID string) (*float64, error)
}

type pendingGradeCounter interface {
	CountPending(ctx context.Context, classGroupID string) (int, error)
}

type classPresenceReader interface {
	PresenceByEnrollment(ctx context.Context, classGroupID string) (map[string][2]int, error)
}

type teacherReader interface {
	FindByID(ctx context.Context, id string) (*models.TeacherDetail, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// ReportService produces the read-only aggregate views. Everything is
// computed on demand from the record store; nothing is cached.
type ReportService struct {
	reports     reportRepo
	grades      pendingGradeCounter
	attendances classPresenceReader
	classes     classGroupReader
	evaluations evaluationReader
	teachers    teacherReader
	courses     courseReader
	logger      *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(reports reportRepo, grades pendingGradeCounter, attendances classPresenceReader, classes classGroupReader, evaluations evaluationReader, teachers teacherReader, courses courseReader, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reports:     reports,
		grades:      grades,
		attendances: attendances,
		classes:     classes,
		evaluations: evaluations,
		teachers:    teachers,
		courses:     courses,
		logger:      logger,
	}
}

// Dashboard returns the overview counters, scoped to the caller's role.
// Staff see institution-wide numbers, a teacher sees their own classes and
// pending grades, a student their own enrollments.
func (s *ReportService) Dashboard(ctx context.Context, actor policy.Actor) (*models.DashboardStats, error) {
	stats, err := s.reports.DashboardCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard counts")
	}

	switch actor.Role {
	case models.RoleTeacher:
		classes, err := s.reports.CountActiveClassesForTeacher(ctx, actor.TeacherID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teacher classes")
		}
		pending, err := s.reports.CountPendingGradesForTeacher(ctx, actor.TeacherID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending grades")
		}
		stats.ActiveClasses = classes
		stats.PendingGrades = pending
	case models.RoleStudent:
		enrolled, err := s.reports.CountActiveEnrollmentsForStudent(ctx, actor.StudentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count student enrollments")
		}
		// A student's dashboard counts only themselves.
		stats.ActiveClasses = enrolled
		stats.TotalStudents = 1
		stats.ActiveStudents = 1
	default:
		pending, err := s.reports.CountPendingGrades(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending grades")
		}
		stats.PendingGrades = pending

		occupancy, err := s.reports.ClassOccupancy(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class occupancy")
		}
		counts := make([]int, 0, len(occupancy))
		for _, c := range occupancy {
			counts = append(counts, c.EnrolledCount)
		}
		stats.AverageEnrollment = grading.AverageEnrollment(counts)
	}
	return stats, nil
}

// ClassSummary aggregates grading and attendance state for one class group.
func (s *ReportService) ClassSummary(ctx context.Context, actor policy.Actor, classGroupID string) (*models.ClassSummary, error) {
	class, err := s.classes.FindByID(ctx, classGroupID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class group")
	}
	if !policy.CanManageClass(actor, class.TeacherID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view this class summary")
	}

	evaluations, err := s.evaluations.ListByClassGroup(ctx, classGroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list evaluations")
	}
	pending, err := s.grades.CountPending(ctx, classGroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending grades")
	}
	avgGrade, err := s.reports.AverageFinalGrade(ctx, classGroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to average grades")
	}
	if avgGrade != nil {
		rounded := grading.Round2(*avgGrade)
		avgGrade = &rounded
	}

	presence, err := s.attendances.PresenceByEnrollment(ctx, classGroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	var attendanceSum float64
	for _, pair := range presence {
		attendanceSum += grading.AttendancePercentage(pair[0], pair[1])
	}
	averageAttendance := 0.0
	if len(presence) > 0 {
		averageAttendance = grading.Round2(attendanceSum / float64(len(presence)))
	}

	return &models.ClassSummary{
		ClassGroupID:       class.ID,
		SubjectName:        class.SubjectName,
		ClassCode:          class.ClassCode,
		TeacherName:        class.TeacherName,
		Status:             class.Status,
		EnrolledCount:      class.EnrolledCount,
		MaxStudents:        class.MaxStudents,
		CapacityPercentage: grading.CapacityPercentage(class.EnrolledCount, class.MaxStudents),
		EvaluationCount:    len(evaluations),
		PendingGradeCount:  pending,
		AverageGrade:       avgGrade,
		AverageAttendance:  averageAttendance,
	}, nil
}

// TeacherWorkload summarizes the classes a teacher runs in a period. A
// teacher may only view their own workload.
func (s *ReportService) TeacherWorkload(ctx context.Context, actor policy.Actor, teacherID string, semester, year *int) (*models.TeacherWorkload, error) {
	if actor.Role == models.RoleTeacher && actor.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view another teacher's workload")
	}
	if !policy.Allows(actor.Role, policy.TeacherOrAbove) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view teacher workload")
	}

	teacher, err := s.teachers.FindByID(ctx, teacherID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	classes, err := s.reports.TeacherWorkloadRows(ctx, teacherID, semester, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load workload")
	}

	workload := &models.TeacherWorkload{
		TeacherID:   teacher.ID,
		TeacherName: teacher.FullName,
		Classes:     classes,
	}
	for _, c := range classes {
		workload.TotalClasses++
		workload.TotalStudents += c.EnrolledCount
		workload.TotalWorkloadHours += c.WorkloadHours
	}
	return workload, nil
}

// ClassStats reports seat usage across active and planned class groups.
func (s *ReportService) ClassStats(ctx context.Context, actor policy.Actor) (*models.ClassStatsReport, error) {
	if !policy.Allows(actor.Role, policy.CoordinatorOrAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view class statistics")
	}
	occupancy, err := s.reports.ClassOccupancy(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class occupancy")
	}

	counts := make([]int, 0, len(occupancy))
	for i := range occupancy {
		occupancy[i].CapacityPercentage = grading.CapacityPercentage(occupancy[i].EnrolledCount, occupancy[i].MaxStudents)
		counts = append(counts, occupancy[i].EnrolledCount)
	}
	return &models.ClassStatsReport{
		Classes:           occupancy,
		AverageEnrollment: grading.AverageEnrollment(counts),
	}, nil
}

// StudentStats breaks the student body down by status and by course. Every
// status appears in the distribution, zero buckets included.
func (s *ReportService) StudentStats(ctx context.Context, actor policy.Actor) (*models.StudentStatsReport, error) {
	if !policy.Allows(actor.Role, policy.CoordinatorOrAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view student statistics")
	}
	byStatus, err := s.reports.StudentCountsByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students by status")
	}
	byCourse, err := s.reports.ActiveStudentCountsByCourse(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students by course")
	}

	report := &models.StudentStatsReport{
		StudentsByStatus: map[models.StudentStatus]int{
			models.StudentStatusActive:    0,
			models.StudentStatusInactive:  0,
			models.StudentStatusGraduated: 0,
			models.StudentStatusDropped:   0,
			models.StudentStatusSuspended: 0,
		},
		StudentsByCourse: byCourse,
	}
	if report.StudentsByCourse == nil {
		report.StudentsByCourse = map[string]int{}
	}
	for label, count := range byStatus {
		report.StudentsByStatus[models.StudentStatus(label)] = count
		report.TotalStudents += count
	}
	report.ActiveStudents = report.StudentsByStatus[models.StudentStatusActive]
	return report, nil
}

// CourseStats breaks the catalog down by degree type and institution. The
// distributions only count active courses; every degree type appears, zero
// buckets included.
func (s *ReportService) CourseStats(ctx context.Context, actor policy.Actor) (*models.CourseStatsReport, error) {
	if !policy.Allows(actor.Role, policy.CoordinatorOrAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view course statistics")
	}
	total, active, err := s.reports.CourseCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count courses")
	}
	byDegree, err := s.reports.ActiveCourseCountsByDegreeType(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count courses by degree type")
	}
	byInstitution, err := s.reports.ActiveCourseCountsByInstitution(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count courses by institution")
	}

	report := &models.CourseStatsReport{
		TotalCourses:  total,
		ActiveCourses: active,
		CoursesByDegreeType: map[models.DegreeType]int{
			models.DegreeBachelor:  0,
			models.DegreeMaster:    0,
			models.DegreeDoctorate: 0,
			models.DegreeTechnical: 0,
			models.DegreeOther:     0,
		},
		CoursesByInstitution: byInstitution,
	}
	if report.CoursesByInstitution == nil {
		report.CoursesByInstitution = map[string]int{}
	}
	for label, count := range byDegree {
		report.CoursesByDegreeType[models.DegreeType(label)] = count
	}
	return report, nil
}

// Performance ranks the students of a course by academic results.
func (s *ReportService) Performance(ctx context.Context, actor policy.Actor, courseID string) (*models.PerformanceReport, error) {
	if !policy.Allows(actor.Role, policy.CoordinatorOrAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view performance reports")
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	rows, err := s.reports.PerformanceRows(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load performance rows")
	}

	students := make([]models.StudentPerformance, 0, len(rows))
	for _, row := range rows {
		avg := row.AverageGrade
		if avg != nil {
			rounded := grading.Round2(*avg)
			avg = &rounded
		}
		students = append(students, models.StudentPerformance{
			StudentID:     row.StudentID,
			StudentName:   row.StudentName,
			StudentNumber: row.StudentNumber,
			AverageGrade:  avg,
			Attendance:    grading.AttendancePercentage(row.Attended, row.TotalRecords),
			ApprovedCount: row.ApprovedCount,
			FailedCount:   row.FailedCount,
		})
	}
	return &models.PerformanceReport{
		CourseID:   course.ID,
		CourseName: course.Name,
		Students:   students,
	}, nil
}
