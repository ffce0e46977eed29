package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/policy"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
)

type mockReportRepo struct {
	stats           models.DashboardStats
	pending         int
	teacherClasses  map[string]int
	teacherPending  map[string]int
	studentEnrolled map[string]int
	byStatus        map[string]int
	byCourse        map[string]int
	courseTotal     int
	courseActive    int
	byDegree        map[string]int
	byInstitution   map[string]int
	occupancy       []models.ClassOccupancy
	workload        []models.TeacherWorkloadClass
	rows            []models.PerformanceAggregate
	avgGrade        *float64
}

func (m *mockReportRepo) DashboardCounts(ctx context.Context) (*models.DashboardStats, error) {
	stats := m.stats
	return &stats, nil
}

func (m *mockReportRepo) CountPendingGrades(ctx context.Context) (int, error) {
	return m.pending, nil
}

func (m *mockReportRepo) CountActiveClassesForTeacher(ctx context.Context, teacherID string) (int, error) {
	return m.teacherClasses[teacherID], nil
}

func (m *mockReportRepo) CountPendingGradesForTeacher(ctx context.Context, teacherID string) (int, error) {
	return m.teacherPending[teacherID], nil
}

func (m *mockReportRepo) CountActiveEnrollmentsForStudent(ctx context.Context, studentID string) (int, error) {
	return m.studentEnrolled[studentID], nil
}

func (m *mockReportRepo) StudentCountsByStatus(ctx context.Context) (map[string]int, error) {
	return m.byStatus, nil
}

func (m *mockReportRepo) ActiveStudentCountsByCourse(ctx context.Context) (map[string]int, error) {
	return m.byCourse, nil
}

func (m *mockReportRepo) CourseCounts(ctx context.Context) (int, int, error) {
	return m.courseTotal, m.courseActive, nil
}

func (m *mockReportRepo) ActiveCourseCountsByDegreeType(ctx context.Context) (map[string]int, error) {
	return m.byDegree, nil
}

func (m *mockReportRepo) ActiveCourseCountsByInstitution(ctx context.Context) (map[string]int, error) {
	return m.byInstitution, nil
}

func (m *mockReportRepo) ClassOccupancy(ctx context.Context) ([]models.ClassOccupancy, error) {
	return m.occupancy, nil
}

func (m *mockReportRepo) TeacherWorkloadRows(ctx context.Context, teacherID string, semester, year *int) ([]models.TeacherWorkloadClass, error) {
	return m.workload, nil
}

func (m *mockReportRepo) PerformanceRows(ctx context.Context, courseID string) ([]models.PerformanceAggregate, error) {
	return m.rows, nil
}

func (m *mockReportRepo) AverageFinalGrade(ctx context.Context, classGroupID string) (*float64, error) {
	return m.avgGrade, nil
}

type mockPendingCounter struct {
	counts map[string]int
}

func (m *mockPendingCounter) CountPending(ctx context.Context, classGroupID string) (int, error) {
	return m.counts[classGroupID], nil
}

type mockPresenceReader struct {
	presence map[string][2]int
}

func (m *mockPresenceReader) PresenceByEnrollment(ctx context.Context, classGroupID string) (map[string][2]int, error) {
	return m.presence, nil
}

func reportServiceFixture(repo *mockReportRepo) *ReportService {
	pending := &mockPendingCounter{counts: map[string]int{testClassGroupID: 3}}
	presence := &mockPresenceReader{presence: map[string][2]int{
		testEnrollmentID:  {8, 10},
		testEnrollment2ID: {9, 10},
	}}
	classes := &mockClassGroupReader{classes: map[string]*models.ClassGroupDetail{
		testClassGroupID: {
			ClassGroup:    models.ClassGroup{ID: testClassGroupID, TeacherID: testTeacherID, Status: models.ClassStatusActive, MaxStudents: 30},
			SubjectName:   "Data Structures",
			TeacherName:   "Carlos Lima",
			EnrolledCount: 24,
		},
	}}
	evaluations := &mockEvaluationReader{evaluations: map[string]*models.Evaluation{
		testEvaluationID: {ID: testEvaluationID, ClassGroupID: testClassGroupID, Name: "Midterm", Weight: 40, MaxScore: 10},
	}}
	teachers := &mockTeacherReader{teachers: map[string]*models.TeacherDetail{
		testTeacherID: {Teacher: models.Teacher{ID: testTeacherID, Status: models.TeacherStatusActive}, FullName: "Carlos Lima"},
	}}
	courses := &mockCourseRepo{courses: map[string]*models.Course{
		"c1": {ID: "c1", Name: "Computer Science", Active: true},
	}}
	return NewReportService(repo, pending, presence, classes, evaluations, teachers, courses, zap.NewNop())
}

func TestDashboardAggregatesCounts(t *testing.T) {
	repo := &mockReportRepo{
		stats:   models.DashboardStats{TotalStudents: 120, ActiveStudents: 100, ActiveClasses: 6},
		pending: 4,
		occupancy: []models.ClassOccupancy{
			{ClassGroupID: "c1", EnrolledCount: 20, MaxStudents: 30},
			{ClassGroupID: "c2", EnrolledCount: 30, MaxStudents: 30},
		},
	}
	svc := reportServiceFixture(repo)

	stats, err := svc.Dashboard(context.Background(), policy.Actor{Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, 120, stats.TotalStudents)
	assert.Equal(t, 4, stats.PendingGrades)
	assert.InDelta(t, 25.0, stats.AverageEnrollment, 0.001)
}

func TestDashboardScopesTeacherCounts(t *testing.T) {
	repo := &mockReportRepo{
		stats:          models.DashboardStats{TotalStudents: 120, ActiveStudents: 100, ActiveClasses: 6},
		pending:        40,
		teacherClasses: map[string]int{testTeacherID: 2},
		teacherPending: map[string]int{testTeacherID: 5},
	}
	svc := reportServiceFixture(repo)
	teacher := policy.Actor{UserID: "u1", Role: models.RoleTeacher, TeacherID: testTeacherID}

	stats, err := svc.Dashboard(context.Background(), teacher)
	require.NoError(t, err)
	assert.Equal(t, 120, stats.TotalStudents, "headline counts stay institution-wide")
	assert.Equal(t, 2, stats.ActiveClasses, "active classes are the teacher's own")
	assert.Equal(t, 5, stats.PendingGrades, "pending grades cover only the teacher's classes")
}

func TestDashboardScopesStudentView(t *testing.T) {
	repo := &mockReportRepo{
		stats:           models.DashboardStats{TotalStudents: 120, ActiveStudents: 100, ActiveClasses: 6},
		pending:         40,
		studentEnrolled: map[string]int{testStudentID: 4},
	}
	svc := reportServiceFixture(repo)
	student := policy.Actor{UserID: "u3", Role: models.RoleStudent, StudentID: testStudentID}

	stats, err := svc.Dashboard(context.Background(), student)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.ActiveClasses, "a student sees their own enrollment count")
	assert.Equal(t, 1, stats.TotalStudents)
	assert.Equal(t, 1, stats.ActiveStudents)
	assert.Zero(t, stats.PendingGrades)
}

func TestClassSummaryComputesAverages(t *testing.T) {
	repo := &mockReportRepo{avgGrade: ptrFloat(7.456)}
	svc := reportServiceFixture(repo)
	teacher := policy.Actor{UserID: "u1", Role: models.RoleTeacher, TeacherID: testTeacherID}

	summary, err := svc.ClassSummary(context.Background(), teacher, testClassGroupID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.EvaluationCount)
	assert.Equal(t, 3, summary.PendingGradeCount)
	require.NotNil(t, summary.AverageGrade)
	assert.InDelta(t, 7.46, *summary.AverageGrade, 0.001)
	// (80 + 90) / 2 across the two enrollments.
	assert.InDelta(t, 85.0, summary.AverageAttendance, 0.001)
	assert.InDelta(t, 80.0, summary.CapacityPercentage, 0.001)
}

func TestClassSummaryForbiddenForOtherTeacher(t *testing.T) {
	svc := reportServiceFixture(&mockReportRepo{})
	other := policy.Actor{UserID: "u2", Role: models.RoleTeacher, TeacherID: "other-teacher"}

	_, err := svc.ClassSummary(context.Background(), other, testClassGroupID)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestTeacherWorkloadSumsClasses(t *testing.T) {
	repo := &mockReportRepo{workload: []models.TeacherWorkloadClass{
		{ClassGroupID: "c1", EnrolledCount: 24, WorkloadHours: 60},
		{ClassGroupID: "c2", EnrolledCount: 18, WorkloadHours: 30},
	}}
	svc := reportServiceFixture(repo)
	self := policy.Actor{UserID: "u1", Role: models.RoleTeacher, TeacherID: testTeacherID}

	workload, err := svc.TeacherWorkload(context.Background(), self, testTeacherID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, workload.TotalClasses)
	assert.Equal(t, 42, workload.TotalStudents)
	assert.Equal(t, 90, workload.TotalWorkloadHours)
}

func TestTeacherWorkloadScopedToSelf(t *testing.T) {
	svc := reportServiceFixture(&mockReportRepo{})
	other := policy.Actor{UserID: "u2", Role: models.RoleTeacher, TeacherID: "other-teacher"}

	_, err := svc.TeacherWorkload(context.Background(), other, testTeacherID, nil, nil)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestClassStatsComputesCapacity(t *testing.T) {
	repo := &mockReportRepo{occupancy: []models.ClassOccupancy{
		{ClassGroupID: "c1", EnrolledCount: 15, MaxStudents: 30},
		{ClassGroupID: "c2", EnrolledCount: 30, MaxStudents: 30},
	}}
	svc := reportServiceFixture(repo)

	stats, err := svc.ClassStats(context.Background(), policy.Actor{Role: models.RoleCoordinator})
	require.NoError(t, err)
	require.Len(t, stats.Classes, 2)
	assert.InDelta(t, 50.0, stats.Classes[0].CapacityPercentage, 0.001)
	assert.InDelta(t, 100.0, stats.Classes[1].CapacityPercentage, 0.001)
	assert.InDelta(t, 22.5, stats.AverageEnrollment, 0.001)
}

func TestStudentStatsBreaksDownStatusAndCourse(t *testing.T) {
	repo := &mockReportRepo{
		byStatus: map[string]int{"ACTIVE": 80, "GRADUATED": 15, "DROPPED": 5},
		byCourse: map[string]int{"Computer Science": 50, "Mathematics": 30},
	}
	svc := reportServiceFixture(repo)

	stats, err := svc.StudentStats(context.Background(), policy.Actor{Role: models.RoleCoordinator})
	require.NoError(t, err)
	assert.Equal(t, 100, stats.TotalStudents)
	assert.Equal(t, 80, stats.ActiveStudents)
	assert.Equal(t, 15, stats.StudentsByStatus[models.StudentStatusGraduated])
	assert.Zero(t, stats.StudentsByStatus[models.StudentStatusSuspended], "empty buckets still appear")
	assert.Equal(t, 50, stats.StudentsByCourse["Computer Science"])

	_, err = svc.StudentStats(context.Background(), policy.Actor{Role: models.RoleTeacher})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestCourseStatsBreaksDownDegreeAndInstitution(t *testing.T) {
	repo := &mockReportRepo{
		courseTotal:   12,
		courseActive:  10,
		byDegree:      map[string]int{"BACHELOR": 6, "MASTER": 4},
		byInstitution: map[string]int{"Federal Tech": 10, "New Campus": 0},
	}
	svc := reportServiceFixture(repo)

	stats, err := svc.CourseStats(context.Background(), policy.Actor{Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalCourses)
	assert.Equal(t, 10, stats.ActiveCourses)
	assert.Equal(t, 6, stats.CoursesByDegreeType[models.DegreeBachelor])
	assert.Zero(t, stats.CoursesByDegreeType[models.DegreeDoctorate], "empty buckets still appear")
	assert.Equal(t, 10, stats.CoursesByInstitution["Federal Tech"])
	assert.Contains(t, stats.CoursesByInstitution, "New Campus", "institutions without courses still appear")

	_, err = svc.CourseStats(context.Background(), policy.Actor{Role: models.RoleStudent})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestPerformanceRoundsAverages(t *testing.T) {
	repo := &mockReportRepo{rows: []models.PerformanceAggregate{
		{StudentID: "s1", StudentName: "Ana Souza", AverageGrade: ptrFloat(7.456), ApprovedCount: 3, Attended: 8, TotalRecords: 10},
		{StudentID: "s2", StudentName: "Bruno Alves", AverageGrade: nil, TotalRecords: 0},
	}}
	svc := reportServiceFixture(repo)

	report, err := svc.Performance(context.Background(), policy.Actor{Role: models.RoleAdmin}, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Computer Science", report.CourseName)
	require.Len(t, report.Students, 2)
	require.NotNil(t, report.Students[0].AverageGrade)
	assert.InDelta(t, 7.46, *report.Students[0].AverageGrade, 0.001)
	assert.InDelta(t, 80.0, report.Students[0].Attendance, 0.001)
	assert.Nil(t, report.Students[1].AverageGrade)
	assert.Zero(t, report.Students[1].Attendance)

	_, err = svc.Performance(context.Background(), policy.Actor{Role: models.RoleStudent}, "c1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}
