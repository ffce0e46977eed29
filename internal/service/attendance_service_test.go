package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/policy"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
)

type mockAttendanceRepo struct {
	records map[string]*models.Attendance
	nextID  int
}

func (m *mockAttendanceRepo) Exists(ctx context.Context, enrollmentID string, classDate time.Time, classPeriod int) (bool, error) {
	for _, r := range m.records {
		if r.EnrollmentID == enrollmentID && r.ClassDate.Equal(classDate) && r.ClassPeriod == classPeriod {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAttendanceRepo) Create(ctx context.Context, record *models.Attendance) error {
	if m.records == nil {
		m.records = make(map[string]*models.Attendance)
	}
	m.nextID++
	record.ID = string(rune('a' + m.nextID))
	stored := *record
	m.records[record.ID] = &stored
	return nil
}

func (m *mockAttendanceRepo) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	if r, ok := m.records[id]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAttendanceRepo) Update(ctx context.Context, record *models.Attendance) error {
	if _, ok := m.records[record.ID]; !ok {
		return sql.ErrNoRows
	}
	stored := *record
	m.records[record.ID] = &stored
	return nil
}

func (m *mockAttendanceRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.records[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.records, id)
	return nil
}

func (m *mockAttendanceRepo) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Attendance, error) {
	var list []models.Attendance
	for _, r := range m.records {
		if r.EnrollmentID == enrollmentID {
			list = append(list, *r)
		}
	}
	return list, nil
}

func (m *mockAttendanceRepo) StatusCounts(ctx context.Context, enrollmentID string) (map[models.AttendanceStatus]int, error) {
	counts := make(map[models.AttendanceStatus]int)
	for _, r := range m.records {
		if r.EnrollmentID == enrollmentID {
			counts[r.Status]++
		}
	}
	return counts, nil
}

func attendanceServiceFixture() (*AttendanceService, *mockAttendanceRepo) {
	repo := &mockAttendanceRepo{}
	enrollments := &mockEnrollmentReader{enrollments: map[string]*models.EnrollmentDetail{
		testEnrollmentID: {
			Enrollment: models.Enrollment{ID: testEnrollmentID, StudentID: testStudentID, ClassGroupID: testClassGroupID, Status: models.EnrollmentStatusEnrolled},
		},
	}}
	classes := &mockClassGroupReader{classes: map[string]*models.ClassGroupDetail{
		testClassGroupID: {
			ClassGroup: models.ClassGroup{ID: testClassGroupID, TeacherID: testTeacherID, Status: models.ClassStatusActive},
		},
	}}
	return NewAttendanceService(repo, enrollments, classes, validator.New(), zap.NewNop()), repo
}

func TestAttendanceRecordRejectsDuplicatePeriod(t *testing.T) {
	svc, _ := attendanceServiceFixture()
	actor := policy.Actor{UserID: "u1", Role: models.RoleTeacher, TeacherID: testTeacherID}
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.Record(context.Background(), actor, models.RecordAttendanceRequest{
		EnrollmentID: testEnrollmentID,
		ClassDate:    date,
		ClassPeriod:  1,
		Status:       models.AttendancePresent,
	})
	require.NoError(t, err)

	_, err = svc.Record(context.Background(), actor, models.RecordAttendanceRequest{
		EnrollmentID: testEnrollmentID,
		ClassDate:    date,
		ClassPeriod:  1,
		Status:       models.AttendanceAbsent,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func TestAttendanceRecordForbiddenForOtherTeacher(t *testing.T) {
	svc, _ := attendanceServiceFixture()
	actor := policy.Actor{UserID: "u2", Role: models.RoleTeacher, TeacherID: "other-teacher"}

	_, err := svc.Record(context.Background(), actor, models.RecordAttendanceRequest{
		EnrollmentID: testEnrollmentID,
		ClassDate:    time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		ClassPeriod:  1,
		Status:       models.AttendancePresent,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestAttendanceSummaryCountsLateAsAttended(t *testing.T) {
	svc, _ := attendanceServiceFixture()
	actor := policy.Actor{UserID: "u1", Role: models.RoleTeacher, TeacherID: testTeacherID}

	entries := []struct {
		period int
		status models.AttendanceStatus
	}{
		{1, models.AttendancePresent},
		{2, models.AttendanceLate},
		{3, models.AttendanceAbsent},
	}
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	for _, e := range entries {
		_, err := svc.Record(context.Background(), actor, models.RecordAttendanceRequest{
			EnrollmentID: testEnrollmentID,
			ClassDate:    date,
			ClassPeriod:  e.period,
			Status:       e.status,
		})
		require.NoError(t, err)
	}

	summary, err := svc.Summary(context.Background(), actor, testEnrollmentID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Present)
	assert.Equal(t, 1, summary.Late)
	assert.Equal(t, 1, summary.Absent)
	assert.InDelta(t, 66.67, summary.Percentage, 0.001)
}

func TestAttendanceSummaryVisibleToOwnStudent(t *testing.T) {
	svc, _ := attendanceServiceFixture()
	student := policy.Actor{UserID: "u3", Role: models.RoleStudent, StudentID: testStudentID}

	summary, err := svc.Summary(context.Background(), student, testEnrollmentID)
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	assert.Zero(t, summary.Percentage)

	other := policy.Actor{UserID: "u4", Role: models.RoleStudent, StudentID: "someone-else"}
	_, err = svc.Summary(context.Background(), other, testEnrollmentID)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}
