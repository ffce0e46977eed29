package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/policy"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
)

const (
	testEnrollmentID  = "6f1e5d94-9e0a-4b8b-a8f3-3bb7f4f1c2d1"
	testEnrollment2ID = "7a2b6c05-1f1b-4c9c-b9e4-4cc8a5a2d3e2"
	testEvaluationID  = "2c1a47e2-9f05-4f0a-bd9e-5a6a6c1e0f42"
	testClassGroupID  = "b47ac10b-58cc-4372-a567-0e02b2c3d479"
	testTeacherID     = "9d3f2e81-7b46-4a1d-8c5e-1f0a9b8c7d6e"
)

type mockGradeRepo struct {
	stored  map[string]models.Grade
	pending []models.PendingGrade
}

func (m *mockGradeRepo) key(enrollmentID, evaluationID string) string {
	return enrollmentID + "|" + evaluationID
}

func (m *mockGradeRepo) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	for _, g := range m.stored {
		if g.ID == id {
			found := g
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockGradeRepo) ListForEnrollment(ctx context.Context, enrollmentID string) ([]models.GradeDetail, error) {
	var result []models.GradeDetail
	for _, g := range m.stored {
		if g.EnrollmentID == enrollmentID {
			result = append(result, models.GradeDetail{Grade: g})
		}
	}
	return result, nil
}

func (m *mockGradeRepo) ListForClass(ctx context.Context, classGroupID string) ([]models.Grade, error) {
	var result []models.Grade
	for _, g := range m.stored {
		result = append(result, g)
	}
	return result, nil
}

func (m *mockGradeRepo) Upsert(ctx context.Context, grade *models.Grade) error {
	if m.stored == nil {
		m.stored = make(map[string]models.Grade)
	}
	m.stored[m.key(grade.EnrollmentID, grade.EvaluationID)] = *grade
	return nil
}

func (m *mockGradeRepo) BatchUpsert(ctx context.Context, grades []models.Grade) error {
	for i := range grades {
		_ = m.Upsert(ctx, &grades[i])
	}
	return nil
}

func (m *mockGradeRepo) Delete(ctx context.Context, id string) error {
	for key, g := range m.stored {
		if g.ID == id {
			delete(m.stored, key)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockGradeRepo) ListPending(ctx context.Context, classGroupID string) ([]models.PendingGrade, error) {
	return m.pending, nil
}

type mockEnrollmentReader struct {
	enrollments map[string]*models.EnrollmentDetail
}

func (m *mockEnrollmentReader) FindByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if e, ok := m.enrollments[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentReader) ListByClass(ctx context.Context, classGroupID string, status *models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	var list []models.EnrollmentDetail
	for _, e := range m.enrollments {
		if e.ClassGroupID != classGroupID {
			continue
		}
		if status != nil && e.Status != *status {
			continue
		}
		list = append(list, *e)
	}
	return list, nil
}

type mockEvaluationReader struct {
	evaluations map[string]*models.Evaluation
}

func (m *mockEvaluationReader) FindByID(ctx context.Context, id string) (*models.Evaluation, error) {
	if e, ok := m.evaluations[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEvaluationReader) ListByClassGroup(ctx context.Context, classGroupID string) ([]models.Evaluation, error) {
	var list []models.Evaluation
	for _, e := range m.evaluations {
		if e.ClassGroupID == classGroupID {
			list = append(list, *e)
		}
	}
	return list, nil
}

type mockClassGroupReader struct {
	classes map[string]*models.ClassGroupDetail
}

func (m *mockClassGroupReader) FindByID(ctx context.Context, id string) (*models.ClassGroupDetail, error) {
	if c, ok := m.classes[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func ptrFloat(v float64) *float64 {
	return &v
}

func gradeServiceFixture() (*GradeService, *mockGradeRepo) {
	grades := &mockGradeRepo{}
	enrollments := &mockEnrollmentReader{enrollments: map[string]*models.EnrollmentDetail{
		testEnrollmentID: {
			Enrollment: models.Enrollment{ID: testEnrollmentID, StudentID: "stu1", ClassGroupID: testClassGroupID, Status: models.EnrollmentStatusEnrolled},
		},
		testEnrollment2ID: {
			Enrollment: models.Enrollment{ID: testEnrollment2ID, StudentID: "stu2", ClassGroupID: testClassGroupID, Status: models.EnrollmentStatusEnrolled},
		},
	}}
	evaluations := &mockEvaluationReader{evaluations: map[string]*models.Evaluation{
		testEvaluationID: {ID: testEvaluationID, ClassGroupID: testClassGroupID, Name: "Midterm", Type: models.EvaluationTypeExam, Weight: 40, MaxScore: 10},
	}}
	classes := &mockClassGroupReader{classes: map[string]*models.ClassGroupDetail{
		testClassGroupID: {
			ClassGroup: models.ClassGroup{ID: testClassGroupID, TeacherID: testTeacherID, Status: models.ClassStatusActive},
		},
	}}
	return NewGradeService(grades, enrollments, evaluations, classes, validator.New(), zap.NewNop()), grades
}

func TestGradeUpsertByOwningTeacher(t *testing.T) {
	svc, grades := gradeServiceFixture()
	actor := policy.Actor{UserID: "u1", Role: models.RoleTeacher, TeacherID: testTeacherID}

	grade, err := svc.Upsert(context.Background(), actor, models.UpsertGradeRequest{
		EnrollmentID: testEnrollmentID,
		EvaluationID: testEvaluationID,
		Score:        ptrFloat(8.5),
	})
	require.NoError(t, err)
	assert.Equal(t, testEnrollmentID, grade.EnrollmentID)
	require.NotNil(t, grade.GradedBy)
	assert.Equal(t, "u1", *grade.GradedBy)
	assert.Len(t, grades.stored, 1)
}

func TestGradeUpsertRejectsScoreAboveMax(t *testing.T) {
	svc, grades := gradeServiceFixture()
	actor := policy.Actor{UserID: "u1", Role: models.RoleTeacher, TeacherID: testTeacherID}

	_, err := svc.Upsert(context.Background(), actor, models.UpsertGradeRequest{
		EnrollmentID: testEnrollmentID,
		EvaluationID: testEvaluationID,
		Score:        ptrFloat(10.5),
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, grades.stored)
}

func TestGradeUpsertForbiddenForOtherTeacher(t *testing.T) {
	svc, _ := gradeServiceFixture()
	actor := policy.Actor{UserID: "u2", Role: models.RoleTeacher, TeacherID: "other-teacher"}

	_, err := svc.Upsert(context.Background(), actor, models.UpsertGradeRequest{
		EnrollmentID: testEnrollmentID,
		EvaluationID: testEvaluationID,
		Score:        ptrFloat(7),
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestGradeBatchUpsertAllOrNothing(t *testing.T) {
	svc, grades := gradeServiceFixture()
	actor := policy.Actor{UserID: "u1", Role: models.RoleTeacher, TeacherID: testTeacherID}

	result, err := svc.BatchUpsert(context.Background(), actor, models.BatchGradesRequest{
		EvaluationID: testEvaluationID,
		Grades: []models.BatchGradeItem{
			{EnrollmentID: testEnrollmentID, Score: ptrFloat(9)},
			{EnrollmentID: testEnrollment2ID, Score: ptrFloat(11)},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, testEnrollment2ID, result.Errors[0].EnrollmentID)
	assert.Zero(t, result.Created)
	assert.Empty(t, grades.stored, "a rejected batch must not write any grade")
}

func TestGradeBatchUpsertCountsCreatedAndUpdated(t *testing.T) {
	svc, grades := gradeServiceFixture()
	actor := policy.Actor{UserID: "u1", Role: models.RoleTeacher, TeacherID: testTeacherID}

	_, err := svc.Upsert(context.Background(), actor, models.UpsertGradeRequest{
		EnrollmentID: testEnrollmentID,
		EvaluationID: testEvaluationID,
		Score:        ptrFloat(5),
	})
	require.NoError(t, err)

	result, err := svc.BatchUpsert(context.Background(), actor, models.BatchGradesRequest{
		EvaluationID: testEvaluationID,
		Grades: []models.BatchGradeItem{
			{EnrollmentID: testEnrollmentID, Score: ptrFloat(6)},
			{EnrollmentID: testEnrollment2ID, Score: ptrFloat(7)},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Created)
	assert.Len(t, grades.stored, 2)
}

func TestGradebookBuildsScoreMatrix(t *testing.T) {
	svc, _ := gradeServiceFixture()
	teacher := policy.Actor{UserID: "u1", Role: models.RoleTeacher, TeacherID: testTeacherID}

	_, err := svc.Upsert(context.Background(), teacher, models.UpsertGradeRequest{
		EnrollmentID: testEnrollmentID,
		EvaluationID: testEvaluationID,
		Score:        ptrFloat(8),
	})
	require.NoError(t, err)

	gradebook, err := svc.Gradebook(context.Background(), teacher, testClassGroupID)
	require.NoError(t, err)
	require.Len(t, gradebook.Evaluations, 1)
	require.Len(t, gradebook.Rows, 2)

	for _, row := range gradebook.Rows {
		require.Len(t, row.Scores, 1)
		if row.EnrollmentID == testEnrollmentID {
			require.NotNil(t, row.Scores[0])
			assert.InDelta(t, 8, *row.Scores[0], 0.001)
		} else {
			assert.Nil(t, row.Scores[0])
		}
	}
}

func TestGradebookForbiddenForOtherTeacher(t *testing.T) {
	svc, _ := gradeServiceFixture()
	other := policy.Actor{UserID: "u2", Role: models.RoleTeacher, TeacherID: "other-teacher"}

	_, err := svc.Gradebook(context.Background(), other, testClassGroupID)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestGradebookAllowedForCoordinator(t *testing.T) {
	svc, _ := gradeServiceFixture()
	coordinator := policy.Actor{UserID: "u4", Role: models.RoleCoordinator}

	gradebook, err := svc.Gradebook(context.Background(), coordinator, testClassGroupID)
	require.NoError(t, err)
	assert.Len(t, gradebook.Rows, 2)
}

func TestGradebookForbiddenForStudents(t *testing.T) {
	svc, _ := gradeServiceFixture()
	student := policy.Actor{UserID: "u3", Role: models.RoleStudent, StudentID: "stu1"}

	_, err := svc.Gradebook(context.Background(), student, testClassGroupID)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}
