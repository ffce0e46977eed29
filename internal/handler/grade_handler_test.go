package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sga-api/internal/middleware"
	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/policy"
	"github.com/noah-isme/sga-api/internal/service"
)

const (
	batchEnrollmentID  = "6f1e5d94-9e0a-4b8b-a8f3-3bb7f4f1c2d1"
	batchEnrollment2ID = "7a2b6c05-1f1b-4c9c-b9e4-4cc8a5a2d3e2"
	batchEvaluationID  = "2c1a47e2-9f05-4f0a-bd9e-5a6a6c1e0f42"
	batchClassGroupID  = "b47ac10b-58cc-4372-a567-0e02b2c3d479"
	batchTeacherID     = "9d3f2e81-7b46-4a1d-8c5e-1f0a9b8c7d6e"
)

type stubGradeStore struct {
	stored map[string]models.Grade
}

func (s *stubGradeStore) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	return nil, sql.ErrNoRows
}

func (s *stubGradeStore) ListForEnrollment(ctx context.Context, enrollmentID string) ([]models.GradeDetail, error) {
	return nil, nil
}

func (s *stubGradeStore) ListForClass(ctx context.Context, classGroupID string) ([]models.Grade, error) {
	return nil, nil
}

func (s *stubGradeStore) Upsert(ctx context.Context, grade *models.Grade) error {
	if s.stored == nil {
		s.stored = make(map[string]models.Grade)
	}
	s.stored[grade.EnrollmentID+"|"+grade.EvaluationID] = *grade
	return nil
}

func (s *stubGradeStore) BatchUpsert(ctx context.Context, grades []models.Grade) error {
	for i := range grades {
		_ = s.Upsert(ctx, &grades[i])
	}
	return nil
}

func (s *stubGradeStore) Delete(ctx context.Context, id string) error {
	return sql.ErrNoRows
}

func (s *stubGradeStore) ListPending(ctx context.Context, classGroupID string) ([]models.PendingGrade, error) {
	return nil, nil
}

type stubEnrollmentStore struct {
	enrollments map[string]*models.EnrollmentDetail
}

func (s *stubEnrollmentStore) FindByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if e, ok := s.enrollments[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubEnrollmentStore) ListByClass(ctx context.Context, classGroupID string, status *models.EnrollmentStatus) ([]models.EnrollmentDetail, error) {
	return nil, nil
}

type stubEvaluationStore struct {
	evaluations map[string]*models.Evaluation
}

func (s *stubEvaluationStore) FindByID(ctx context.Context, id string) (*models.Evaluation, error) {
	if e, ok := s.evaluations[id]; ok {
		return e, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubEvaluationStore) ListByClassGroup(ctx context.Context, classGroupID string) ([]models.Evaluation, error) {
	return nil, nil
}

type stubClassStore struct {
	classes map[string]*models.ClassGroupDetail
}

func (s *stubClassStore) FindByID(ctx context.Context, id string) (*models.ClassGroupDetail, error) {
	if c, ok := s.classes[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func gradeHandlerFixture() (*GradeHandler, *stubGradeStore) {
	grades := &stubGradeStore{}
	enrollments := &stubEnrollmentStore{enrollments: map[string]*models.EnrollmentDetail{
		batchEnrollmentID: {
			Enrollment: models.Enrollment{ID: batchEnrollmentID, StudentID: "stu1", ClassGroupID: batchClassGroupID, Status: models.EnrollmentStatusEnrolled},
		},
		batchEnrollment2ID: {
			Enrollment: models.Enrollment{ID: batchEnrollment2ID, StudentID: "stu2", ClassGroupID: batchClassGroupID, Status: models.EnrollmentStatusEnrolled},
		},
	}}
	evaluations := &stubEvaluationStore{evaluations: map[string]*models.Evaluation{
		batchEvaluationID: {ID: batchEvaluationID, ClassGroupID: batchClassGroupID, Name: "Midterm", Type: models.EvaluationTypeExam, Weight: 40, MaxScore: 10},
	}}
	classes := &stubClassStore{classes: map[string]*models.ClassGroupDetail{
		batchClassGroupID: {
			ClassGroup: models.ClassGroup{ID: batchClassGroupID, TeacherID: batchTeacherID, Status: models.ClassStatusActive},
		},
	}}
	svc := service.NewGradeService(grades, enrollments, evaluations, classes, validator.New(), zap.NewNop())
	return NewGradeHandler(svc, service.NewMetricsService()), grades
}

func batchRequestContext(t *testing.T, req models.BatchGradesRequest) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/grades/batch", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextActorKey, policy.Actor{UserID: "u1", Role: models.RoleTeacher, TeacherID: batchTeacherID})
	return c, rec
}

func TestBatchUpsertRejectedBatchReturns422(t *testing.T) {
	h, grades := gradeHandlerFixture()
	score9, score11 := 9.0, 11.0
	c, rec := batchRequestContext(t, models.BatchGradesRequest{
		EvaluationID: batchEvaluationID,
		Grades: []models.BatchGradeItem{
			{EnrollmentID: batchEnrollmentID, Score: &score9},
			{EnrollmentID: batchEnrollment2ID, Score: &score11},
		},
	})

	h.BatchUpsert(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "a rejected batch is not a success")
	assert.Empty(t, grades.stored, "a rejected batch must not write any grade")
	assert.Contains(t, rec.Body.String(), batchEnrollment2ID, "the offending item is reported back")
}

func TestBatchUpsertCommittedBatchReturns200(t *testing.T) {
	h, grades := gradeHandlerFixture()
	score9, score7 := 9.0, 7.0
	c, rec := batchRequestContext(t, models.BatchGradesRequest{
		EvaluationID: batchEvaluationID,
		Grades: []models.BatchGradeItem{
			{EnrollmentID: batchEnrollmentID, Score: &score9},
			{EnrollmentID: batchEnrollment2ID, Score: &score7},
		},
	})

	h.BatchUpsert(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, grades.stored, 2)
}
