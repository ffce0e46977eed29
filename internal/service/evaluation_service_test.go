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

type mockEvaluationRepo struct {
	evaluations map[string]*models.Evaluation
	gradeCounts map[string]int
	nextID      int
}

func (m *mockEvaluationRepo) FindByID(ctx context.Context, id string) (*models.Evaluation, error) {
	if e, ok := m.evaluations[id]; ok {
		found := *e
		return &found, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEvaluationRepo) ListByClassGroup(ctx context.Context, classGroupID string) ([]models.Evaluation, error) {
	var list []models.Evaluation
	for _, e := range m.evaluations {
		if e.ClassGroupID == classGroupID {
			list = append(list, *e)
		}
	}
	return list, nil
}

func (m *mockEvaluationRepo) Create(ctx context.Context, evaluation *models.Evaluation) error {
	if m.evaluations == nil {
		m.evaluations = make(map[string]*models.Evaluation)
	}
	m.nextID++
	evaluation.ID = string(rune('a' + m.nextID))
	stored := *evaluation
	m.evaluations[evaluation.ID] = &stored
	return nil
}

func (m *mockEvaluationRepo) Update(ctx context.Context, evaluation *models.Evaluation) error {
	if _, ok := m.evaluations[evaluation.ID]; !ok {
		return sql.ErrNoRows
	}
	stored := *evaluation
	m.evaluations[evaluation.ID] = &stored
	return nil
}

func (m *mockEvaluationRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.evaluations[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.evaluations, id)
	return nil
}

func (m *mockEvaluationRepo) CountGrades(ctx context.Context, id string) (int, error) {
	return m.gradeCounts[id], nil
}

func evaluationServiceFixture(classStatus models.ClassStatus) (*EvaluationService, *mockEvaluationRepo) {
	repo := &mockEvaluationRepo{evaluations: map[string]*models.Evaluation{}, gradeCounts: map[string]int{}}
	classes := &mockClassGroupReader{classes: map[string]*models.ClassGroupDetail{
		testClassGroupID: {
			ClassGroup: models.ClassGroup{ID: testClassGroupID, TeacherID: testTeacherID, Status: classStatus},
		},
	}}
	return NewEvaluationService(repo, classes, validator.New(), zap.NewNop()), repo
}

func TestEvaluationCreateByClassTeacher(t *testing.T) {
	svc, _ := evaluationServiceFixture(models.ClassStatusActive)
	teacher := policy.Actor{UserID: "u1", Role: models.RoleTeacher, TeacherID: testTeacherID}

	evaluation, err := svc.Create(context.Background(), teacher, models.CreateEvaluationRequest{
		ClassGroupID: testClassGroupID,
		Name:         "Midterm",
		Type:         models.EvaluationTypeExam,
		Weight:       40,
		MaxScore:     10,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, evaluation.ID)
	assert.False(t, evaluation.IsPublished)
}

func TestEvaluationCreateRejectedOnClosedClass(t *testing.T) {
	svc, _ := evaluationServiceFixture(models.ClassStatusCompleted)
	teacher := policy.Actor{UserID: "u1", Role: models.RoleTeacher, TeacherID: testTeacherID}

	_, err := svc.Create(context.Background(), teacher, models.CreateEvaluationRequest{
		ClassGroupID: testClassGroupID,
		Name:         "Final",
		Type:         models.EvaluationTypeExam,
		Weight:       60,
		MaxScore:     10,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestEvaluationCreateForbiddenForOtherTeacher(t *testing.T) {
	svc, _ := evaluationServiceFixture(models.ClassStatusActive)
	other := policy.Actor{UserID: "u2", Role: models.RoleTeacher, TeacherID: "other-teacher"}

	_, err := svc.Create(context.Background(), other, models.CreateEvaluationRequest{
		ClassGroupID: testClassGroupID,
		Name:         "Quiz 1",
		Type:         models.EvaluationTypeQuiz,
		Weight:       10,
		MaxScore:     10,
	})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestEvaluationWeightChangeAllowedWithGrades(t *testing.T) {
	svc, repo := evaluationServiceFixture(models.ClassStatusActive)
	teacher := policy.Actor{UserID: "u1", Role: models.RoleTeacher, TeacherID: testTeacherID}
	repo.evaluations["e1"] = &models.Evaluation{ID: "e1", ClassGroupID: testClassGroupID, Name: "Midterm", Type: models.EvaluationTypeExam, Weight: 40, MaxScore: 10}
	repo.gradeCounts["e1"] = 5

	newWeight := 50.0
	evaluation, err := svc.Update(context.Background(), teacher, "e1", models.UpdateEvaluationRequest{Weight: &newWeight})
	require.NoError(t, err)
	assert.InDelta(t, 50.0, evaluation.Weight, 0.001)
}

func TestEvaluationDeleteBlockedByGrades(t *testing.T) {
	svc, repo := evaluationServiceFixture(models.ClassStatusActive)
	teacher := policy.Actor{UserID: "u1", Role: models.RoleTeacher, TeacherID: testTeacherID}
	repo.evaluations["e1"] = &models.Evaluation{ID: "e1", ClassGroupID: testClassGroupID, Name: "Midterm", Type: models.EvaluationTypeExam, Weight: 40, MaxScore: 10}
	repo.gradeCounts["e1"] = 2

	err := svc.Delete(context.Background(), teacher, "e1")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDependentRecords))

	repo.gradeCounts["e1"] = 0
	require.NoError(t, svc.Delete(context.Background(), teacher, "e1"))
	assert.Empty(t, repo.evaluations)
}
