package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/policy"
	"github.com/noah-isme/sga-api/pkg/config"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
)

type transcriptStub struct{}

func (transcriptStub) Get(ctx context.Context, actor policy.Actor, studentID string) (*models.Transcript, error) {
	return &models.Transcript{
		StudentID:     studentID,
		StudentName:   "Ana Souza",
		StudentNumber: "2023001",
		CourseName:    "Computer Science",
		CumulativeGPA: 7.5,
		CreditsEarned: 4,
		ApprovedCount: 1,
		Semesters: []models.TranscriptSemester{
			{
				Year: 2024, Semester: 1, Label: "2024.1", GPA: 7.5,
				Entries: []models.TranscriptEntry{
					{EnrollmentID: "en1", SubjectName: "Calculus I", SubjectCode: "MAT101", ClassCode: "A", Credits: 4, FinalGrade: ptrFloat(7.5), FinalStatus: models.FinalStatusApproved},
				},
			},
		},
	}, nil
}

type gradebookStub struct {
	rows int
}

func (g gradebookStub) Gradebook(ctx context.Context, actor policy.Actor, classGroupID string) (*models.Gradebook, error) {
	gradebook := &models.Gradebook{
		ClassGroupID: classGroupID,
		SubjectName:  "Data Structures",
		ClassCode:    "A",
		Evaluations: []models.Evaluation{
			{ID: "e1", Name: "Midterm", Weight: 40, MaxScore: 10},
		},
	}
	for i := 0; i < g.rows; i++ {
		gradebook.Rows = append(gradebook.Rows, models.GradebookRow{
			EnrollmentID:  "en1",
			StudentName:   "Ana Souza",
			StudentNumber: "2023001",
			Scores:        []*float64{ptrFloat(8)},
			FinalGrade:    ptrFloat(8),
			FinalStatus:   models.FinalStatusApproved,
		})
	}
	return gradebook, nil
}

func TestTranscriptPDFRendersDocument(t *testing.T) {
	svc := NewExportService(transcriptStub{}, gradebookStub{rows: 1}, config.ExportConfig{InstitutionName: "State University"}, zap.NewNop())
	staff := policy.Actor{UserID: "u1", Role: models.RoleCoordinator}

	content, filename, err := svc.TranscriptPDF(context.Background(), staff, testStudentID)
	require.NoError(t, err)
	assert.Equal(t, "transcript_2023001.pdf", filename)
	require.NotEmpty(t, content)
	assert.True(t, strings.HasPrefix(string(content), "%PDF"))
}

func TestGradebookCSVIncludesEvaluationColumns(t *testing.T) {
	svc := NewExportService(transcriptStub{}, gradebookStub{rows: 2}, config.ExportConfig{}, zap.NewNop())
	staff := policy.Actor{UserID: "u1", Role: models.RoleCoordinator}

	content, filename, err := svc.GradebookCSV(context.Background(), staff, testClassGroupID)
	require.NoError(t, err)
	assert.Equal(t, "gradebook_A.csv", filename)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Midterm")
	assert.Contains(t, lines[1], "2023001")
	assert.Contains(t, lines[1], "8.00")
	assert.Contains(t, lines[1], "APPROVED")
}

func TestExportEnforcesRowLimit(t *testing.T) {
	svc := NewExportService(transcriptStub{}, gradebookStub{rows: 5}, config.ExportConfig{MaxRows: 3}, zap.NewNop())
	staff := policy.Actor{UserID: "u1", Role: models.RoleAdmin}

	_, _, err := svc.GradebookCSV(context.Background(), staff, testClassGroupID)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
