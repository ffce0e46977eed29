package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/sga-api/internal/models"
	"github.com/noah-isme/sga-api/internal/policy"
	"github.com/noah-isme/sga-api/pkg/config"
	appErrors "github.com/noah-isme/sga-api/pkg/errors"
	"github.com/noah-isme/sga-api/pkg/export"
)

type transcriptProvider interface {
	Get(ctx context.Context, actor policy.Actor, studentID string) (*models.Transcript, error)
}

type gradebookProvider interface {
	Gradebook(ctx context.Context, actor policy.Actor, classGroupID string) (*models.Gradebook, error)
}

// ExportService renders transcripts and gradebooks to downloadable files.
// Access control is enforced by the underlying providers.
type ExportService struct {
	transcripts transcriptProvider
	gradebooks  gradebookProvider
	cfg         config.ExportConfig
	logger      *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(transcripts transcriptProvider, gradebooks gradebookProvider, cfg config.ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		transcripts: transcripts,
		gradebooks:  gradebooks,
		cfg:         cfg,
		logger:      logger,
	}
}

// TranscriptPDF renders a student's transcript as a PDF document.
func (s *ExportService) TranscriptPDF(ctx context.Context, actor policy.Actor, studentID string) ([]byte, string, error) {
	transcript, err := s.transcripts.Get(ctx, actor, studentID)
	if err != nil {
		return nil, "", err
	}

	table := export.Table{
		Columns: []string{"Term", "Subject", "Code", "Class", "Credits", "Final Grade", "Status"},
	}
	for _, semester := range transcript.Semesters {
		for _, entry := range semester.Entries {
			table.Rows = append(table.Rows, []string{
				semester.Label,
				entry.SubjectName,
				entry.SubjectCode,
				entry.ClassCode,
				strconv.Itoa(entry.Credits),
				formatGrade(entry.FinalGrade),
				string(entry.FinalStatus),
			})
		}
	}
	table.Rows = append(table.Rows, []string{
		"TOTAL",
		fmt.Sprintf("GPA %.2f", transcript.CumulativeGPA),
		"",
		"",
		strconv.Itoa(transcript.CreditsEarned),
		"",
		fmt.Sprintf("%d approved / %d failed", transcript.ApprovedCount, transcript.FailedCount),
	})
	if err := s.checkRowLimit(len(table.Rows)); err != nil {
		return nil, "", err
	}

	table.Title = fmt.Sprintf("Academic Transcript - %s (%s)", transcript.StudentName, transcript.StudentNumber)
	if s.cfg.InstitutionName != "" {
		table.Title = s.cfg.InstitutionName + " - " + table.Title
	}
	content, err := table.PDF()
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render transcript pdf")
	}
	s.logger.Info("transcript exported", zap.String("student_id", studentID), zap.Int("rows", len(table.Rows)))

	filename := fmt.Sprintf("transcript_%s.pdf", transcript.StudentNumber)
	return content, filename, nil
}

// GradebookCSV renders a class gradebook as a CSV file, one row per student
// and one column per evaluation.
func (s *ExportService) GradebookCSV(ctx context.Context, actor policy.Actor, classGroupID string) ([]byte, string, error) {
	gradebook, err := s.gradebooks.Gradebook(ctx, actor, classGroupID)
	if err != nil {
		return nil, "", err
	}
	if err := s.checkRowLimit(len(gradebook.Rows)); err != nil {
		return nil, "", err
	}

	table := export.Table{
		Columns: []string{"Student Number", "Student Name"},
	}
	for _, ev := range gradebook.Evaluations {
		table.Columns = append(table.Columns, ev.Name)
	}
	table.Columns = append(table.Columns, "Final Grade", "Final Status")

	for _, row := range gradebook.Rows {
		record := []string{row.StudentNumber, row.StudentName}
		for i := range gradebook.Evaluations {
			if i < len(row.Scores) {
				record = append(record, formatGrade(row.Scores[i]))
			} else {
				record = append(record, "")
			}
		}
		record = append(record, formatGrade(row.FinalGrade), string(row.FinalStatus))
		table.Rows = append(table.Rows, record)
	}

	content, err := table.CSV()
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render gradebook csv")
	}
	s.logger.Info("gradebook exported", zap.String("class_group_id", classGroupID), zap.Int("rows", len(table.Rows)))

	filename := fmt.Sprintf("gradebook_%s.csv", gradebook.ClassCode)
	return content, filename, nil
}

func (s *ExportService) checkRowLimit(rows int) error {
	if s.cfg.MaxRows > 0 && rows > s.cfg.MaxRows {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("export exceeds the %d row limit", s.cfg.MaxRows))
	}
	return nil
}

func formatGrade(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
