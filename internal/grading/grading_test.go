package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sga-api/internal/models"
)

func f64(v float64) *float64 { return &v }

func TestFinalGradeWeightedMean(t *testing.T) {
	// Evaluation A weight 2 score 8, evaluation B weight 1 score 5.
	scores := []WeightedScore{
		{Score: f64(8), Weight: 2},
		{Score: f64(5), Weight: 1},
	}

	grade := FinalGrade(scores)
	require.NotNil(t, grade)
	assert.Equal(t, 7.0, *grade)
}

func TestFinalGradeSkipsUnscoredEntries(t *testing.T) {
	scores := []WeightedScore{
		{Score: f64(10), Weight: 1},
		{Score: nil, Weight: 9},
	}

	grade := FinalGrade(scores)
	require.NotNil(t, grade)
	assert.Equal(t, 10.0, *grade)
}

func TestFinalGradeNilWhenNothingScored(t *testing.T) {
	assert.Nil(t, FinalGrade(nil))
	assert.Nil(t, FinalGrade([]WeightedScore{{Score: nil, Weight: 2}}))
}

func TestFinalGradeNilWhenTotalWeightZero(t *testing.T) {
	scores := []WeightedScore{{Score: f64(8), Weight: 0}}
	assert.Nil(t, FinalGrade(scores))
}

func TestFinalGradeIdempotent(t *testing.T) {
	scores := []WeightedScore{
		{Score: f64(7.25), Weight: 3},
		{Score: f64(9.5), Weight: 2},
	}

	first := FinalGrade(scores)
	second := FinalGrade(scores)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
}

func TestFinalStatusFor(t *testing.T) {
	assert.Equal(t, models.FinalStatusApproved, FinalStatusFor(f64(6.0)))
	assert.Equal(t, models.FinalStatusFailed, FinalStatusFor(f64(5.99)))
	assert.Equal(t, models.FinalStatusIncomplete, FinalStatusFor(nil))
}

func TestAttendancePercentage(t *testing.T) {
	// present, late, justified: late counts as attended, justified does not.
	assert.Equal(t, 66.67, AttendancePercentage(2, 3))
	assert.Equal(t, 0.0, AttendancePercentage(0, 0))
	assert.Equal(t, 100.0, AttendancePercentage(5, 5))
}

func TestCapacityPercentage(t *testing.T) {
	assert.Equal(t, 75.0, CapacityPercentage(30, 40))
	assert.Equal(t, 0.0, CapacityPercentage(10, 0))
	assert.Equal(t, 0.0, CapacityPercentage(10, -1))
}

func TestAverageEnrollment(t *testing.T) {
	assert.Equal(t, 0.0, AverageEnrollment(nil))
	assert.Equal(t, 25.5, AverageEnrollment([]int{20, 31}))
}

func TestGPACreditWeighted(t *testing.T) {
	entries := []models.TranscriptEntry{
		{FinalGrade: f64(8.0), Credits: 4},
		{FinalGrade: f64(6.0), Credits: 2},
	}

	assert.Equal(t, 7.33, GPA(entries))
}

func TestGPAIgnoresUngradedEntries(t *testing.T) {
	entries := []models.TranscriptEntry{
		{FinalGrade: f64(9.0), Credits: 3},
		{FinalGrade: nil, Credits: 6},
	}

	assert.Equal(t, 9.0, GPA(entries))
	assert.Equal(t, 0.0, GPA([]models.TranscriptEntry{{FinalGrade: nil, Credits: 4}}))
	assert.Equal(t, 0.0, GPA(nil))
}

func TestBuildTranscriptGroupsAndAggregates(t *testing.T) {
	rows := []models.EnrollmentDetail{
		{
			Enrollment: models.Enrollment{
				ID:          "e1",
				Status:      models.EnrollmentStatusCompleted,
				FinalGrade:  f64(8.0),
				FinalStatus: models.FinalStatusApproved,
			},
			SubjectName: "Algorithms",
			SubjectCode: "CS201",
			Credits:     4,
			Semester:    1,
			Year:        2025,
		},
		{
			Enrollment: models.Enrollment{
				ID:          "e2",
				Status:      models.EnrollmentStatusFailed,
				FinalGrade:  f64(4.0),
				FinalStatus: models.FinalStatusFailed,
			},
			SubjectName: "Calculus",
			SubjectCode: "MA101",
			Credits:     2,
			Semester:    2,
			Year:        2024,
		},
		{
			Enrollment: models.Enrollment{
				ID:          "e3",
				Status:      models.EnrollmentStatusEnrolled,
				FinalStatus: models.FinalStatusInProgress,
			},
			SubjectName: "Databases",
			SubjectCode: "CS305",
			Credits:     4,
			Semester:    1,
			Year:        2025,
		},
	}

	transcript := BuildTranscript(rows)

	require.Len(t, transcript.Semesters, 2)
	assert.Equal(t, "2024.2", transcript.Semesters[0].Label)
	assert.Equal(t, "2025.1", transcript.Semesters[1].Label)
	assert.Equal(t, 4.0, transcript.Semesters[0].GPA)
	assert.Equal(t, 8.0, transcript.Semesters[1].GPA)
	assert.Len(t, transcript.Semesters[1].Entries, 2)

	assert.Equal(t, 10, transcript.CreditsAttempted)
	assert.Equal(t, 4, transcript.CreditsEarned)
	assert.Equal(t, 1, transcript.ApprovedCount)
	assert.Equal(t, 1, transcript.FailedCount)
	// (8*4 + 4*2) / 6 = 6.67; the ungraded enrollment contributes nothing.
	assert.Equal(t, 6.67, transcript.CumulativeGPA)
}

func TestRound2BankersRounding(t *testing.T) {
	assert.Equal(t, 7.33, Round2(7.3333))
	assert.Equal(t, 66.67, Round2(66.666666))
	assert.Equal(t, 2.5, Round2(2.505))
}
