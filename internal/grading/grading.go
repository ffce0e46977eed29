// Package grading holds the pure computation rules for final grades,
// attendance, transcripts and occupancy. It has no storage dependencies so
// repositories can recompute derived values inside the same transaction as
// the write that triggered them.
package grading

import (
	"fmt"
	"math"
	"sort"

	"github.com/noah-isme/sga-api/internal/models"
)

// PassingGrade is the minimum final grade considered approved.
const PassingGrade = 6.0

// Round2 rounds to two decimal places using banker's rounding.
func Round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// WeightedScore is one evaluation's score and weight as seen by the
// final-grade computation. Score is nil when the grade row has no score yet.
type WeightedScore struct {
	Score  *float64
	Weight float64
}

// FinalGrade computes the weighted mean of the scored evaluations.
// Entries without a score are skipped entirely, including their weight.
// Returns nil when nothing is scored or the total weight is zero.
func FinalGrade(scores []WeightedScore) *float64 {
	var sum, totalWeight float64
	for _, ws := range scores {
		if ws.Score == nil {
			continue
		}
		sum += *ws.Score * ws.Weight
		totalWeight += ws.Weight
	}
	if totalWeight == 0 {
		return nil
	}
	grade := Round2(sum / totalWeight)
	return &grade
}

// FinalStatusFor derives the academic outcome when an enrollment is closed
// out. A missing final grade marks the enrollment incomplete.
func FinalStatusFor(finalGrade *float64) models.FinalStatus {
	if finalGrade == nil {
		return models.FinalStatusIncomplete
	}
	if *finalGrade >= PassingGrade {
		return models.FinalStatusApproved
	}
	return models.FinalStatusFailed
}

// AttendancePercentage computes attended presence over total records as a
// percentage. Zero records yield zero, not an error.
func AttendancePercentage(attended, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round2(float64(attended) / float64(total) * 100)
}

// CapacityPercentage computes seat usage of a class group. Non-positive
// capacity yields zero.
func CapacityPercentage(enrolled, maxStudents int) float64 {
	if maxStudents <= 0 {
		return 0
	}
	return Round2(float64(enrolled) / float64(maxStudents) * 100)
}

// AverageEnrollment computes the mean enrolled count across class groups.
func AverageEnrollment(counts []int) float64 {
	if len(counts) == 0 {
		return 0
	}
	var sum int
	for _, c := range counts {
		sum += c
	}
	return Round2(float64(sum) / float64(len(counts)))
}

// GPA computes the credit-weighted mean of final grades. Entries without a
// final grade contribute nothing. Returns zero when no entry is graded.
func GPA(entries []models.TranscriptEntry) float64 {
	var sum, credits float64
	for _, e := range entries {
		if e.FinalGrade == nil {
			continue
		}
		sum += *e.FinalGrade * float64(e.Credits)
		credits += float64(e.Credits)
	}
	if credits == 0 {
		return 0
	}
	return Round2(sum / credits)
}

// BuildTranscript groups a student's enrollment history into semesters and
// computes per-semester and cumulative aggregates. Semesters are ordered
// chronologically. Caller fills in student identity fields.
func BuildTranscript(rows []models.EnrollmentDetail) models.Transcript {
	type termKey struct {
		year, semester int
	}
	groups := make(map[termKey][]models.TranscriptEntry)
	var all []models.TranscriptEntry

	summary := models.Transcript{}
	for _, r := range rows {
		entry := models.TranscriptEntry{
			EnrollmentID: r.ID,
			SubjectName:  r.SubjectName,
			SubjectCode:  r.SubjectCode,
			ClassCode:    r.ClassCode,
			Credits:      r.Credits,
			Status:       r.Status,
			FinalGrade:   r.FinalGrade,
			FinalStatus:  r.FinalStatus,
		}
		key := termKey{year: r.Year, semester: r.Semester}
		groups[key] = append(groups[key], entry)
		all = append(all, entry)

		summary.CreditsAttempted += r.Credits
		switch r.FinalStatus {
		case models.FinalStatusApproved:
			summary.CreditsEarned += r.Credits
			summary.ApprovedCount++
		case models.FinalStatusFailed:
			summary.FailedCount++
		}
	}

	keys := make([]termKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].semester < keys[j].semester
	})

	semesters := make([]models.TranscriptSemester, 0, len(keys))
	for _, k := range keys {
		entries := groups[k]
		semesters = append(semesters, models.TranscriptSemester{
			Year:     k.year,
			Semester: k.semester,
			Label:    fmt.Sprintf("%d.%d", k.year, k.semester),
			GPA:      GPA(entries),
			Entries:  entries,
		})
	}

	summary.Semesters = semesters
	summary.CumulativeGPA = GPA(all)
	return summary
}
