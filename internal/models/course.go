package models

import "time"

// DegreeType classifies the degree a course awards.
type DegreeType string

const (
	DegreeBachelor  DegreeType = "BACHELOR"
	DegreeMaster    DegreeType = "MASTER"
	DegreeDoctorate DegreeType = "DOCTORATE"
	DegreeTechnical DegreeType = "TECHNICAL"
	DegreeOther     DegreeType = "OTHER"
)

// Valid reports whether the degree type is known.
func (d DegreeType) Valid() bool {
	switch d {
	case DegreeBachelor, DegreeMaster, DegreeDoctorate, DegreeTechnical, DegreeOther:
		return true
	}
	return false
}

// Course belongs to an institution and owns subjects.
// Soft-deleted by flipping Active; never physically removed.
type Course struct {
	ID                string     `db:"id" json:"id"`
	InstitutionID     string     `db:"institution_id" json:"institution_id"`
	Name              string     `db:"name" json:"name"`
	Code              string     `db:"code" json:"code"`
	Description       *string    `db:"description" json:"description,omitempty"`
	DurationSemesters int        `db:"duration_semesters" json:"duration_semesters"`
	TotalCredits      *int       `db:"total_credits" json:"total_credits,omitempty"`
	DegreeType        DegreeType `db:"degree_type" json:"degree_type"`
	Active            bool       `db:"active" json:"active"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// CourseFilter provides filters for listing courses.
type CourseFilter struct {
	InstitutionID string
	DegreeType    *DegreeType
	Active        *bool
	Search        string
	Page          int
	PageSize      int
}
