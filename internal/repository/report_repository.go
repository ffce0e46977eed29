package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sga-api/internal/models"
)

// ReportRepository runs the read-only aggregate queries behind reports and
// dashboards. Reports are computed on demand; nothing here is cached.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new instance of ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// CountRow is a generic label/count pair used by distribution queries.
type CountRow struct {
	Label string `db:"label"`
	Count int    `db:"count"`
}

// DashboardCounts returns the headline counts of the admin dashboard.
func (r *ReportRepository) DashboardCounts(ctx context.Context) (*models.DashboardStats, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM students) AS total_students,
        (SELECT COUNT(*) FROM students WHERE status = 'ACTIVE') AS active_students,
        (SELECT COUNT(*) FROM teachers WHERE status = 'ACTIVE') AS total_teachers,
        (SELECT COUNT(*) FROM courses WHERE active = TRUE) AS total_courses,
        (SELECT COUNT(*) FROM class_groups WHERE status = 'ACTIVE') AS active_classes,
        (SELECT COUNT(*) FROM enrollments WHERE status = 'ENROLLED') AS total_enrollments`
	var stats models.DashboardStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}
	return &stats, nil
}

// CountPendingGrades returns the number of ungraded (enrollment, evaluation)
// pairs across every active class group.
func (r *ReportRepository) CountPendingGrades(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*)
        FROM enrollments e
        JOIN class_groups cg ON cg.id = e.class_group_id
        JOIN evaluations ev ON ev.class_group_id = cg.id
        WHERE cg.status = 'ACTIVE' AND e.status = 'ENROLLED'
          AND NOT EXISTS (SELECT 1 FROM grades g WHERE g.enrollment_id = e.id AND g.evaluation_id = ev.id)`
	var count int
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count pending grades: %w", err)
	}
	return count, nil
}

// CountActiveClassesForTeacher returns how many active class groups a
// teacher currently runs.
func (r *ReportRepository) CountActiveClassesForTeacher(ctx context.Context, teacherID string) (int, error) {
	const query = `SELECT COUNT(*) FROM class_groups WHERE teacher_id = $1 AND status = 'ACTIVE'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, teacherID); err != nil {
		return 0, fmt.Errorf("count teacher classes: %w", err)
	}
	return count, nil
}

// CountPendingGradesForTeacher counts the ungraded (enrollment, evaluation)
// pairs across one teacher's active class groups.
func (r *ReportRepository) CountPendingGradesForTeacher(ctx context.Context, teacherID string) (int, error) {
	const query = `SELECT COUNT(*)
        FROM enrollments e
        JOIN class_groups cg ON cg.id = e.class_group_id
        JOIN evaluations ev ON ev.class_group_id = cg.id
        WHERE cg.teacher_id = $1 AND cg.status = 'ACTIVE' AND e.status = 'ENROLLED'
          AND NOT EXISTS (SELECT 1 FROM grades g WHERE g.enrollment_id = e.id AND g.evaluation_id = ev.id)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, teacherID); err != nil {
		return 0, fmt.Errorf("count teacher pending grades: %w", err)
	}
	return count, nil
}

// CountActiveEnrollmentsForStudent returns how many classes a student is
// currently enrolled in.
func (r *ReportRepository) CountActiveEnrollmentsForStudent(ctx context.Context, studentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE student_id = $1 AND status = 'ENROLLED'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID); err != nil {
		return 0, fmt.Errorf("count student enrollments: %w", err)
	}
	return count, nil
}

// StudentCountsByStatus returns the size of every student status bucket.
func (r *ReportRepository) StudentCountsByStatus(ctx context.Context) (map[string]int, error) {
	const query = `SELECT status AS label, COUNT(*) AS count FROM students GROUP BY status`
	return r.countMap(ctx, query, "students by status")
}

// ActiveStudentCountsByCourse returns active student headcounts per course.
func (r *ReportRepository) ActiveStudentCountsByCourse(ctx context.Context) (map[string]int, error) {
	const query = `SELECT c.name AS label, COUNT(*) AS count
        FROM students st
        JOIN courses c ON c.id = st.course_id
        WHERE st.status = 'ACTIVE'
        GROUP BY c.name`
	return r.countMap(ctx, query, "students by course")
}

// CourseCounts returns the total and active course counts.
func (r *ReportRepository) CourseCounts(ctx context.Context) (total, active int, err error) {
	const query = `SELECT COUNT(*), COUNT(*) FILTER (WHERE active = TRUE) FROM courses`
	if err := r.db.QueryRowContext(ctx, query).Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("course counts: %w", err)
	}
	return total, active, nil
}

// ActiveCourseCountsByDegreeType returns active course counts per degree type.
func (r *ReportRepository) ActiveCourseCountsByDegreeType(ctx context.Context) (map[string]int, error) {
	const query = `SELECT degree_type AS label, COUNT(*) AS count FROM courses WHERE active = TRUE GROUP BY degree_type`
	return r.countMap(ctx, query, "courses by degree type")
}

// ActiveCourseCountsByInstitution returns active course counts per active
// institution, including institutions with no active course yet.
func (r *ReportRepository) ActiveCourseCountsByInstitution(ctx context.Context) (map[string]int, error) {
	const query = `SELECT i.name AS label, COUNT(c.id) AS count
        FROM institutions i
        LEFT JOIN courses c ON c.institution_id = i.id AND c.active = TRUE
        WHERE i.active = TRUE
        GROUP BY i.name`
	return r.countMap(ctx, query, "courses by institution")
}

func (r *ReportRepository) countMap(ctx context.Context, query, what string) (map[string]int, error) {
	var rows []CountRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.Label] = row.Count
	}
	return out, nil
}

// ClassOccupancy returns seat usage for every active and planned class group.
func (r *ReportRepository) ClassOccupancy(ctx context.Context) ([]models.ClassOccupancy, error) {
	const query = `SELECT cg.id AS class_group_id, s.name AS subject_name, cg.class_code, cg.status, cg.max_students,
            (SELECT COUNT(*) FROM enrollments e WHERE e.class_group_id = cg.id AND e.status = 'ENROLLED') AS enrolled_count
        FROM class_groups cg
        JOIN subjects s ON s.id = cg.subject_id
        WHERE cg.status IN ('ACTIVE', 'PLANNED')
        ORDER BY s.name ASC, cg.class_code ASC`
	var classes []models.ClassOccupancy
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("class occupancy: %w", err)
	}
	return classes, nil
}

// TeacherWorkloadRows returns the class groups a teacher runs in a period,
// with headcounts and subject workload.
func (r *ReportRepository) TeacherWorkloadRows(ctx context.Context, teacherID string, semester, year *int) ([]models.TeacherWorkloadClass, error) {
	query := `SELECT cg.id AS class_group_id, s.name AS subject_name, cg.class_code, cg.semester, cg.year, cg.status,
            s.workload_hours,
            (SELECT COUNT(*) FROM enrollments e WHERE e.class_group_id = cg.id AND e.status = 'ENROLLED') AS enrolled_count
        FROM class_groups cg
        JOIN subjects s ON s.id = cg.subject_id
        WHERE cg.teacher_id = $1 AND cg.status IN ('ACTIVE', 'PLANNED')`
	args := []interface{}{teacherID}
	if semester != nil {
		query += fmt.Sprintf(" AND cg.semester = $%d", len(args)+1)
		args = append(args, *semester)
	}
	if year != nil {
		query += fmt.Sprintf(" AND cg.year = $%d", len(args)+1)
		args = append(args, *year)
	}
	query += " ORDER BY cg.year DESC, cg.semester DESC, s.name ASC"

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("teacher workload: %w", err)
	}
	defer rows.Close()

	var classes []models.TeacherWorkloadClass
	for rows.Next() {
		var c models.TeacherWorkloadClass
		if err := rows.Scan(&c.ClassGroupID, &c.SubjectName, &c.ClassCode, &c.Semester, &c.Year, &c.Status, &c.WorkloadHours, &c.EnrolledCount); err != nil {
			return nil, fmt.Errorf("scan workload row: %w", err)
		}
		classes = append(classes, c)
	}
	return classes, nil
}

// PerformanceRows returns per-student aggregates over completed enrollments
// of one course.
func (r *ReportRepository) PerformanceRows(ctx context.Context, courseID string) ([]models.PerformanceAggregate, error) {
	const query = `SELECT st.id AS student_id, u.full_name AS student_name, st.student_number,
            AVG(e.final_grade) FILTER (WHERE e.final_grade IS NOT NULL) AS average_grade,
            COUNT(*) FILTER (WHERE e.final_status = 'APPROVED') AS approved_count,
            COUNT(*) FILTER (WHERE e.final_status = 'FAILED') AS failed_count,
            (SELECT COUNT(*) FROM attendances a JOIN enrollments e2 ON e2.id = a.enrollment_id WHERE e2.student_id = st.id AND a.status IN ('PRESENT', 'LATE')) AS attended,
            (SELECT COUNT(*) FROM attendances a JOIN enrollments e2 ON e2.id = a.enrollment_id WHERE e2.student_id = st.id) AS total_records
        FROM students st
        JOIN users u ON u.id = st.user_id
        LEFT JOIN enrollments e ON e.student_id = st.id
        WHERE st.course_id = $1
        GROUP BY st.id, u.full_name, st.student_number
        ORDER BY u.full_name ASC`
	var results []models.PerformanceAggregate
	if err := r.db.SelectContext(ctx, &results, query, courseID); err != nil {
		return nil, fmt.Errorf("performance rows: %w", err)
	}
	return results, nil
}

// AverageFinalGrade returns the mean of non-null final grades in a class
// group, or nil when nothing is graded yet.
func (r *ReportRepository) AverageFinalGrade(ctx context.Context, classGroupID string) (*float64, error) {
	const query = `SELECT AVG(final_grade) FROM enrollments WHERE class_group_id = $1 AND final_grade IS NOT NULL`
	var avg *float64
	if err := r.db.GetContext(ctx, &avg, query, classGroupID); err != nil {
		return nil, fmt.Errorf("average final grade: %w", err)
	}
	return avg, nil
}
