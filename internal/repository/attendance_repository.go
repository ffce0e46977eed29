package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sga-api/internal/models"
)

// AttendanceRepository provides database access for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new instance of AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, enrollment_id, class_date, class_period, status, notes, recorded_by, created_at, updated_at`

// Exists reports whether a record already exists for the unique triple.
func (r *AttendanceRepository) Exists(ctx context.Context, enrollmentID string, classDate time.Time, classPeriod int) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM attendances WHERE enrollment_id = $1 AND class_date = $2 AND class_period = $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, enrollmentID, classDate, classPeriod); err != nil {
		return false, fmt.Errorf("check attendance: %w", err)
	}
	return exists, nil
}

// Create inserts a new attendance record.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.Attendance) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO attendances (id, enrollment_id, class_date, class_period, status, notes, recorded_by, created_at, updated_at) VALUES (:id, :enrollment_id, :class_date, :class_period, :status, :notes, :recorded_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// Update replaces the status and notes of an attendance record.
func (r *AttendanceRepository) Update(ctx context.Context, record *models.Attendance) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE attendances SET status = :status, notes = :notes, recorded_by = :recorded_by, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("update attendance: %w", err)
	}
	return nil
}

// Delete removes an attendance record.
func (r *AttendanceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM attendances WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete attendance: %w", err)
	}
	return nil
}

// FindByID returns an attendance record by identifier.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendances WHERE id = $1 LIMIT 1`, attendanceColumns)
	var record models.Attendance
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return &record, nil
}

// ListByEnrollment returns an enrollment's attendance history.
func (r *AttendanceRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendances WHERE enrollment_id = $1 ORDER BY class_date ASC, class_period ASC`, attendanceColumns)
	var records []models.Attendance
	if err := r.db.SelectContext(ctx, &records, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// StatusCounts returns per-status record counts for one enrollment.
func (r *AttendanceRepository) StatusCounts(ctx context.Context, enrollmentID string) (map[models.AttendanceStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS count FROM attendances WHERE enrollment_id = $1 GROUP BY status`
	rows, err := r.db.QueryxContext(ctx, query, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("count attendance: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.AttendanceStatus]int)
	for rows.Next() {
		var status models.AttendanceStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan attendance count: %w", err)
		}
		counts[status] = count
	}
	return counts, nil
}

// PresenceByEnrollment returns, per enrollment of a class group, the number
// of attended records (present or late) and the total.
func (r *AttendanceRepository) PresenceByEnrollment(ctx context.Context, classGroupID string) (map[string][2]int, error) {
	const query = `SELECT a.enrollment_id,
            COUNT(*) FILTER (WHERE a.status IN ('PRESENT', 'LATE')) AS attended,
            COUNT(*) AS total
        FROM attendances a
        JOIN enrollments e ON e.id = a.enrollment_id
        WHERE e.class_group_id = $1
        GROUP BY a.enrollment_id`
	rows, err := r.db.QueryxContext(ctx, query, classGroupID)
	if err != nil {
		return nil, fmt.Errorf("presence by enrollment: %w", err)
	}
	defer rows.Close()

	result := make(map[string][2]int)
	for rows.Next() {
		var enrollmentID string
		var attended, total int
		if err := rows.Scan(&enrollmentID, &attended, &total); err != nil {
			return nil, fmt.Errorf("scan presence: %w", err)
		}
		result[enrollmentID] = [2]int{attended, total}
	}
	return result, nil
}
