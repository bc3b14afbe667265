package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/remon-atef/sunday-school-api/internal/models"
)

// AttendanceRepository manages persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs a new attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// List returns attendance records matching filter criteria.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	base := "FROM attendance_records WHERE 1=1"
	var args []interface{}
	if filter.ClassID != "" {
		base += fmt.Sprintf(" AND class_id = $%d", len(args)+1)
		args = append(args, filter.ClassID)
	}
	if filter.StudentID != "" {
		base += fmt.Sprintf(" AND student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}
	if filter.From != nil {
		base += fmt.Sprintf(" AND session_date >= $%d", len(args)+1)
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		base += fmt.Sprintf(" AND session_date <= $%d", len(args)+1)
		args = append(args, *filter.To)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, student_id, class_id, session_date, status, notes, recorded_by, created_at %s ORDER BY session_date DESC LIMIT %d OFFSET %d", base, size, offset)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return records, total, nil
}

// Upsert records or overwrites a student's mark for a session date.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendance_records (id, student_id, class_id, session_date, status, notes, recorded_by, created_at)
VALUES (:id, :student_id, :class_id, :session_date, :status, :notes, :recorded_by, :created_at)
ON CONFLICT (student_id, session_date) DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes, recorded_by = EXCLUDED.recorded_by`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// Summary aggregates per-student counts for a class over a period.
func (r *AttendanceRepository) Summary(ctx context.Context, classID string, from, to *time.Time) ([]models.AttendanceSummary, error) {
	query := `SELECT s.id AS student_id, s.full_name AS student_name,
COUNT(*) FILTER (WHERE a.status = 'PRESENT') AS present,
COUNT(*) FILTER (WHERE a.status = 'ABSENT') AS absent,
COUNT(*) FILTER (WHERE a.status = 'EXCUSED') AS excused
FROM students s
LEFT JOIN attendance_records a ON a.student_id = s.id`
	args := []interface{}{classID}
	conditions := ""
	if from != nil {
		conditions += fmt.Sprintf(" AND a.session_date >= $%d", len(args)+1)
		args = append(args, *from)
	}
	if to != nil {
		conditions += fmt.Sprintf(" AND a.session_date <= $%d", len(args)+1)
		args = append(args, *to)
	}
	query += conditions + " WHERE s.class_id = $1 GROUP BY s.id, s.full_name ORDER BY s.full_name ASC"

	var summaries []models.AttendanceSummary
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}
	return summaries, nil
}

// SessionDates returns the dates, newest first, on which a student has a
// recorded mark. The streak computation walks this list.
func (r *AttendanceRepository) SessionDates(ctx context.Context, studentID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT id, student_id, class_id, session_date, status, notes, recorded_by, created_at
FROM attendance_records WHERE student_id = $1 ORDER BY session_date DESC`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("student session dates: %w", err)
	}
	return records, nil
}
