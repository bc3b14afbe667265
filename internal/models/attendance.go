package models

import "time"

// AttendanceStatus enumerates the per-session marks.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
	AttendanceExcused AttendanceStatus = "EXCUSED"
)

// AttendanceRecord is one student's mark for one class session.
type AttendanceRecord struct {
	ID          string           `db:"id" json:"id"`
	StudentID   string           `db:"student_id" json:"student_id"`
	ClassID     string           `db:"class_id" json:"class_id"`
	SessionDate time.Time        `db:"session_date" json:"session_date"`
	Status      AttendanceStatus `db:"status" json:"status"`
	Notes       *string          `db:"notes" json:"notes,omitempty"`
	RecordedBy  string           `db:"recorded_by" json:"recorded_by"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// AttendanceFilter narrows attendance listings.
type AttendanceFilter struct {
	ClassID   string
	StudentID string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// AttendanceSummary aggregates per-student counts over a period.
type AttendanceSummary struct {
	StudentID   string  `db:"student_id" json:"student_id"`
	StudentName string  `db:"student_name" json:"student_name"`
	Present     int     `db:"present" json:"present"`
	Absent      int     `db:"absent" json:"absent"`
	Excused     int     `db:"excused" json:"excused"`
	Rate        float64 `db:"-" json:"rate"`
}
