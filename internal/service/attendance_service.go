package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/remon-atef/sunday-school-api/internal/models"
	appErrors "github.com/remon-atef/sunday-school-api/pkg/errors"
	"github.com/remon-atef/sunday-school-api/pkg/export"
)

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
	Upsert(ctx context.Context, record *models.AttendanceRecord) error
	Summary(ctx context.Context, classID string, from, to *time.Time) ([]models.AttendanceSummary, error)
	SessionDates(ctx context.Context, studentID string) ([]models.AttendanceRecord, error)
}

// AttendanceService covers session marking, summaries and export sheets.
type AttendanceService struct {
	repo        attendanceRepository
	students    studentRepository
	validator   *validator.Validate
	logger      *zap.Logger
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	exportTitle string
}

// NewAttendanceService constructs the service.
func NewAttendanceService(repo attendanceRepository, students studentRepository, validate *validator.Validate, logger *zap.Logger, exportTitle string) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	_ = validate.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		switch models.AttendanceStatus(fl.Field().String()) {
		case models.AttendancePresent, models.AttendanceAbsent, models.AttendanceExcused:
			return true
		}
		return false
	})
	if exportTitle == "" {
		exportTitle = "Attendance Summary"
	}
	return &AttendanceService{
		repo:        repo,
		students:    students,
		validator:   validate,
		logger:      logger,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewLandscapePDFExporter(),
		exportTitle: exportTitle,
	}
}

// MarkAttendanceRequest records one student's mark for a session.
type MarkAttendanceRequest struct {
	StudentID   string    `json:"student_id" validate:"required"`
	ClassID     string    `json:"class_id" validate:"required"`
	SessionDate time.Time `json:"session_date" validate:"required"`
	Status      string    `json:"status" validate:"required,attendance_status"`
	Notes       *string   `json:"notes"`
}

// List returns attendance records with pagination.
func (s *AttendanceService) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Mark upserts a mark for a student on a session date. Re-marking the same
// date overwrites the previous status.
func (s *AttendanceService) Mark(ctx context.Context, req MarkAttendanceRequest, actor string) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student does not exist")
	}
	if student.ClassID != req.ClassID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is not enrolled in this class")
	}
	record := &models.AttendanceRecord{
		StudentID:   req.StudentID,
		ClassID:     req.ClassID,
		SessionDate: req.SessionDate.UTC().Truncate(24 * time.Hour),
		Status:      models.AttendanceStatus(req.Status),
		Notes:       req.Notes,
		RecordedBy:  actor,
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	return record, nil
}

// Summary aggregates per-student counts for a class and computes the presence
// rate over marked sessions.
func (s *AttendanceService) Summary(ctx context.Context, classID string, from, to *time.Time) ([]models.AttendanceSummary, error) {
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class_id is required")
	}
	summaries, err := s.repo.Summary(ctx, classID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build attendance summary")
	}
	for i := range summaries {
		total := summaries[i].Present + summaries[i].Absent + summaries[i].Excused
		if total > 0 {
			summaries[i].Rate = float64(summaries[i].Present) / float64(total)
		}
	}
	return summaries, nil
}

// ExportSummary renders the class summary as CSV or PDF bytes.
func (s *AttendanceService) ExportSummary(ctx context.Context, classID string, from, to *time.Time, format string) ([]byte, string, error) {
	summaries, err := s.Summary(ctx, classID, from, to)
	if err != nil {
		return nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Student", "Present", "Absent", "Excused", "Rate"},
	}
	for _, sum := range summaries {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student": sum.StudentName,
			"Present": fmt.Sprintf("%d", sum.Present),
			"Absent":  fmt.Sprintf("%d", sum.Absent),
			"Excused": fmt.Sprintf("%d", sum.Excused),
			"Rate":    fmt.Sprintf("%.0f%%", sum.Rate*100),
		})
	}

	switch format {
	case "csv", "":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, s.exportTitle)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}
