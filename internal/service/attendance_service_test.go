package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/remon-atef/sunday-school-api/internal/models"
	appErrors "github.com/remon-atef/sunday-school-api/pkg/errors"
)

type mockAttendanceRepo struct {
	records   []models.AttendanceRecord
	summaries []models.AttendanceSummary
	upserted  []*models.AttendanceRecord
}

func (m *mockAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	return m.records, len(m.records), nil
}

func (m *mockAttendanceRepo) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	m.upserted = append(m.upserted, record)
	return nil
}

func (m *mockAttendanceRepo) Summary(ctx context.Context, classID string, from, to *time.Time) ([]models.AttendanceSummary, error) {
	return m.summaries, nil
}

func (m *mockAttendanceRepo) SessionDates(ctx context.Context, studentID string) ([]models.AttendanceRecord, error) {
	return m.records, nil
}

type mockStudentRepo struct {
	students map[string]*models.Student
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	return nil, 0, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	s, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return s, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error { return nil }
func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error { return nil }
func (m *mockStudentRepo) Deactivate(ctx context.Context, id string) error           { return nil }

func TestAttendanceMark(t *testing.T) {
	repo := &mockAttendanceRepo{}
	students := &mockStudentRepo{students: map[string]*models.Student{
		"s1": {ID: "s1", ClassID: "k1", FullName: "Mina"},
	}}
	svc := NewAttendanceService(repo, students, nil, zap.NewNop(), "")

	rec, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		StudentID:   "s1",
		ClassID:     "k1",
		SessionDate: time.Date(2024, 4, 7, 15, 30, 0, 0, time.UTC),
		Status:      "PRESENT",
	}, "servant-1")

	require.NoError(t, err)
	assert.Equal(t, models.AttendancePresent, rec.Status)
	assert.Equal(t, "servant-1", rec.RecordedBy)
	assert.Equal(t, time.Date(2024, 4, 7, 0, 0, 0, 0, time.UTC), rec.SessionDate, "session date is truncated to the day")
	require.Len(t, repo.upserted, 1)
}

func TestAttendanceMarkRejectsUnknownStatus(t *testing.T) {
	svc := NewAttendanceService(&mockAttendanceRepo{}, &mockStudentRepo{}, nil, zap.NewNop(), "")

	_, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		StudentID:   "s1",
		ClassID:     "k1",
		SessionDate: time.Now(),
		Status:      "LATE",
	}, "servant-1")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAttendanceMarkRejectsWrongClass(t *testing.T) {
	students := &mockStudentRepo{students: map[string]*models.Student{
		"s1": {ID: "s1", ClassID: "k1"},
	}}
	svc := NewAttendanceService(&mockAttendanceRepo{}, students, nil, zap.NewNop(), "")

	_, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		StudentID:   "s1",
		ClassID:     "k2",
		SessionDate: time.Now(),
		Status:      "PRESENT",
	}, "servant-1")

	require.Error(t, err)
}

func TestAttendanceSummaryComputesRate(t *testing.T) {
	repo := &mockAttendanceRepo{summaries: []models.AttendanceSummary{
		{StudentID: "s1", StudentName: "Mina", Present: 3, Absent: 1, Excused: 0},
		{StudentID: "s2", StudentName: "Marc", Present: 0, Absent: 0, Excused: 0},
	}}
	svc := NewAttendanceService(repo, &mockStudentRepo{}, nil, zap.NewNop(), "")

	summaries, err := svc.Summary(context.Background(), "k1", nil, nil)

	require.NoError(t, err)
	assert.InDelta(t, 0.75, summaries[0].Rate, 1e-9)
	assert.Zero(t, summaries[1].Rate, "no marked sessions means zero rate, not NaN")
}

func TestAttendanceExportCSV(t *testing.T) {
	repo := &mockAttendanceRepo{summaries: []models.AttendanceSummary{
		{StudentID: "s1", StudentName: "Mina", Present: 4, Absent: 0, Excused: 0},
	}}
	svc := NewAttendanceService(repo, &mockStudentRepo{}, nil, zap.NewNop(), "")

	payload, contentType, err := svc.ExportSummary(context.Background(), "k1", nil, nil, "csv")

	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	body := string(payload)
	assert.True(t, strings.HasPrefix(body, "Student,Present,Absent,Excused,Rate"))
	assert.Contains(t, body, "Mina,4,0,0,100%")
}

func TestAttendanceExportUnknownFormat(t *testing.T) {
	svc := NewAttendanceService(&mockAttendanceRepo{}, &mockStudentRepo{}, nil, zap.NewNop(), "")

	_, _, err := svc.ExportSummary(context.Background(), "k1", nil, nil, "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
