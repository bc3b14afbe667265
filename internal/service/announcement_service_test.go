package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/remon-atef/sunday-school-api/internal/models"
	appErrors "github.com/remon-atef/sunday-school-api/pkg/errors"
)

type mockAnnouncementRepo struct {
	announcements map[string]*models.Announcement
	scopes        map[string]models.AnnouncementScope
	distinctTypes []string

	getErr            error
	republishErr      error
	distinctErr       error
	lastVisibleFilter models.AnnouncementFilter
	lastRepublished   *models.Announcement
	lastScope         *models.AnnouncementScope
	deactivatedAt     time.Time
	deactivatedBy     string
	deactivateTo      *string
}

func newMockAnnouncementRepo() *mockAnnouncementRepo {
	return &mockAnnouncementRepo{
		announcements: make(map[string]*models.Announcement),
		scopes:        make(map[string]models.AnnouncementScope),
	}
}

func (m *mockAnnouncementRepo) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	var rows []models.Announcement
	for _, a := range m.announcements {
		rows = append(rows, *a)
	}
	return rows, len(rows), nil
}

func (m *mockAnnouncementRepo) ListVisible(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, error) {
	m.lastVisibleFilter = filter
	var rows []models.Announcement
	for _, a := range m.announcements {
		if !a.IsDeleted {
			rows = append(rows, *a)
		}
	}
	return rows, nil
}

func (m *mockAnnouncementRepo) GetByID(ctx context.Context, id string) (*models.Announcement, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	a, ok := m.announcements[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (m *mockAnnouncementRepo) Create(ctx context.Context, announcement *models.Announcement, scope models.AnnouncementScope) error {
	if announcement.ID == "" {
		announcement.ID = "generated-id"
	}
	stored := *announcement
	m.announcements[announcement.ID] = &stored
	m.scopes[announcement.ID] = scope
	return nil
}

func (m *mockAnnouncementRepo) Update(ctx context.Context, announcement *models.Announcement, scope *models.AnnouncementScope) error {
	stored := *announcement
	m.announcements[announcement.ID] = &stored
	if scope != nil {
		m.scopes[announcement.ID] = *scope
	}
	return nil
}

func (m *mockAnnouncementRepo) Deactivate(ctx context.Context, id string, reason *string, actor string, now time.Time) error {
	a, ok := m.announcements[id]
	if !ok {
		return sql.ErrNoRows
	}
	updated := a.Deactivated(reason, actor, now)
	m.announcements[id] = &updated
	m.deactivateTo = reason
	m.deactivatedBy = actor
	m.deactivatedAt = now
	return nil
}

func (m *mockAnnouncementRepo) Republish(ctx context.Context, announcement *models.Announcement, scope *models.AnnouncementScope) error {
	if m.republishErr != nil {
		return m.republishErr
	}
	stored := *announcement
	m.announcements[announcement.ID] = &stored
	m.lastRepublished = &stored
	m.lastScope = scope
	if scope != nil {
		m.scopes[announcement.ID] = *scope
	}
	return nil
}

func (m *mockAnnouncementRepo) GetScope(ctx context.Context, announcementID string) (models.AnnouncementScope, error) {
	return m.scopes[announcementID], nil
}

func (m *mockAnnouncementRepo) ListScopes(ctx context.Context, announcementIDs []string) (map[string]models.AnnouncementScope, error) {
	out := make(map[string]models.AnnouncementScope, len(announcementIDs))
	for _, id := range announcementIDs {
		out[id] = m.scopes[id]
	}
	return out, nil
}

func (m *mockAnnouncementRepo) DistinctTypes(ctx context.Context, limit int) ([]string, error) {
	if m.distinctErr != nil {
		return nil, m.distinctErr
	}
	return m.distinctTypes, nil
}

func newAnnouncementService(repo *mockAnnouncementRepo, now time.Time) *AnnouncementService {
	svc := NewAnnouncementService(repo, nil, zap.NewNop(), 10)
	svc.now = func() time.Time { return now }
	return svc
}

func TestAnnouncementCreate(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	repo := newMockAnnouncementRepo()
	svc := newAnnouncementService(repo, now)

	detail, err := svc.Create(context.Background(), CreateAnnouncementRequest{
		Title:       "Summer retreat",
		Types:       []string{" retreat ", "retreat", "event"},
		TargetRoles: []string{"PARENT", "SERVANT"},
		PublishFrom: now.Add(-time.Hour),
		Scope:       models.AnnouncementScope{ChurchIDs: []string{"c1"}},
	}, "admin-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"retreat", "event"}, []string(detail.Types))
	assert.Equal(t, "admin-1", detail.CreatedBy)
	assert.Equal(t, models.AnnouncementStatusActive, detail.Status)
	assert.Equal(t, []string{"c1"}, detail.Scope.ChurchIDs)
}

func TestAnnouncementCreateRequiresRoles(t *testing.T) {
	repo := newMockAnnouncementRepo()
	svc := newAnnouncementService(repo, time.Now())

	_, err := svc.Create(context.Background(), CreateAnnouncementRequest{
		Title:       "No audience",
		PublishFrom: time.Now(),
	}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), CreateAnnouncementRequest{
		Title:       "Bad role",
		TargetRoles: []string{"WIZARD"},
		PublishFrom: time.Now(),
	}, "admin-1")
	require.Error(t, err)
}

func TestAnnouncementCreatePastWindowAllowed(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := newMockAnnouncementRepo()
	svc := newAnnouncementService(repo, now)

	past := now.AddDate(0, -1, 0)
	end := past.AddDate(0, 0, 7)
	detail, err := svc.Create(context.Background(), CreateAnnouncementRequest{
		Title:       "Old news",
		TargetRoles: []string{"PARENT"},
		PublishFrom: past,
		PublishTo:   &end,
	}, "admin-1")

	require.NoError(t, err)
	assert.Equal(t, models.AnnouncementStatusExpired, detail.Status)
}

func TestAnnouncementDeactivate(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := newMockAnnouncementRepo()
	repo.announcements["a1"] = &models.Announcement{ID: "a1", Title: "T", PublishFrom: now.Add(-time.Hour)}
	svc := newAnnouncementService(repo, now)

	reason := "posted twice"
	detail, err := svc.Deactivate(context.Background(), "a1", DeactivateAnnouncementRequest{Reason: &reason}, "admin-2")

	require.NoError(t, err)
	assert.Equal(t, models.AnnouncementStatusDeactivated, detail.Status)
	assert.Equal(t, &reason, repo.deactivateTo)
	assert.Equal(t, "admin-2", repo.deactivatedBy)
	assert.Equal(t, now, repo.deactivatedAt)
}

func TestAnnouncementDeactivateNotFound(t *testing.T) {
	repo := newMockAnnouncementRepo()
	svc := newAnnouncementService(repo, time.Now())

	_, err := svc.Deactivate(context.Background(), "missing", DeactivateAnnouncementRequest{}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAnnouncementRepublishShiftsWindow(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	reason := "stale"
	deactivatedAt := now.Add(-24 * time.Hour)

	repo := newMockAnnouncementRepo()
	repo.announcements["a1"] = &models.Announcement{
		ID:                 "a1",
		Title:              "Retreat signup",
		PublishFrom:        from,
		PublishTo:          &to,
		IsDeleted:          true,
		DeactivationReason: &reason,
		DeactivatedAt:      &deactivatedAt,
	}
	svc := newAnnouncementService(repo, now)

	detail, err := svc.Republish(context.Background(), "a1", RepublishAnnouncementRequest{})

	require.NoError(t, err)
	assert.Equal(t, now, detail.PublishFrom)
	require.NotNil(t, detail.PublishTo)
	assert.Equal(t, now.AddDate(0, 0, 7), *detail.PublishTo)
	assert.False(t, detail.IsDeleted)
	assert.Nil(t, detail.DeactivationReason)
	assert.Nil(t, detail.DeactivatedAt)
	assert.Equal(t, models.AnnouncementStatusActive, detail.Status)
	assert.Equal(t, "a1", detail.ID)
}

func TestAnnouncementRepublishOpenEnded(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	repo := newMockAnnouncementRepo()
	repo.announcements["a1"] = &models.Announcement{ID: "a1", Title: "T", PublishFrom: from, IsDeleted: true}
	svc := newAnnouncementService(repo, now)

	detail, err := svc.Republish(context.Background(), "a1", RepublishAnnouncementRequest{})

	require.NoError(t, err)
	assert.Equal(t, now, detail.PublishFrom)
	assert.Nil(t, detail.PublishTo)
}

func TestAnnouncementRepublishMergesEdits(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	repo := newMockAnnouncementRepo()
	repo.announcements["a1"] = &models.Announcement{
		ID:          "a1",
		Title:       "Old title",
		PublishFrom: from,
		IsDeleted:   true,
		TargetRoles: []string{"PARENT"},
	}
	svc := newAnnouncementService(repo, now)

	newTitle := "New title"
	scope := &models.AnnouncementScope{ClassIDs: []string{"k1"}}
	detail, err := svc.Republish(context.Background(), "a1", RepublishAnnouncementRequest{
		Title:       &newTitle,
		Types:       []string{"update"},
		TargetRoles: []string{"SERVANT"},
		Scope:       scope,
	})

	require.NoError(t, err)
	assert.Equal(t, "New title", detail.Title)
	assert.Equal(t, []string{"update"}, []string(detail.Types))
	assert.Equal(t, []string{"SERVANT"}, []string(detail.TargetRoles))
	assert.Equal(t, []string{"k1"}, detail.Scope.ClassIDs)
	assert.Equal(t, "a1", repo.lastRepublished.ID, "edits never change the id")
}

func TestAnnouncementFeedDefaultsToParentRole(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	repo := newMockAnnouncementRepo()
	repo.announcements["a1"] = &models.Announcement{ID: "a1", Title: "T", PublishFrom: now.Add(-time.Hour)}
	svc := newAnnouncementService(repo, now)

	rows, err := svc.Feed(context.Background(), models.AnnouncementFilter{DioceseID: "d1", ActiveOnly: true})

	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, []models.UserRole{models.RoleParent}, repo.lastVisibleFilter.Roles)
	assert.Equal(t, "d1", repo.lastVisibleFilter.DioceseID)
}

func TestAnnouncementFeedKeepsCallerRole(t *testing.T) {
	repo := newMockAnnouncementRepo()
	svc := newAnnouncementService(repo, time.Now())

	_, err := svc.Feed(context.Background(), models.AnnouncementFilter{
		Roles:    []models.UserRole{models.RoleServant},
		ChurchID: "c1",
	})

	require.NoError(t, err)
	assert.Equal(t, []models.UserRole{models.RoleServant}, repo.lastVisibleFilter.Roles)
}

func TestSuggestTypesDegradesToEmpty(t *testing.T) {
	repo := newMockAnnouncementRepo()
	repo.distinctErr = errors.New("undefined function unnest")
	svc := newAnnouncementService(repo, time.Now())

	tags := svc.SuggestTypes(context.Background())
	assert.NotNil(t, tags)
	assert.Empty(t, tags)
}

func TestSuggestTypes(t *testing.T) {
	repo := newMockAnnouncementRepo()
	repo.distinctTypes = []string{"event", "retreat"}
	svc := newAnnouncementService(repo, time.Now())

	assert.Equal(t, []string{"event", "retreat"}, svc.SuggestTypes(context.Background()))
}
