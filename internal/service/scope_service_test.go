package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/remon-atef/sunday-school-api/internal/models"
)

type mockDioceseLister struct{ ids []string }

func (m *mockDioceseLister) RefsAll(ctx context.Context) ([]string, error) {
	return m.ids, nil
}

type mockChurchLister struct{ refs []models.ChurchRef }

func (m *mockChurchLister) RefsByDioceses(ctx context.Context, dioceseIDs []string) ([]models.ChurchRef, error) {
	return m.refs, nil
}

type mockClassLister struct{ refs []models.ClassRef }

func (m *mockClassLister) RefsByChurches(ctx context.Context, churchIDs []string) ([]models.ClassRef, error) {
	return m.refs, nil
}

func newScopeTestService() *ScopeService {
	return NewScopeService(
		&mockDioceseLister{ids: []string{"d1", "d2"}},
		&mockChurchLister{refs: []models.ChurchRef{
			{ID: "c1", DioceseID: "d1"},
			{ID: "c2", DioceseID: "d2"},
		}},
		&mockClassLister{refs: []models.ClassRef{
			{ID: "k1", ChurchID: "c1"},
			{ID: "k2", ChurchID: "c2"},
		}},
		zap.NewNop(),
	)
}

func TestScopeServiceResolveClamps(t *testing.T) {
	svc := newScopeTestService()

	resolved, err := svc.Resolve(context.Background(), models.AnnouncementScope{
		DioceseIDs: []string{"d1", "ghost"},
		ChurchIDs:  []string{"c1", "c2"},
		ClassIDs:   []string{"k1", "k2"},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, resolved.DioceseIDs)
	assert.Equal(t, []string{"c1"}, resolved.ChurchIDs, "c2 pruned with its unselected diocese")
	assert.Equal(t, []string{"k1"}, resolved.ClassIDs, "k2 pruned with its unselected church")
}

func TestScopeServiceSelectAllChurches(t *testing.T) {
	svc := newScopeTestService()

	resolved, err := svc.SelectAll(context.Background(), models.AnnouncementScope{
		DioceseIDs: []string{"d1", "d2"},
	}, DimensionChurch)

	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, resolved.ChurchIDs)
}

func TestScopeServiceSelectAllWithoutParentIsNoop(t *testing.T) {
	svc := newScopeTestService()

	resolved, err := svc.SelectAll(context.Background(), models.AnnouncementScope{}, DimensionChurch)

	require.NoError(t, err)
	assert.Empty(t, resolved.ChurchIDs)
}
