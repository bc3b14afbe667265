package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/remon-atef/sunday-school-api/internal/models"
	appErrors "github.com/remon-atef/sunday-school-api/pkg/errors"
)

type dioceseRefLister interface {
	RefsAll(ctx context.Context) ([]string, error)
}

type churchRefLister interface {
	RefsByDioceses(ctx context.Context, dioceseIDs []string) ([]models.ChurchRef, error)
}

type classRefLister interface {
	RefsByChurches(ctx context.Context, churchIDs []string) ([]models.ClassRef, error)
}

// ScopeService loads the targeting hierarchy and runs operator selections
// through the scope resolver before they are persisted.
type ScopeService struct {
	dioceses dioceseRefLister
	churches churchRefLister
	classes  classRefLister
	logger   *zap.Logger
}

// NewScopeService constructs the service.
func NewScopeService(dioceses dioceseRefLister, churches churchRefLister, classes classRefLister, logger *zap.Logger) *ScopeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScopeService{dioceses: dioceses, churches: churches, classes: classes, logger: logger}
}

// Resolve clamps a submitted scope to the current hierarchy: churches outside
// the selected dioceses and classes outside the selected churches are pruned.
func (s *ScopeService) Resolve(ctx context.Context, scope models.AnnouncementScope) (models.AnnouncementScope, error) {
	selection, err := s.selection(ctx, scope)
	if err != nil {
		return models.AnnouncementScope{}, err
	}
	return selection.Scope(), nil
}

// SelectAll applies the submitted scope and then expands one dimension to
// every candidate available under the parent selection.
func (s *ScopeService) SelectAll(ctx context.Context, scope models.AnnouncementScope, dimension ScopeDimension) (models.AnnouncementScope, error) {
	selection, err := s.selection(ctx, scope)
	if err != nil {
		return models.AnnouncementScope{}, err
	}
	selection.SelectAll(dimension)
	return selection.Scope(), nil
}

func (s *ScopeService) selection(ctx context.Context, scope models.AnnouncementScope) (*ScopeSelection, error) {
	dioceseIDs, err := s.dioceses.RefsAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dioceses")
	}
	churchRefs, err := s.churches.RefsByDioceses(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load churches")
	}
	classRefs, err := s.classes.RefsByChurches(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}

	hierarchy := NewScopeHierarchy(dioceseIDs, churchRefs, classRefs)
	selection := NewScopeSelection(hierarchy)
	selection.SetDioceses(scope.DioceseIDs)
	selection.SetChurches(scope.ChurchIDs)
	selection.SetClasses(scope.ClassIDs)
	return selection, nil
}
