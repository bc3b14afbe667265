package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/remon-atef/sunday-school-api/internal/models"
	appErrors "github.com/remon-atef/sunday-school-api/pkg/errors"
)

type announcementRepository interface {
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
	ListVisible(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, error)
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement, scope models.AnnouncementScope) error
	Update(ctx context.Context, announcement *models.Announcement, scope *models.AnnouncementScope) error
	Deactivate(ctx context.Context, id string, reason *string, actor string, now time.Time) error
	Republish(ctx context.Context, announcement *models.Announcement, scope *models.AnnouncementScope) error
	GetScope(ctx context.Context, announcementID string) (models.AnnouncementScope, error)
	ListScopes(ctx context.Context, announcementIDs []string) (map[string]models.AnnouncementScope, error)
	DistinctTypes(ctx context.Context, limit int) ([]string, error)
}

// AnnouncementService handles the announcement lifecycle: create, update,
// deactivate, republish, and scoped listings.
type AnnouncementService struct {
	repo            announcementRepository
	validator       *validator.Validate
	logger          *zap.Logger
	now             func() time.Time
	suggestionLimit int
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(repo announcementRepository, validate *validator.Validate, logger *zap.Logger, suggestionLimit int) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AnnouncementService{
		repo:            repo,
		validator:       validate,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
		suggestionLimit: suggestionLimit,
	}
	svc.validator.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return models.ValidRole(fl.Field().String())
	})
	return svc
}

// CreateAnnouncementRequest describes the create payload. publish_to carries
// no ordering constraint against publish_from; the form offers quick ranges
// but does not hard-validate the window.
type CreateAnnouncementRequest struct {
	Title       string                   `json:"title" validate:"required"`
	Description *string                  `json:"description"`
	Types       []string                 `json:"types"`
	TargetRoles []string                 `json:"target_roles" validate:"required,min=1,dive,role"`
	PublishFrom time.Time                `json:"publish_from" validate:"required"`
	PublishTo   *time.Time               `json:"publish_to"`
	Scope       models.AnnouncementScope `json:"scope"`
}

// UpdateAnnouncementRequest describes the update payload. A nil Scope leaves
// the junction rows untouched; a present one replaces all three dimensions.
type UpdateAnnouncementRequest struct {
	Title       string                    `json:"title" validate:"required"`
	Description *string                   `json:"description"`
	Types       []string                  `json:"types"`
	TargetRoles []string                  `json:"target_roles" validate:"required,min=1,dive,role"`
	PublishFrom time.Time                 `json:"publish_from" validate:"required"`
	PublishTo   *time.Time                `json:"publish_to"`
	Scope       *models.AnnouncementScope `json:"scope"`
}

// DeactivateAnnouncementRequest carries the optional free-text reason.
type DeactivateAnnouncementRequest struct {
	Reason *string `json:"reason"`
}

// RepublishAnnouncementRequest merges optional edits into the republish
// update. The identifier is never part of the payload and cannot be
// overwritten.
type RepublishAnnouncementRequest struct {
	Title       *string                   `json:"title"`
	Description *string                   `json:"description"`
	Types       []string                  `json:"types"`
	TargetRoles []string                  `json:"target_roles" validate:"omitempty,min=1,dive,role"`
	Scope       *models.AnnouncementScope `json:"scope"`
}

// List returns all announcements with scope and computed status, ordered by
// creation time descending.
func (s *AnnouncementService) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.AnnouncementDetail, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	scopes, err := s.repo.ListScopes(ctx, ids)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement scopes")
	}

	now := s.now()
	details := make([]models.AnnouncementDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, models.AnnouncementDetail{
			Announcement: row,
			Scope:        scopes[row.ID],
			Status:       row.StatusAt(now),
		})
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return details, pagination, nil
}

// Feed returns the currently active announcements visible to the caller's
// roles and hierarchy position. Callers without a role read as parents.
func (s *AnnouncementService) Feed(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, error) {
	if len(filter.Roles) == 0 {
		filter.Roles = []models.UserRole{models.RoleParent}
	}
	rows, err := s.repo.ListVisible(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement feed")
	}
	return rows, nil
}

// Get returns a single announcement with scope and computed status.
func (s *AnnouncementService) Get(ctx context.Context, id string) (*models.AnnouncementDetail, error) {
	announcement, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get announcement")
	}
	scope, err := s.repo.GetScope(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement scope")
	}
	return &models.AnnouncementDetail{
		Announcement: *announcement,
		Scope:        scope,
		Status:       announcement.StatusAt(s.now()),
	}, nil
}

// Create registers a new announcement. An initial window entirely in the past
// is permitted; the row simply surfaces as expired.
func (s *AnnouncementService) Create(ctx context.Context, req CreateAnnouncementRequest, actor string) (*models.AnnouncementDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	announcement := &models.Announcement{
		Title:       req.Title,
		Description: req.Description,
		Types:       normalizeTypes(req.Types),
		TargetRoles: req.TargetRoles,
		PublishFrom: req.PublishFrom,
		PublishTo:   req.PublishTo,
		CreatedBy:   actor,
	}
	if err := s.repo.Create(ctx, announcement, req.Scope); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}
	return &models.AnnouncementDetail{
		Announcement: *announcement,
		Scope:        req.Scope,
		Status:       announcement.StatusAt(s.now()),
	}, nil
}

// Update modifies an existing announcement; status is recomputed, never
// stored.
func (s *AnnouncementService) Update(ctx context.Context, id string, req UpdateAnnouncementRequest) (*models.AnnouncementDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	existing, err := s.loadAnnouncement(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Title = req.Title
	existing.Description = req.Description
	existing.Types = normalizeTypes(req.Types)
	existing.TargetRoles = req.TargetRoles
	existing.PublishFrom = req.PublishFrom
	existing.PublishTo = req.PublishTo
	if err := s.repo.Update(ctx, existing, req.Scope); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update announcement")
	}
	return s.Get(ctx, id)
}

// Deactivate soft-deletes the announcement, recording reason, timestamp and
// actor. Re-deactivating re-stamps the metadata.
func (s *AnnouncementService) Deactivate(ctx context.Context, id string, req DeactivateAnnouncementRequest, actor string) (*models.AnnouncementDetail, error) {
	if _, err := s.loadAnnouncement(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.Deactivate(ctx, id, req.Reason, actor, s.now()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate announcement")
	}
	return s.Get(ctx, id)
}

// Republish revives the announcement into a window anchored at the current
// time, preserving the original window's duration when it was bounded and
// positive. Optional edits are merged into the same update.
func (s *AnnouncementService) Republish(ctx context.Context, id string, req RepublishAnnouncementRequest) (*models.AnnouncementDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	existing, err := s.loadAnnouncement(ctx, id)
	if err != nil {
		return nil, err
	}

	revived := existing.Republished(s.now())
	if req.Title != nil {
		revived.Title = *req.Title
	}
	if req.Description != nil {
		revived.Description = req.Description
	}
	if req.Types != nil {
		revived.Types = normalizeTypes(req.Types)
	}
	if req.TargetRoles != nil {
		revived.TargetRoles = req.TargetRoles
	}

	if err := s.repo.Republish(ctx, &revived, req.Scope); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to republish announcement")
	}
	return s.Get(ctx, id)
}

// SuggestTypes returns the distinct tags used across announcements for
// autocomplete. The lookup is best-effort: on failure the form gets an empty
// list instead of an error.
func (s *AnnouncementService) SuggestTypes(ctx context.Context) []string {
	tags, err := s.repo.DistinctTypes(ctx, s.suggestionLimit)
	if err != nil {
		s.logger.Warn("tag suggestion query failed, degrading to empty list", zap.Error(err))
		return []string{}
	}
	if tags == nil {
		tags = []string{}
	}
	return tags
}

func (s *AnnouncementService) loadAnnouncement(ctx context.Context, id string) (*models.Announcement, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}
	return existing, nil
}

func normalizeTypes(raw []string) []string {
	var types []string
	for _, tag := range raw {
		types = models.AddType(types, tag)
	}
	return types
}
