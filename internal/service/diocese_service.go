package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/remon-atef/sunday-school-api/internal/models"
	appErrors "github.com/remon-atef/sunday-school-api/pkg/errors"
)

type dioceseRepository interface {
	List(ctx context.Context, filter models.HierarchyFilter) ([]models.Diocese, int, error)
	FindByID(ctx context.Context, id string) (*models.Diocese, error)
	Create(ctx context.Context, diocese *models.Diocese) error
	Update(ctx context.Context, diocese *models.Diocese) error
	Delete(ctx context.Context, id string) error
}

// DioceseService handles diocese management.
type DioceseService struct {
	repo      dioceseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDioceseService constructs the service.
func NewDioceseService(repo dioceseRepository, validate *validator.Validate, logger *zap.Logger) *DioceseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DioceseService{repo: repo, validator: validate, logger: logger}
}

// DioceseRequest describes create and update payloads.
type DioceseRequest struct {
	Name   string  `json:"name" validate:"required"`
	Region *string `json:"region"`
}

// List returns dioceses with pagination.
func (s *DioceseService) List(ctx context.Context, filter models.HierarchyFilter) ([]models.Diocese, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list dioceses")
	}
	return rows, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a diocese by id.
func (s *DioceseService) Get(ctx context.Context, id string) (*models.Diocese, error) {
	diocese, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "diocese not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get diocese")
	}
	return diocese, nil
}

// Create registers a new diocese.
func (s *DioceseService) Create(ctx context.Context, req DioceseRequest) (*models.Diocese, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	diocese := &models.Diocese{Name: req.Name, Region: req.Region}
	if err := s.repo.Create(ctx, diocese); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create diocese")
	}
	return diocese, nil
}

// Update modifies an existing diocese.
func (s *DioceseService) Update(ctx context.Context, id string, req DioceseRequest) (*models.Diocese, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Name = req.Name
	existing.Region = req.Region
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update diocese")
	}
	return existing, nil
}

// Delete removes a diocese.
func (s *DioceseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete diocese")
	}
	return nil
}
