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

type churchRepository interface {
	List(ctx context.Context, filter models.HierarchyFilter) ([]models.Church, int, error)
	FindByID(ctx context.Context, id string) (*models.Church, error)
	RefsByDioceses(ctx context.Context, dioceseIDs []string) ([]models.ChurchRef, error)
	Create(ctx context.Context, church *models.Church) error
	Update(ctx context.Context, church *models.Church) error
	Delete(ctx context.Context, id string) error
}

// ChurchService handles church management.
type ChurchService struct {
	repo      churchRepository
	dioceses  dioceseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChurchService constructs the service.
func NewChurchService(repo churchRepository, dioceses dioceseRepository, validate *validator.Validate, logger *zap.Logger) *ChurchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChurchService{repo: repo, dioceses: dioceses, validator: validate, logger: logger}
}

// ChurchRequest describes create and update payloads.
type ChurchRequest struct {
	DioceseID string  `json:"diocese_id" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	Address   *string `json:"address"`
}

// List returns churches with pagination.
func (s *ChurchService) List(ctx context.Context, filter models.HierarchyFilter) ([]models.Church, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list churches")
	}
	return rows, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a church by id.
func (s *ChurchService) Get(ctx context.Context, id string) (*models.Church, error) {
	church, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "church not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to get church")
	}
	return church, nil
}

// Create registers a new church under an existing diocese.
func (s *ChurchService) Create(ctx context.Context, req ChurchRequest) (*models.Church, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.ensureDiocese(ctx, req.DioceseID); err != nil {
		return nil, err
	}
	church := &models.Church{DioceseID: req.DioceseID, Name: req.Name, Address: req.Address}
	if err := s.repo.Create(ctx, church); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create church")
	}
	return church, nil
}

// Update modifies an existing church.
func (s *ChurchService) Update(ctx context.Context, id string, req ChurchRequest) (*models.Church, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureDiocese(ctx, req.DioceseID); err != nil {
		return nil, err
	}
	existing.DioceseID = req.DioceseID
	existing.Name = req.Name
	existing.Address = req.Address
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update church")
	}
	return existing, nil
}

// Delete removes a church.
func (s *ChurchService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete church")
	}
	return nil
}

func (s *ChurchService) ensureDiocese(ctx context.Context, dioceseID string) error {
	if _, err := s.dioceses.FindByID(ctx, dioceseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "diocese does not exist")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check diocese")
	}
	return nil
}
