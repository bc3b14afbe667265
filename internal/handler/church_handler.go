package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/remon-atef/sunday-school-api/internal/service"
	appErrors "github.com/remon-atef/sunday-school-api/pkg/errors"
	"github.com/remon-atef/sunday-school-api/pkg/response"
)

// ChurchHandler exposes church endpoints.
type ChurchHandler struct {
	churches *service.ChurchService
}

// NewChurchHandler constructs ChurchHandler.
func NewChurchHandler(churches *service.ChurchService) *ChurchHandler {
	return &ChurchHandler{churches: churches}
}

// List godoc
// @Summary List churches
// @Tags Hierarchy
// @Produce json
// @Param diocese_id query string false "Filter by diocese"
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /churches [get]
func (h *ChurchHandler) List(c *gin.Context) {
	filter := hierarchyFilterFromQuery(c)
	items, pagination, err := h.churches.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get church detail
// @Tags Hierarchy
// @Produce json
// @Param id path string true "Church ID"
// @Success 200 {object} response.Envelope
// @Router /churches/{id} [get]
func (h *ChurchHandler) Get(c *gin.Context) {
	item, err := h.churches.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create church
// @Tags Hierarchy
// @Accept json
// @Produce json
// @Param payload body service.ChurchRequest true "Church payload"
// @Success 201 {object} response.Envelope
// @Router /churches [post]
func (h *ChurchHandler) Create(c *gin.Context) {
	var req service.ChurchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.churches.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update church
// @Tags Hierarchy
// @Accept json
// @Produce json
// @Param id path string true "Church ID"
// @Param payload body service.ChurchRequest true "Church payload"
// @Success 200 {object} response.Envelope
// @Router /churches/{id} [put]
func (h *ChurchHandler) Update(c *gin.Context) {
	var req service.ChurchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.churches.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete church
// @Tags Hierarchy
// @Produce json
// @Param id path string true "Church ID"
// @Success 204
// @Router /churches/{id} [delete]
func (h *ChurchHandler) Delete(c *gin.Context) {
	if err := h.churches.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
