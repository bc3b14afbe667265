package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/remon-atef/sunday-school-api/internal/models"
	"github.com/remon-atef/sunday-school-api/internal/service"
	appErrors "github.com/remon-atef/sunday-school-api/pkg/errors"
	"github.com/remon-atef/sunday-school-api/pkg/response"
)

// DioceseHandler exposes diocese endpoints.
type DioceseHandler struct {
	dioceses *service.DioceseService
}

// NewDioceseHandler constructs DioceseHandler.
func NewDioceseHandler(dioceses *service.DioceseService) *DioceseHandler {
	return &DioceseHandler{dioceses: dioceses}
}

// List godoc
// @Summary List dioceses
// @Tags Hierarchy
// @Produce json
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /dioceses [get]
func (h *DioceseHandler) List(c *gin.Context) {
	filter := hierarchyFilterFromQuery(c)
	items, pagination, err := h.dioceses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get diocese detail
// @Tags Hierarchy
// @Produce json
// @Param id path string true "Diocese ID"
// @Success 200 {object} response.Envelope
// @Router /dioceses/{id} [get]
func (h *DioceseHandler) Get(c *gin.Context) {
	item, err := h.dioceses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary Create diocese
// @Tags Hierarchy
// @Accept json
// @Produce json
// @Param payload body service.DioceseRequest true "Diocese payload"
// @Success 201 {object} response.Envelope
// @Router /dioceses [post]
func (h *DioceseHandler) Create(c *gin.Context) {
	var req service.DioceseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.dioceses.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update diocese
// @Tags Hierarchy
// @Accept json
// @Produce json
// @Param id path string true "Diocese ID"
// @Param payload body service.DioceseRequest true "Diocese payload"
// @Success 200 {object} response.Envelope
// @Router /dioceses/{id} [put]
func (h *DioceseHandler) Update(c *gin.Context) {
	var req service.DioceseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.dioceses.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete diocese
// @Tags Hierarchy
// @Produce json
// @Param id path string true "Diocese ID"
// @Success 204
// @Router /dioceses/{id} [delete]
func (h *DioceseHandler) Delete(c *gin.Context) {
	if err := h.dioceses.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func hierarchyFilterFromQuery(c *gin.Context) models.HierarchyFilter {
	var filter models.HierarchyFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.DioceseID = c.Query("diocese_id")
	filter.ChurchID = c.Query("church_id")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	return filter
}
