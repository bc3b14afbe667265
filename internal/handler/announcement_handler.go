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

// AnnouncementHandler exposes announcement management and feed endpoints.
type AnnouncementHandler struct {
	announcements *service.AnnouncementService
	scopes        *service.ScopeService
}

// NewAnnouncementHandler constructs AnnouncementHandler.
func NewAnnouncementHandler(announcements *service.AnnouncementService, scopes *service.ScopeService) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements, scopes: scopes}
}

// List godoc
// @Summary List announcements for management
// @Tags Announcements
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	var filter models.AnnouncementFilter
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	items, pagination, err := h.announcements.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Feed godoc
// @Summary Visible announcements for the caller
// @Tags Announcements
// @Produce json
// @Param church_id query string false "Viewer church"
// @Param diocese_id query string false "Viewer diocese"
// @Param class_ids query string false "Comma separated class IDs"
// @Success 200 {object} response.Envelope
// @Router /announcements/feed [get]
func (h *AnnouncementHandler) Feed(c *gin.Context) {
	filter := models.AnnouncementFilter{
		DioceseID:  c.Query("diocese_id"),
		ChurchID:   c.Query("church_id"),
		ActiveOnly: true,
	}
	if raw := c.Query("class_ids"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				filter.ClassIDs = append(filter.ClassIDs, id)
			}
		}
	}
	if claims := claimsFromContext(c); claims != nil {
		filter.Roles = []models.UserRole{claims.Role}
	}

	items, err := h.announcements.Feed(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Announcement detail with scope and lifecycle status
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Router /announcements/{id} [get]
func (h *AnnouncementHandler) Get(c *gin.Context) {
	detail, err := h.announcements.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body service.CreateAnnouncementRequest true "Announcement payload"
// @Success 201 {object} response.Envelope
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	var req service.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	resolved, err := h.scopes.Resolve(c.Request.Context(), req.Scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.Scope = resolved

	detail, err := h.announcements.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Update godoc
// @Summary Update announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param id path string true "Announcement ID"
// @Param payload body service.UpdateAnnouncementRequest true "Announcement payload"
// @Success 200 {object} response.Envelope
// @Router /announcements/{id} [put]
func (h *AnnouncementHandler) Update(c *gin.Context) {
	var req service.UpdateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if req.Scope != nil {
		resolved, err := h.scopes.Resolve(c.Request.Context(), *req.Scope)
		if err != nil {
			response.Error(c, err)
			return
		}
		req.Scope = &resolved
	}

	detail, err := h.announcements.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Deactivate godoc
// @Summary Deactivate announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param id path string true "Announcement ID"
// @Param payload body service.DeactivateAnnouncementRequest false "Optional reason"
// @Success 200 {object} response.Envelope
// @Router /announcements/{id}/deactivate [post]
func (h *AnnouncementHandler) Deactivate(c *gin.Context) {
	var req service.DeactivateAnnouncementRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}

	detail, err := h.announcements.Deactivate(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Republish godoc
// @Summary Republish a deactivated announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param id path string true "Announcement ID"
// @Param payload body service.RepublishAnnouncementRequest false "Optional edits applied during republish"
// @Success 200 {object} response.Envelope
// @Router /announcements/{id}/republish [post]
func (h *AnnouncementHandler) Republish(c *gin.Context) {
	var req service.RepublishAnnouncementRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}

	if req.Scope != nil {
		resolved, err := h.scopes.Resolve(c.Request.Context(), *req.Scope)
		if err != nil {
			response.Error(c, err)
			return
		}
		req.Scope = &resolved
	}

	detail, err := h.announcements.Republish(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// SuggestTypes godoc
// @Summary Suggested type tags
// @Tags Announcements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /announcements/types/suggestions [get]
func (h *AnnouncementHandler) SuggestTypes(c *gin.Context) {
	suggestions := h.announcements.SuggestTypes(c.Request.Context())
	response.JSON(c, http.StatusOK, suggestions, nil)
}

// ResolveScope godoc
// @Summary Validate and clamp a scope selection
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body models.AnnouncementScope true "Scope selection"
// @Param select_all query string false "Dimension to select fully: diocese, church or class"
// @Success 200 {object} response.Envelope
// @Router /announcements/scope/resolve [post]
func (h *AnnouncementHandler) ResolveScope(c *gin.Context) {
	var scope models.AnnouncementScope
	if err := c.ShouldBindJSON(&scope); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	var (
		resolved models.AnnouncementScope
		err      error
	)
	if dim := c.Query("select_all"); dim != "" {
		resolved, err = h.scopes.SelectAll(c.Request.Context(), scope, service.ScopeDimension(dim))
	} else {
		resolved, err = h.scopes.Resolve(c.Request.Context(), scope)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resolved, nil)
}
