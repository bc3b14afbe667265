package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/remon-atef/sunday-school-api/internal/models"
	"github.com/remon-atef/sunday-school-api/internal/service"
	appErrors "github.com/remon-atef/sunday-school-api/pkg/errors"
	"github.com/remon-atef/sunday-school-api/pkg/response"
)

// GamificationHandler exposes points, badge and leaderboard endpoints.
type GamificationHandler struct {
	gamification *service.GamificationService
}

// NewGamificationHandler constructs GamificationHandler.
func NewGamificationHandler(gamification *service.GamificationService) *GamificationHandler {
	return &GamificationHandler{gamification: gamification}
}

// AwardPoints godoc
// @Summary Award points to a student
// @Tags Gamification
// @Accept json
// @Produce json
// @Param payload body service.AwardPointsRequest true "Points payload"
// @Success 201 {object} response.Envelope
// @Router /gamification/points [post]
func (h *GamificationHandler) AwardPoints(c *gin.Context) {
	var req service.AwardPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.gamification.AwardPoints(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// TotalPoints godoc
// @Summary A student's total points
// @Tags Gamification
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /gamification/students/{id}/points [get]
func (h *GamificationHandler) TotalPoints(c *gin.Context) {
	total, err := h.gamification.TotalPoints(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"student_id": c.Param("id"), "total_points": total}, nil)
}

// Leaderboard godoc
// @Summary Ranked students for a class or church
// @Tags Gamification
// @Produce json
// @Param class_id query string false "Class scope"
// @Param church_id query string false "Church scope"
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /gamification/leaderboard [get]
func (h *GamificationHandler) Leaderboard(c *gin.Context) {
	scope := models.LeaderboardScope{
		ClassID:  c.Query("class_id"),
		ChurchID: c.Query("church_id"),
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "0")); err == nil {
		scope.Limit = limit
	}
	entries, err := h.gamification.Leaderboard(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ListBadges godoc
// @Summary All defined badges
// @Tags Gamification
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /gamification/badges [get]
func (h *GamificationHandler) ListBadges(c *gin.Context) {
	badges, err := h.gamification.ListBadges(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, badges, nil)
}

// AwardBadge godoc
// @Summary Award a badge to a student
// @Tags Gamification
// @Accept json
// @Produce json
// @Param payload body service.AwardBadgeRequest true "Badge payload"
// @Success 204
// @Router /gamification/badges/award [post]
func (h *GamificationHandler) AwardBadge(c *gin.Context) {
	var req service.AwardBadgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.gamification.AwardBadge(c.Request.Context(), req, actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// StudentBadges godoc
// @Summary Badges a student has earned
// @Tags Gamification
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /gamification/students/{id}/badges [get]
func (h *GamificationHandler) StudentBadges(c *gin.Context) {
	badges, err := h.gamification.StudentBadges(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, badges, nil)
}

// Streak godoc
// @Summary A student's consecutive-presence streak
// @Tags Gamification
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /gamification/students/{id}/streak [get]
func (h *GamificationHandler) Streak(c *gin.Context) {
	streak, err := h.gamification.Streak(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, streak, nil)
}
