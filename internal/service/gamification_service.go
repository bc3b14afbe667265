package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/remon-atef/sunday-school-api/internal/models"
	appErrors "github.com/remon-atef/sunday-school-api/pkg/errors"
)

type gamificationRepository interface {
	AwardPoints(ctx context.Context, entry *models.PointsEntry) error
	TotalPoints(ctx context.Context, studentID string) (int, error)
	Leaderboard(ctx context.Context, scope models.LeaderboardScope) ([]models.LeaderboardEntry, error)
	ListBadges(ctx context.Context) ([]models.Badge, error)
	AwardBadge(ctx context.Context, award *models.BadgeAward) error
	StudentBadges(ctx context.Context, studentID string) ([]models.Badge, error)
}

type sessionHistoryReader interface {
	SessionDates(ctx context.Context, studentID string) ([]models.AttendanceRecord, error)
}

// GamificationService manages the points ledger, badges, cached leaderboards
// and attendance streaks.
type GamificationService struct {
	repo             gamificationRepository
	attendance       sessionHistoryReader
	cache            *CacheService
	validator        *validator.Validate
	logger           *zap.Logger
	leaderboardTTL   time.Duration
	leaderboardLimit int
	streakGraceDays  int
}

// NewGamificationService constructs the service.
func NewGamificationService(repo gamificationRepository, attendance sessionHistoryReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger, leaderboardTTL time.Duration, leaderboardLimit, streakGraceDays int) *GamificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if leaderboardTTL <= 0 {
		leaderboardTTL = 5 * time.Minute
	}
	if leaderboardLimit <= 0 {
		leaderboardLimit = 10
	}
	return &GamificationService{
		repo:             repo,
		attendance:       attendance,
		cache:            cache,
		validator:        validate,
		logger:           logger,
		leaderboardTTL:   leaderboardTTL,
		leaderboardLimit: leaderboardLimit,
		streakGraceDays:  streakGraceDays,
	}
}

// AwardPointsRequest appends an entry to a student's points ledger.
type AwardPointsRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Points    int    `json:"points" validate:"required"`
	Reason    string `json:"reason" validate:"required"`
}

// AwardBadgeRequest grants a badge to a student.
type AwardBadgeRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	BadgeID   string `json:"badge_id" validate:"required"`
}

// AwardPoints records a ledger entry and invalidates cached leaderboards.
func (s *GamificationService) AwardPoints(ctx context.Context, req AwardPointsRequest, actor string) (*models.PointsEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	entry := &models.PointsEntry{
		StudentID: req.StudentID,
		Points:    req.Points,
		Reason:    req.Reason,
		AwardedBy: actor,
	}
	if err := s.repo.AwardPoints(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to award points")
	}
	if err := s.cache.Invalidate(ctx, "leaderboard:*"); err != nil {
		s.logger.Warn("leaderboard cache invalidation failed", zap.Error(err))
	}
	return entry, nil
}

// TotalPoints sums a student's ledger.
func (s *GamificationService) TotalPoints(ctx context.Context, studentID string) (int, error) {
	total, err := s.repo.TotalPoints(ctx, studentID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum points")
	}
	return total, nil
}

// Leaderboard returns ranked students for a class or church, cached.
func (s *GamificationService) Leaderboard(ctx context.Context, scope models.LeaderboardScope) ([]models.LeaderboardEntry, error) {
	if scope.ClassID == "" && scope.ChurchID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class_id or church_id is required")
	}
	if scope.Limit <= 0 {
		scope.Limit = s.leaderboardLimit
	}

	key := leaderboardCacheKey(scope)
	var cached []models.LeaderboardEntry
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	entries, err := s.repo.Leaderboard(ctx, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leaderboard")
	}
	if err := s.cache.Set(ctx, key, entries, s.leaderboardTTL); err != nil {
		s.logger.Warn("leaderboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	return entries, nil
}

// ListBadges returns all defined badges.
func (s *GamificationService) ListBadges(ctx context.Context) ([]models.Badge, error) {
	badges, err := s.repo.ListBadges(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list badges")
	}
	return badges, nil
}

// AwardBadge links a badge to a student. Repeat awards are ignored.
func (s *GamificationService) AwardBadge(ctx context.Context, req AwardBadgeRequest, actor string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	award := &models.BadgeAward{StudentID: req.StudentID, BadgeID: req.BadgeID, AwardedBy: actor}
	if err := s.repo.AwardBadge(ctx, award); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to award badge")
	}
	return nil
}

// StudentBadges returns the badges a student has earned.
func (s *GamificationService) StudentBadges(ctx context.Context, studentID string) ([]models.Badge, error) {
	badges, err := s.repo.StudentBadges(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student badges")
	}
	return badges, nil
}

// Streak walks a student's attendance history, newest first, and reports the
// current and longest consecutive-presence streaks. An excused absence keeps
// the streak alive without extending it; an unexcused absence breaks it, as
// does a gap between session dates longer than a week plus the grace days.
func (s *GamificationService) Streak(ctx context.Context, studentID string) (*models.StreakSummary, error) {
	records, err := s.attendance.SessionDates(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}

	maxGap := time.Duration(7+s.streakGraceDays) * 24 * time.Hour
	summary := &models.StreakSummary{StudentID: studentID}

	current := 0
	currentDone := false
	run := 0
	var prev *time.Time
	for _, rec := range records {
		gapBroken := prev != nil && prev.Sub(rec.SessionDate) > maxGap
		if gapBroken || rec.Status == models.AttendanceAbsent {
			if !currentDone {
				summary.Current = current
				currentDone = true
			}
			run = 0
			if gapBroken && rec.Status == models.AttendancePresent {
				run = 1
			}
		} else if rec.Status == models.AttendancePresent {
			run++
			if !currentDone {
				current = run
			}
		}
		if run > summary.Longest {
			summary.Longest = run
		}
		d := rec.SessionDate
		prev = &d
	}
	if !currentDone {
		summary.Current = current
	}
	return summary, nil
}

func leaderboardCacheKey(scope models.LeaderboardScope) string {
	if scope.ClassID != "" {
		return fmt.Sprintf("leaderboard:class:%s:%d", scope.ClassID, scope.Limit)
	}
	return fmt.Sprintf("leaderboard:church:%s:%d", scope.ChurchID, scope.Limit)
}
