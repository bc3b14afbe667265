package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/remon-atef/sunday-school-api/internal/models"
)

// GamificationRepository manages points, badges and leaderboard queries.
type GamificationRepository struct {
	db *sqlx.DB
}

// NewGamificationRepository constructs a new gamification repository.
func NewGamificationRepository(db *sqlx.DB) *GamificationRepository {
	return &GamificationRepository{db: db}
}

// AwardPoints appends an entry to the points ledger.
func (r *GamificationRepository) AwardPoints(ctx context.Context, entry *models.PointsEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO points_ledger (id, student_id, points, reason, awarded_by, created_at)
VALUES (:id, :student_id, :points, :reason, :awarded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("award points: %w", err)
	}
	return nil
}

// TotalPoints sums a student's ledger.
func (r *GamificationRepository) TotalPoints(ctx context.Context, studentID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COALESCE(SUM(points), 0) FROM points_ledger WHERE student_id = $1", studentID); err != nil {
		return 0, fmt.Errorf("total points: %w", err)
	}
	return total, nil
}

// Leaderboard ranks students by total points within a class or church.
func (r *GamificationRepository) Leaderboard(ctx context.Context, scope models.LeaderboardScope) ([]models.LeaderboardEntry, error) {
	limit := scope.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	base := `SELECT s.id AS student_id, s.full_name AS student_name, s.class_id, COALESCE(SUM(p.points), 0) AS total_points
FROM students s
LEFT JOIN points_ledger p ON p.student_id = s.id`
	var args []interface{}
	where := " WHERE s.active = TRUE"
	if scope.ClassID != "" {
		where += fmt.Sprintf(" AND s.class_id = $%d", len(args)+1)
		args = append(args, scope.ClassID)
	} else if scope.ChurchID != "" {
		base += " JOIN classes c ON c.id = s.class_id"
		where += fmt.Sprintf(" AND c.church_id = $%d", len(args)+1)
		args = append(args, scope.ChurchID)
	}
	query := fmt.Sprintf("%s%s GROUP BY s.id, s.full_name, s.class_id ORDER BY total_points DESC, s.full_name ASC LIMIT %d", base, where, limit)

	var entries []models.LeaderboardEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// ListBadges returns all defined badges.
func (r *GamificationRepository) ListBadges(ctx context.Context) ([]models.Badge, error) {
	var badges []models.Badge
	if err := r.db.SelectContext(ctx, &badges, "SELECT id, code, name, description, created_at FROM badges ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return badges, nil
}

// AwardBadge links a badge to a student, ignoring repeat awards.
func (r *GamificationRepository) AwardBadge(ctx context.Context, award *models.BadgeAward) error {
	if award.ID == "" {
		award.ID = uuid.NewString()
	}
	if award.AwardedAt.IsZero() {
		award.AwardedAt = time.Now().UTC()
	}
	const query = `INSERT INTO badge_awards (id, student_id, badge_id, awarded_by, awarded_at)
VALUES (:id, :student_id, :badge_id, :awarded_by, :awarded_at)
ON CONFLICT (student_id, badge_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, award); err != nil {
		return fmt.Errorf("award badge: %w", err)
	}
	return nil
}

// StudentBadges returns the badges a student has earned.
func (r *GamificationRepository) StudentBadges(ctx context.Context, studentID string) ([]models.Badge, error) {
	const query = `SELECT b.id, b.code, b.name, b.description, b.created_at
FROM badges b JOIN badge_awards a ON a.badge_id = b.id
WHERE a.student_id = $1 ORDER BY a.awarded_at DESC`
	var badges []models.Badge
	if err := r.db.SelectContext(ctx, &badges, query, studentID); err != nil {
		return nil, fmt.Errorf("student badges: %w", err)
	}
	return badges, nil
}
