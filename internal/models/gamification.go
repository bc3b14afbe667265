package models

import "time"

// PointsEntry is one award in a student's points ledger.
type PointsEntry struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Points    int       `db:"points" json:"points"`
	Reason    string    `db:"reason" json:"reason"`
	AwardedBy string    `db:"awarded_by" json:"awarded_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Badge is a named achievement students can earn.
type Badge struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// BadgeAward links a badge to a student.
type BadgeAward struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	BadgeID   string    `db:"badge_id" json:"badge_id"`
	AwardedBy string    `db:"awarded_by" json:"awarded_by"`
	AwardedAt time.Time `db:"awarded_at" json:"awarded_at"`
}

// LeaderboardEntry is one ranked row in a class or church leaderboard.
type LeaderboardEntry struct {
	Rank        int    `db:"-" json:"rank"`
	StudentID   string `db:"student_id" json:"student_id"`
	StudentName string `db:"student_name" json:"student_name"`
	ClassID     string `db:"class_id" json:"class_id"`
	TotalPoints int    `db:"total_points" json:"total_points"`
}

// LeaderboardScope selects the aggregation level for a leaderboard query.
type LeaderboardScope struct {
	ClassID  string
	ChurchID string
	Limit    int
}

// StreakSummary reports a student's current consecutive-presence streak.
type StreakSummary struct {
	StudentID string `json:"student_id"`
	Current   int    `json:"current"`
	Longest   int    `json:"longest"`
}
