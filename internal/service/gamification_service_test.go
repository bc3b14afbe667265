package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/remon-atef/sunday-school-api/internal/models"
	appErrors "github.com/remon-atef/sunday-school-api/pkg/errors"
)

type mockGamificationRepo struct {
	entries          []*models.PointsEntry
	leaderboard      []models.LeaderboardEntry
	leaderboardCalls int
	badges           []models.Badge
	awards           []*models.BadgeAward
}

func (m *mockGamificationRepo) AwardPoints(ctx context.Context, entry *models.PointsEntry) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockGamificationRepo) TotalPoints(ctx context.Context, studentID string) (int, error) {
	total := 0
	for _, e := range m.entries {
		if e.StudentID == studentID {
			total += e.Points
		}
	}
	return total, nil
}

func (m *mockGamificationRepo) Leaderboard(ctx context.Context, scope models.LeaderboardScope) ([]models.LeaderboardEntry, error) {
	m.leaderboardCalls++
	return m.leaderboard, nil
}

func (m *mockGamificationRepo) ListBadges(ctx context.Context) ([]models.Badge, error) {
	return m.badges, nil
}

func (m *mockGamificationRepo) AwardBadge(ctx context.Context, award *models.BadgeAward) error {
	m.awards = append(m.awards, award)
	return nil
}

func (m *mockGamificationRepo) StudentBadges(ctx context.Context, studentID string) ([]models.Badge, error) {
	return m.badges, nil
}

type mockSessionHistory struct {
	records []models.AttendanceRecord
}

func (m *mockSessionHistory) SessionDates(ctx context.Context, studentID string) ([]models.AttendanceRecord, error) {
	return m.records, nil
}

// memoryCacheRepo is an in-process CacheRepository for exercising the cache
// path without Redis.
type memoryCacheRepo struct {
	values map[string][]byte
	sets   int
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	m.sets++
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.values = nil
	return nil
}

func newGamificationService(repo *mockGamificationRepo, history *mockSessionHistory, cacheRepo CacheRepository, graceDays int) *GamificationService {
	var cacheSvc *CacheService
	if cacheRepo != nil {
		cacheSvc = NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	}
	return NewGamificationService(repo, history, cacheSvc, nil, zap.NewNop(), time.Minute, 10, graceDays)
}

func sessionRecord(date string, status models.AttendanceStatus) models.AttendanceRecord {
	d, _ := time.Parse("2006-01-02", date)
	return models.AttendanceRecord{SessionDate: d, Status: status}
}

func TestAwardPointsInvalidatesLeaderboard(t *testing.T) {
	repo := &mockGamificationRepo{leaderboard: []models.LeaderboardEntry{{StudentID: "s1"}}}
	cacheRepo := &memoryCacheRepo{}
	svc := newGamificationService(repo, &mockSessionHistory{}, cacheRepo, 0)

	_, err := svc.Leaderboard(context.Background(), models.LeaderboardScope{ClassID: "k1"})
	require.NoError(t, err)
	require.Equal(t, 1, cacheRepo.sets)

	_, err = svc.AwardPoints(context.Background(), AwardPointsRequest{
		StudentID: "s1",
		Points:    5,
		Reason:    "memory verse",
	}, "servant-1")
	require.NoError(t, err)
	assert.Empty(t, cacheRepo.values, "award flushes cached leaderboards")
}

func TestLeaderboardServedFromCache(t *testing.T) {
	repo := &mockGamificationRepo{leaderboard: []models.LeaderboardEntry{
		{Rank: 1, StudentID: "s1", StudentName: "Mina", TotalPoints: 40},
	}}
	svc := newGamificationService(repo, &mockSessionHistory{}, &memoryCacheRepo{}, 0)

	first, err := svc.Leaderboard(context.Background(), models.LeaderboardScope{ClassID: "k1"})
	require.NoError(t, err)
	second, err := svc.Leaderboard(context.Background(), models.LeaderboardScope{ClassID: "k1"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.leaderboardCalls, "second call hits the cache")
}

func TestLeaderboardRequiresScope(t *testing.T) {
	svc := newGamificationService(&mockGamificationRepo{}, &mockSessionHistory{}, nil, 0)

	_, err := svc.Leaderboard(context.Background(), models.LeaderboardScope{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStreakCountsConsecutivePresence(t *testing.T) {
	history := &mockSessionHistory{records: []models.AttendanceRecord{
		sessionRecord("2024-04-21", models.AttendancePresent),
		sessionRecord("2024-04-14", models.AttendancePresent),
		sessionRecord("2024-04-07", models.AttendancePresent),
		sessionRecord("2024-03-31", models.AttendanceAbsent),
		sessionRecord("2024-03-24", models.AttendancePresent),
	}}
	svc := newGamificationService(&mockGamificationRepo{}, history, nil, 0)

	streak, err := svc.Streak(context.Background(), "s1")

	require.NoError(t, err)
	assert.Equal(t, 3, streak.Current)
	assert.Equal(t, 3, streak.Longest)
}

func TestStreakExcusedKeepsStreakAlive(t *testing.T) {
	history := &mockSessionHistory{records: []models.AttendanceRecord{
		sessionRecord("2024-04-21", models.AttendancePresent),
		sessionRecord("2024-04-14", models.AttendanceExcused),
		sessionRecord("2024-04-07", models.AttendancePresent),
	}}
	svc := newGamificationService(&mockGamificationRepo{}, history, nil, 0)

	streak, err := svc.Streak(context.Background(), "s1")

	require.NoError(t, err)
	assert.Equal(t, 2, streak.Current, "excused session does not break the run")
}

func TestStreakGapBreaks(t *testing.T) {
	history := &mockSessionHistory{records: []models.AttendanceRecord{
		sessionRecord("2024-04-21", models.AttendancePresent),
		sessionRecord("2024-03-03", models.AttendancePresent),
		sessionRecord("2024-02-25", models.AttendancePresent),
	}}
	svc := newGamificationService(&mockGamificationRepo{}, history, nil, 0)

	streak, err := svc.Streak(context.Background(), "s1")

	require.NoError(t, err)
	assert.Equal(t, 1, streak.Current, "seven week gap resets the current streak")
	assert.Equal(t, 2, streak.Longest)
}

func TestStreakEmptyHistory(t *testing.T) {
	svc := newGamificationService(&mockGamificationRepo{}, &mockSessionHistory{}, nil, 0)

	streak, err := svc.Streak(context.Background(), "s1")

	require.NoError(t, err)
	assert.Zero(t, streak.Current)
	assert.Zero(t, streak.Longest)
}
