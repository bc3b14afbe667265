package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestStatusAt(t *testing.T) {
	from := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		ann      Announcement
		now      time.Time
		expected AnnouncementStatus
	}{
		{
			name:     "before window is scheduled",
			ann:      Announcement{PublishFrom: from, PublishTo: timePtr(to)},
			now:      from.Add(-time.Hour),
			expected: AnnouncementStatusScheduled,
		},
		{
			name:     "window start is active",
			ann:      Announcement{PublishFrom: from, PublishTo: timePtr(to)},
			now:      from,
			expected: AnnouncementStatusActive,
		},
		{
			name:     "inside window is active",
			ann:      Announcement{PublishFrom: from, PublishTo: timePtr(to)},
			now:      from.Add(48 * time.Hour),
			expected: AnnouncementStatusActive,
		},
		{
			name:     "window end is active",
			ann:      Announcement{PublishFrom: from, PublishTo: timePtr(to)},
			now:      to,
			expected: AnnouncementStatusActive,
		},
		{
			name:     "after window is expired",
			ann:      Announcement{PublishFrom: from, PublishTo: timePtr(to)},
			now:      to.Add(time.Second),
			expected: AnnouncementStatusExpired,
		},
		{
			name:     "open ended never expires",
			ann:      Announcement{PublishFrom: from},
			now:      from.AddDate(10, 0, 0),
			expected: AnnouncementStatusActive,
		},
		{
			name:     "deactivated wins over active window",
			ann:      Announcement{PublishFrom: from, PublishTo: timePtr(to), IsDeleted: true},
			now:      from.Add(time.Hour),
			expected: AnnouncementStatusDeactivated,
		},
		{
			name:     "deactivated wins over scheduled",
			ann:      Announcement{PublishFrom: from, IsDeleted: true},
			now:      from.Add(-time.Hour),
			expected: AnnouncementStatusDeactivated,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.ann.StatusAt(tc.now))
		})
	}
}

func TestDeactivated(t *testing.T) {
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	reason := "outdated"
	ann := Announcement{ID: "a1", PublishFrom: now.Add(-time.Hour)}

	out := ann.Deactivated(&reason, "admin-1", now)

	assert.True(t, out.IsDeleted)
	assert.Equal(t, &reason, out.DeactivationReason)
	assert.Equal(t, now, *out.DeactivatedAt)
	assert.Equal(t, "admin-1", *out.DeactivatedBy)
	assert.False(t, ann.IsDeleted, "receiver must not be mutated")
}

func TestDeactivatedRestamps(t *testing.T) {
	first := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(72 * time.Hour)
	reason1 := "old"
	reason2 := "newer"

	ann := Announcement{ID: "a1"}.Deactivated(&reason1, "admin-1", first)
	out := ann.Deactivated(&reason2, "admin-2", second)

	assert.Equal(t, &reason2, out.DeactivationReason)
	assert.Equal(t, second, *out.DeactivatedAt)
	assert.Equal(t, "admin-2", *out.DeactivatedBy)
}

func TestRepublishedPreservesDuration(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	reason := "stale"

	ann := Announcement{ID: "a1", PublishFrom: from, PublishTo: timePtr(to)}.
		Deactivated(&reason, "admin-1", now.Add(-time.Hour))
	out := ann.Republished(now)

	assert.Equal(t, now, out.PublishFrom)
	assert.Equal(t, now.AddDate(0, 0, 7), *out.PublishTo)
	assert.False(t, out.IsDeleted)
	assert.Nil(t, out.DeactivationReason)
	assert.Nil(t, out.DeactivatedAt)
	assert.Nil(t, out.DeactivatedBy)
	assert.Equal(t, "a1", out.ID)
	assert.Equal(t, AnnouncementStatusActive, out.StatusAt(now))
}

func TestRepublishedOpenEnded(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	out := Announcement{PublishFrom: from, IsDeleted: true}.Republished(now)

	assert.Equal(t, now, out.PublishFrom)
	assert.Nil(t, out.PublishTo)
	assert.False(t, out.IsDeleted)
}

func TestRepublishedNonPositiveDuration(t *testing.T) {
	from := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	out := Announcement{PublishFrom: from, PublishTo: timePtr(from), IsDeleted: true}.Republished(now)
	assert.Nil(t, out.PublishTo, "zero duration window becomes open ended")

	out = Announcement{PublishFrom: from, PublishTo: timePtr(from.Add(-time.Hour)), IsDeleted: true}.Republished(now)
	assert.Nil(t, out.PublishTo, "inverted window becomes open ended")
}

func TestAddType(t *testing.T) {
	types := []string{"event"}

	types = AddType(types, "  retreat  ")
	assert.Equal(t, []string{"event", "retreat"}, types)

	types = AddType(types, "retreat")
	assert.Equal(t, []string{"event", "retreat"}, types, "duplicates ignored")

	types = AddType(types, "   ")
	assert.Equal(t, []string{"event", "retreat"}, types, "blank input ignored")

	types = AddType(types, "Event")
	assert.Equal(t, []string{"event", "retreat", "Event"}, types, "matching is case sensitive")
}

func TestRemoveType(t *testing.T) {
	types := []string{"event", "retreat", "event"}

	types = RemoveType(types, "event")
	assert.Equal(t, []string{"retreat", "event"}, types, "only first match removed")

	types = RemoveType(types, "missing")
	assert.Equal(t, []string{"retreat", "event"}, types)
}
