package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// AnnouncementStatus is derived from the publish window and the soft-delete
// flag at read time; it is never stored.
type AnnouncementStatus string

const (
	AnnouncementStatusScheduled   AnnouncementStatus = "scheduled"
	AnnouncementStatusActive      AnnouncementStatus = "active"
	AnnouncementStatusExpired     AnnouncementStatus = "expired"
	AnnouncementStatusDeactivated AnnouncementStatus = "deactivated"
)

// Announcement represents a persisted announcement row. Deactivation is a
// reversible soft delete; rows are never physically removed.
type Announcement struct {
	ID                 string         `db:"id" json:"id"`
	Title              string         `db:"title" json:"title"`
	Description        *string        `db:"description" json:"description,omitempty"`
	Types              pq.StringArray `db:"types" json:"types"`
	TargetRoles        pq.StringArray `db:"target_roles" json:"target_roles"`
	PublishFrom        time.Time      `db:"publish_from" json:"publish_from"`
	PublishTo          *time.Time     `db:"publish_to" json:"publish_to,omitempty"`
	IsDeleted          bool           `db:"is_deleted" json:"is_deleted"`
	DeactivationReason *string        `db:"deactivation_reason" json:"deactivation_reason,omitempty"`
	DeactivatedAt      *time.Time     `db:"deactivated_at" json:"deactivated_at,omitempty"`
	DeactivatedBy      *string        `db:"deactivated_by" json:"deactivated_by,omitempty"`
	CreatedBy          string         `db:"created_by" json:"created_by"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// StatusAt derives the lifecycle status at the given instant. Precedence:
// deactivated, then scheduled, then expired, else active. Both window
// boundaries count as active.
func (a *Announcement) StatusAt(now time.Time) AnnouncementStatus {
	if a.IsDeleted {
		return AnnouncementStatusDeactivated
	}
	if now.Before(a.PublishFrom) {
		return AnnouncementStatusScheduled
	}
	if a.PublishTo != nil && now.After(*a.PublishTo) {
		return AnnouncementStatusExpired
	}
	return AnnouncementStatusActive
}

// Deactivated returns a copy with the soft-delete flag set and the
// deactivation metadata stamped. Re-deactivating an already deactivated
// announcement re-stamps reason, timestamp and actor.
func (a Announcement) Deactivated(reason *string, actor string, now time.Time) Announcement {
	a.IsDeleted = true
	a.DeactivationReason = reason
	a.DeactivatedAt = &now
	a.DeactivatedBy = &actor
	return a
}

// Republished returns a copy revived into a fresh publish window anchored at
// now. The original window's duration is preserved when it was bounded and
// positive; otherwise the new window is open-ended. All deactivation
// metadata is cleared.
func (a Announcement) Republished(now time.Time) Announcement {
	var publishTo *time.Time
	if a.PublishTo != nil {
		duration := a.PublishTo.Sub(a.PublishFrom)
		if duration > 0 {
			shifted := now.Add(duration)
			publishTo = &shifted
		}
	}
	a.PublishFrom = now
	a.PublishTo = publishTo
	a.IsDeleted = false
	a.DeactivationReason = nil
	a.DeactivatedAt = nil
	a.DeactivatedBy = nil
	return a
}

// AddType appends a trimmed tag preserving insertion order. Empty or
// whitespace-only input and exact duplicates are ignored.
func AddType(types []string, raw string) []string {
	tag := strings.TrimSpace(raw)
	if tag == "" {
		return types
	}
	for _, existing := range types {
		if existing == tag {
			return types
		}
	}
	return append(types, tag)
}

// RemoveType removes the first exact match from the tag list.
func RemoveType(types []string, tag string) []string {
	for i, existing := range types {
		if existing == tag {
			return append(types[:i:i], types[i+1:]...)
		}
	}
	return types
}

// AnnouncementScope holds the selected targeting sets for the three scope
// dimensions. An empty set means unscoped in that dimension.
type AnnouncementScope struct {
	DioceseIDs []string `json:"diocese_ids"`
	ChurchIDs  []string `json:"church_ids"`
	ClassIDs   []string `json:"class_ids"`
}

// ScopeRow is a single junction table entry.
type ScopeRow struct {
	AnnouncementID string `db:"announcement_id" json:"announcement_id"`
	EntityID       string `db:"entity_id" json:"entity_id"`
}

// AnnouncementDetail augments a row with its scope and computed status for
// list and detail responses.
type AnnouncementDetail struct {
	Announcement
	Scope  AnnouncementScope  `json:"scope"`
	Status AnnouncementStatus `json:"status"`
}

// AnnouncementFilter narrows announcement listings.
type AnnouncementFilter struct {
	Roles      []UserRole
	DioceseID  string
	ChurchID   string
	ClassIDs   []string
	ActiveOnly bool
	Page       int
	PageSize   int
}
