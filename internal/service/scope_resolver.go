package service

import (
	"github.com/remon-atef/sunday-school-api/internal/models"
)

// ScopeDimension names one targeting axis of an announcement.
type ScopeDimension string

const (
	DimensionDiocese ScopeDimension = "diocese"
	DimensionChurch  ScopeDimension = "church"
	DimensionClass   ScopeDimension = "class"
)

// ScopeHierarchy is an immutable snapshot of the diocese → church → class
// tree, giving the resolver its candidate sets and parent links.
type ScopeHierarchy struct {
	dioceseIDs   []string
	churchParent map[string]string
	classParent  map[string]string
	churchOrder  []string
	classOrder   []string
}

// NewScopeHierarchy builds the hierarchy snapshot from reference rows.
func NewScopeHierarchy(dioceseIDs []string, churches []models.ChurchRef, classes []models.ClassRef) *ScopeHierarchy {
	h := &ScopeHierarchy{
		dioceseIDs:   append([]string(nil), dioceseIDs...),
		churchParent: make(map[string]string, len(churches)),
		classParent:  make(map[string]string, len(classes)),
	}
	for _, church := range churches {
		h.churchParent[church.ID] = church.DioceseID
		h.churchOrder = append(h.churchOrder, church.ID)
	}
	for _, class := range classes {
		h.classParent[class.ID] = class.ChurchID
		h.classOrder = append(h.classOrder, class.ID)
	}
	return h
}

// ScopeSelection tracks the operator's current targeting selections and keeps
// them hierarchically consistent. Selections are clamped, never rejected;
// there are no error conditions.
type ScopeSelection struct {
	hierarchy *ScopeHierarchy
	dioceses  []string
	churches  []string
	classes   []string
}

// NewScopeSelection starts an empty selection over the given hierarchy.
func NewScopeSelection(hierarchy *ScopeHierarchy) *ScopeSelection {
	return &ScopeSelection{hierarchy: hierarchy}
}

// SetDioceses replaces the diocese selection. Churches whose parent diocese
// is no longer selected are pruned, and classes cascade with their churches.
func (s *ScopeSelection) SetDioceses(ids []string) {
	s.dioceses = s.clampDioceses(ids)
	s.churches = s.clampChurches(s.churches)
	s.classes = s.clampClasses(s.classes)
}

// SetChurches replaces the church selection, clamped to churches belonging to
// currently selected dioceses. Orphaned class selections are pruned.
func (s *ScopeSelection) SetChurches(ids []string) {
	s.churches = s.clampChurches(ids)
	s.classes = s.clampClasses(s.classes)
}

// SetClasses replaces the class selection, clamped to classes belonging to
// currently selected churches. No further cascading.
func (s *ScopeSelection) SetClasses(ids []string) {
	s.classes = s.clampClasses(ids)
}

// SelectAll sets the dimension's selection to every candidate available given
// the parent dimension's selection. A no-op when the parent selection is
// empty.
func (s *ScopeSelection) SelectAll(dimension ScopeDimension) {
	switch dimension {
	case DimensionDiocese:
		s.SetDioceses(s.hierarchy.dioceseIDs)
	case DimensionChurch:
		if len(s.dioceses) == 0 {
			return
		}
		s.SetChurches(s.hierarchy.churchOrder)
	case DimensionClass:
		if len(s.churches) == 0 {
			return
		}
		s.SetClasses(s.hierarchy.classOrder)
	}
}

// Scope returns the current selection as a persistable scope value.
func (s *ScopeSelection) Scope() models.AnnouncementScope {
	return models.AnnouncementScope{
		DioceseIDs: append([]string(nil), s.dioceses...),
		ChurchIDs:  append([]string(nil), s.churches...),
		ClassIDs:   append([]string(nil), s.classes...),
	}
}

func (s *ScopeSelection) clampDioceses(ids []string) []string {
	known := make(map[string]struct{}, len(s.hierarchy.dioceseIDs))
	for _, id := range s.hierarchy.dioceseIDs {
		known[id] = struct{}{}
	}
	return dedupeWhere(ids, func(id string) bool {
		_, ok := known[id]
		return ok
	})
}

func (s *ScopeSelection) clampChurches(ids []string) []string {
	selected := asSet(s.dioceses)
	return dedupeWhere(ids, func(id string) bool {
		parent, ok := s.hierarchy.churchParent[id]
		if !ok {
			return false
		}
		_, ok = selected[parent]
		return ok
	})
}

func (s *ScopeSelection) clampClasses(ids []string) []string {
	selected := asSet(s.churches)
	return dedupeWhere(ids, func(id string) bool {
		parent, ok := s.hierarchy.classParent[id]
		if !ok {
			return false
		}
		_, ok = selected[parent]
		return ok
	})
}

func asSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func dedupeWhere(ids []string, keep func(string) bool) []string {
	var result []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if keep(id) {
			result = append(result, id)
		}
	}
	return result
}
