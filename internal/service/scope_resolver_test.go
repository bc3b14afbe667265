package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/remon-atef/sunday-school-api/internal/models"
)

func testHierarchy() *ScopeHierarchy {
	return NewScopeHierarchy(
		[]string{"d1", "d2"},
		[]models.ChurchRef{
			{ID: "c1", DioceseID: "d1"},
			{ID: "c2", DioceseID: "d1"},
			{ID: "c3", DioceseID: "d2"},
		},
		[]models.ClassRef{
			{ID: "k1", ChurchID: "c1"},
			{ID: "k2", ChurchID: "c2"},
			{ID: "k3", ChurchID: "c3"},
		},
	)
}

func TestScopeSelectionClampsUnknownIDs(t *testing.T) {
	sel := NewScopeSelection(testHierarchy())

	sel.SetDioceses([]string{"d1", "ghost", "d1"})
	assert.Equal(t, []string{"d1"}, sel.Scope().DioceseIDs)

	sel.SetChurches([]string{"c1", "c3", "nope"})
	assert.Equal(t, []string{"c1"}, sel.Scope().ChurchIDs, "c3 belongs to an unselected diocese")

	sel.SetClasses([]string{"k1", "k2"})
	assert.Equal(t, []string{"k1"}, sel.Scope().ClassIDs, "k2 belongs to an unselected church")
}

func TestScopeSelectionCascadePrune(t *testing.T) {
	sel := NewScopeSelection(testHierarchy())
	sel.SetDioceses([]string{"d1", "d2"})
	sel.SetChurches([]string{"c1", "c3"})
	sel.SetClasses([]string{"k1", "k3"})

	sel.SetDioceses([]string{"d1"})

	scope := sel.Scope()
	assert.Equal(t, []string{"d1"}, scope.DioceseIDs)
	assert.Equal(t, []string{"c1"}, scope.ChurchIDs)
	assert.Equal(t, []string{"k1"}, scope.ClassIDs)
}

func TestScopeSelectionEmptyDiocesesEmptiesChildren(t *testing.T) {
	sel := NewScopeSelection(testHierarchy())
	sel.SetDioceses([]string{"d1", "d2"})
	sel.SetChurches([]string{"c1", "c2", "c3"})
	sel.SetClasses([]string{"k1", "k2", "k3"})

	sel.SetDioceses(nil)

	scope := sel.Scope()
	assert.Empty(t, scope.DioceseIDs)
	assert.Empty(t, scope.ChurchIDs)
	assert.Empty(t, scope.ClassIDs)
}

func TestScopeSelectionChurchPruneCascadesToClasses(t *testing.T) {
	sel := NewScopeSelection(testHierarchy())
	sel.SetDioceses([]string{"d1"})
	sel.SetChurches([]string{"c1", "c2"})
	sel.SetClasses([]string{"k1", "k2"})

	sel.SetChurches([]string{"c1"})

	scope := sel.Scope()
	assert.Equal(t, []string{"c1"}, scope.ChurchIDs)
	assert.Equal(t, []string{"k1"}, scope.ClassIDs)
}

func TestSelectAll(t *testing.T) {
	sel := NewScopeSelection(testHierarchy())

	sel.SelectAll(DimensionChurch)
	assert.Empty(t, sel.Scope().ChurchIDs, "no-op without selected dioceses")

	sel.SelectAll(DimensionDiocese)
	assert.Equal(t, []string{"d1", "d2"}, sel.Scope().DioceseIDs)

	sel.SelectAll(DimensionChurch)
	assert.Equal(t, []string{"c1", "c2", "c3"}, sel.Scope().ChurchIDs)

	sel.SelectAll(DimensionClass)
	assert.Equal(t, []string{"k1", "k2", "k3"}, sel.Scope().ClassIDs)
}

func TestSelectAllScopedToParentSelection(t *testing.T) {
	sel := NewScopeSelection(testHierarchy())
	sel.SetDioceses([]string{"d2"})

	sel.SelectAll(DimensionChurch)
	assert.Equal(t, []string{"c3"}, sel.Scope().ChurchIDs)

	sel.SelectAll(DimensionClass)
	assert.Equal(t, []string{"k3"}, sel.Scope().ClassIDs)
}
