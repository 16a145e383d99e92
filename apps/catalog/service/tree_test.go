package service

import (
	"testing"

	"supplyhub/apps/catalog/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v uint) *uint { return &v }

func TestBuildTree(t *testing.T) {
	forest := BuildTree([]model.Category{
		{ID: 1, Name: "Tools"},
		{ID: 2, Name: "Drills", ParentID: ptr(1), SortOrder: 2},
		{ID: 3, Name: "Saws", ParentID: ptr(1), SortOrder: 1},
		{ID: 4, Name: "Cordless", ParentID: ptr(2)},
		{ID: 5, Name: "Adhesives"},
		// parent missing from the input
		{ID: 6, Name: "Orphan", ParentID: ptr(99)},
	})

	require.Len(t, forest, 3)
	assert.Equal(t, []string{"Adhesives", "Orphan", "Tools"}, []string{forest[0].Name, forest[1].Name, forest[2].Name})

	tools := forest[2]
	require.Len(t, tools.Children, 2)
	assert.Equal(t, "Saws", tools.Children[0].Name)
	assert.Equal(t, "Drills", tools.Children[1].Name)
	require.Len(t, tools.Children[1].Children, 1)
	assert.Equal(t, "Cordless", tools.Children[1].Children[0].Name)
	assert.Empty(t, forest[0].Children)
}

func TestBuildTree_CycleTerminates(t *testing.T) {
	forest := BuildTree([]model.Category{
		{ID: 1, Name: "Root"},
		{ID: 2, Name: "Loop A", ParentID: ptr(3)},
		{ID: 3, Name: "Loop B", ParentID: ptr(2)},
		{ID: 4, Name: "Self", ParentID: ptr(4)},
	})
	var names []string
	for _, n := range forest {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"Root", "Self"}, names)
}

func TestBuildTree_Empty(t *testing.T) {
	assert.Empty(t, BuildTree(nil))
}
