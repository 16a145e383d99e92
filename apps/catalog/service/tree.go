package service

import (
	"sort"

	"supplyhub/apps/catalog/model"
)

// CategoryNode is one category with its nested children.
type CategoryNode struct {
	model.Category
	Children []*CategoryNode `json:"children"`
}

// BuildTree arranges a flat list into a forest. Nodes live in a flat
// id->node arena and children are resolved from a parent index, so the
// output is acyclic whatever the input: a category whose parent is absent
// becomes a root, and categories caught in a parent cycle are unreachable
// from any root and left out. Siblings sort by SortOrder, then Name.
func BuildTree(categories []model.Category) []*CategoryNode {
	arena := make(map[uint]*CategoryNode, len(categories))
	for i := range categories {
		arena[categories[i].ID] = &CategoryNode{Category: categories[i], Children: []*CategoryNode{}}
	}

	childrenOf := make(map[uint][]uint)
	var roots []uint
	for _, c := range categories {
		if c.ParentID == nil || *c.ParentID == c.ID || arena[*c.ParentID] == nil {
			roots = append(roots, c.ID)
			continue
		}
		childrenOf[*c.ParentID] = append(childrenOf[*c.ParentID], c.ID)
	}

	placed := make(map[uint]bool, len(categories))
	var attach func(id uint) *CategoryNode
	attach = func(id uint) *CategoryNode {
		placed[id] = true
		node := arena[id]
		for _, childID := range childrenOf[id] {
			if placed[childID] {
				continue
			}
			node.Children = append(node.Children, attach(childID))
		}
		sortNodes(node.Children)
		return node
	}

	forest := make([]*CategoryNode, 0, len(roots))
	for _, id := range roots {
		if !placed[id] {
			forest = append(forest, attach(id))
		}
	}
	sortNodes(forest)
	return forest
}

func sortNodes(nodes []*CategoryNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].SortOrder != nodes[j].SortOrder {
			return nodes[i].SortOrder < nodes[j].SortOrder
		}
		return nodes[i].Name < nodes[j].Name
	})
}
