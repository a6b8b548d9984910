package classification

import (
	"sort"

	"github.com/google/uuid"
)

// Tree is an in-memory view of the live category hierarchy.
type Tree struct {
	byID   map[uuid.UUID]*Category
	parent map[uuid.UUID]uuid.UUID
}

func NewTree(categories []*Category) *Tree {
	t := &Tree{
		byID:   make(map[uuid.UUID]*Category, len(categories)),
		parent: make(map[uuid.UUID]uuid.UUID, len(categories)),
	}
	for _, c := range categories {
		if c == nil || c.ID == uuid.Nil {
			continue
		}
		t.byID[c.ID] = c
	}
	for _, c := range t.byID {
		if c.ParentID != nil && *c.ParentID != uuid.Nil && *c.ParentID != c.ID {
			t.parent[c.ID] = *c.ParentID
		}
	}
	return t
}

func (t *Tree) Len() int { return len(t.byID) }

// Categories returns the live categories ordered by slug.
func (t *Tree) Categories() []*Category {
	out := make([]*Category, 0, len(t.byID))
	for _, c := range t.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

func (t *Tree) Get(id uuid.UUID) *Category { return t.byID[id] }

func (t *Tree) Has(id uuid.UUID) bool {
	_, ok := t.byID[id]
	return ok
}

func (t *Tree) Parent(id uuid.UUID) (uuid.UUID, bool) {
	p, ok := t.parent[id]
	return p, ok
}

// Ancestors returns id's ancestors nearest first. Cycles are cut at the first repeat.
func (t *Tree) Ancestors(id uuid.UUID) []uuid.UUID {
	out := []uuid.UUID{}
	seen := map[uuid.UUID]bool{id: true}
	cur := id
	for {
		p, ok := t.parent[cur]
		if !ok || seen[p] {
			return out
		}
		seen[p] = true
		out = append(out, p)
		cur = p
	}
}

func (t *Tree) IsAncestor(ancestor, id uuid.UUID) bool {
	for _, a := range t.Ancestors(id) {
		if a == ancestor {
			return true
		}
	}
	return false
}

// Deepest reduces an item's assigned categories to the child-most ones: any assigned
// category that is an ancestor of another assigned category is dropped, as are
// categories no longer in the tree. The result is sorted for stable output.
func (t *Tree) Deepest(assigned []uuid.UUID) []uuid.UUID {
	live := make(map[uuid.UUID]bool, len(assigned))
	for _, id := range assigned {
		if t.Has(id) {
			live[id] = true
		}
	}
	shadowed := map[uuid.UUID]bool{}
	for id := range live {
		for _, a := range t.Ancestors(id) {
			if live[a] {
				shadowed[a] = true
			}
		}
	}
	out := make([]uuid.UUID, 0, len(live))
	for id := range live {
		if !shadowed[id] {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// IsDeepestFor reports whether categoryID is among the deepest categories of assigned.
func (t *Tree) IsDeepestFor(categoryID uuid.UUID, assigned []uuid.UUID) bool {
	for _, id := range t.Deepest(assigned) {
		if id == categoryID {
			return true
		}
	}
	return false
}
