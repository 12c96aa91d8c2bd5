package grouping

// Index maps every grouped identifier to its group. It is read-only once built.
type Index struct {
	ids     []string       // distinct ids, first-seen order
	ordinal []int          // ordinal[i] is the group of ids[i]
	groups  []Group        // groups in creation order
	pos     map[string]int // id -> position in ids
}

// freeze copies the assignment into an immutable Index.
func (a assignment) freeze(ids []string) *Index {
	idx := &Index{
		ids:     append([]string(nil), ids...),
		ordinal: append([]int(nil), a.ordinal...),
		groups:  make([]Group, len(a.canonical)),
		pos:     make(map[string]int, len(ids)),
	}
	for g, c := range a.canonical {
		idx.groups[g].Canonical = ids[c]
	}
	for i, id := range ids {
		idx.pos[id] = i
		g := a.ordinal[i]
		idx.groups[g].Members = append(idx.groups[g].Members, id)
	}
	return idx
}

// Len returns the number of groups.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.groups)
}

// Size returns the number of distinct identifiers in the index.
func (x *Index) Size() int {
	if x == nil {
		return 0
	}
	return len(x.ids)
}

// Lookup returns the canonical identifier for id.
func (x *Index) Lookup(id string) (string, bool) {
	g, ok := x.GroupOf(id)
	if !ok {
		return "", false
	}
	return x.groups[g].Canonical, true
}

// GroupOf returns the group ordinal for id.
func (x *Index) GroupOf(id string) (int, bool) {
	if x == nil {
		return 0, false
	}
	p, ok := x.pos[id]
	if !ok {
		return 0, false
	}
	return x.ordinal[p], true
}

// Canonical returns the canonical identifier of group g.
func (x *Index) Canonical(g int) string { return x.groups[g].Canonical }

// Groups returns a copy of all groups in creation order.
func (x *Index) Groups() []Group {
	if x == nil {
		return nil
	}
	out := make([]Group, len(x.groups))
	for i, g := range x.groups {
		out[i] = Group{Canonical: g.Canonical, Members: append([]string(nil), g.Members...)}
	}
	return out
}

// Mapping returns identifier -> canonical identifier for every indexed id.
func (x *Index) Mapping() map[string]string {
	out := make(map[string]string, x.Size())
	if x == nil {
		return out
	}
	for i, id := range x.ids {
		out[id] = x.groups[x.ordinal[i]].Canonical
	}
	return out
}
