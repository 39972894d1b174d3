package report

// orderedSet is an insertion-ordered set of strings.
// It is used to suppress duplicate rendering while keeping the natural
// iteration order of the data that fills it.
type orderedSet struct {
	index map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{index: make(map[string]struct{})}
}

// Add inserts s and reports whether it was not present before.
func (s *orderedSet) Add(item string) bool {
	if _, ok := s.index[item]; ok {
		return false
	}
	s.index[item] = struct{}{}
	s.items = append(s.items, item)
	return true
}

// Has reports whether item is in the set.
func (s *orderedSet) Has(item string) bool {
	_, ok := s.index[item]
	return ok
}

// Items returns the members in insertion order.
func (s *orderedSet) Items() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
