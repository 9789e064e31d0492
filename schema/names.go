package schema

import "strings"

// NameSet is a case-insensitive set of catalog identifiers.
type NameSet map[string]struct{}

func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

func (s NameSet) Add(name string) {
	s[normalize(name)] = struct{}{}
}

func (s NameSet) Contains(name string) bool {
	_, ok := s[normalize(name)]
	return ok
}

// Key is the canonical form used for case-insensitive lookups.
func Key(name string) string {
	return normalize(name)
}

func normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
