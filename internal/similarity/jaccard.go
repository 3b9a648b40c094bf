package similarity

import "sort"

// Set is a set of normalized string tokens (skills, interests).
type Set map[string]struct{}

// NewSet builds a Set from tokens, ignoring empty strings.
func NewSet(tokens ...string) Set {
	s := make(Set, len(tokens))
	for _, t := range tokens {
		if t != "" {
			s[t] = struct{}{}
		}
	}
	return s
}

// Add inserts token into the set unless it is empty.
func (s Set) Add(token string) {
	if token != "" {
		s[token] = struct{}{}
	}
}

// Contains reports whether token is in the set.
func (s Set) Contains(token string) bool {
	_, ok := s[token]
	return ok
}

// Intersect returns the elements present in both s and other.
func (s Set) Intersect(other Set) Set {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(Set)
	for t := range small {
		if large.Contains(t) {
			out[t] = struct{}{}
		}
	}
	return out
}

// Diff returns the elements of s not present in other.
func (s Set) Diff(other Set) Set {
	out := make(Set)
	for t := range s {
		if !other.Contains(t) {
			out[t] = struct{}{}
		}
	}
	return out
}

// Sorted returns the elements in lexical order, for stable output.
func (s Set) Sorted() []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Jaccard returns |A∩B| / |A∪B|. Two empty sets yield 0.0 by convention,
// not 1.0: two users with no data are not a perfect match.
func Jaccard(a, b Set) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0.0
	}
	inter := len(a.Intersect(b))
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0.0
	}
	return float64(inter) / float64(union)
}
