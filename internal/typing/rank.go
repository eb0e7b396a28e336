package typing

import "sort"

// LessCandidate defines the report order: higher score first, then scheme id.
func LessCandidate(a, b Candidate) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Scheme < b.Scheme
}

// Rank sorts candidates in place and returns them.
func Rank(cs []Candidate) []Candidate {
	sort.SliceStable(cs, func(i, j int) bool { return LessCandidate(cs[i], cs[j]) })
	return cs
}
