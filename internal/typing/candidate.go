package typing

// Candidate is one scheme under evaluation.
type Candidate struct {
	Scheme       string
	ExpectedLoci int
	Hits         []Hit
	IdentitySum  float64
	Score        float64
}

// Add folds one hit into the running total and refreshes the score.
func (c *Candidate) Add(h Hit) {
	c.Hits = append(c.Hits, h)
	c.IdentitySum += h.Identity
	c.Score = scoreOf(c.IdentitySum, c.ExpectedLoci)
}

func scoreOf(sum float64, loci int) float64 {
	if loci <= 0 {
		return 0
	}
	return sum / (PerfectScore * float64(loci)) * 100
}

// DistinctLoci counts the loci that contributed at least one hit.
func (c Candidate) DistinctLoci() int {
	seen := make(map[string]struct{}, len(c.Hits))
	for _, h := range c.Hits {
		seen[h.Locus] = struct{}{}
	}
	return len(seen)
}

// BadAlleles counts hits with identity strictly below floor.
func (c Candidate) BadAlleles(floor float64) int {
	n := 0
	for _, h := range c.Hits {
		if h.Identity < floor {
			n++
		}
	}
	return n
}

// Exact reports a perfect score.
func (c Candidate) Exact() bool { return c.Score == PerfectScore }

func (c Candidate) clone() Candidate {
	out := c
	out.Hits = append([]Hit(nil), c.Hits...)
	return out
}

// Candidates keeps the per-call scheme accumulators keyed by scheme id, plus
// the order in which schemes were first seen.
type Candidates struct {
	order []string
	by    map[string]*Candidate
}

// Len returns the number of candidate schemes.
func (cs *Candidates) Len() int { return len(cs.order) }

// Get returns the accumulator for scheme, if it is a candidate.
func (cs *Candidates) Get(scheme string) (*Candidate, bool) {
	c, ok := cs.by[scheme]
	return c, ok
}

// Snapshot copies the accumulators out in first-seen order.
func (cs *Candidates) Snapshot() []Candidate {
	out := make([]Candidate, 0, len(cs.order))
	for _, id := range cs.order {
		out = append(out, cs.by[id].clone())
	}
	return out
}

// BuildCandidates instantiates one empty accumulator for every scheme any
// surviving hit's locus can belong to. Loci unknown to the locus table and
// schemes unknown to the profile table come back as diagnostics.
func BuildCandidates(hits []Hit, ref Reference) (*Candidates, []Diagnostic) {
	cs := &Candidates{by: map[string]*Candidate{}}
	var diags []Diagnostic
	badScheme := map[string]bool{}

	for _, h := range hits {
		schemes, ok := ref.SchemesFor(h.Locus)
		if !ok {
			diags = append(diags, Diagnostic{Kind: DiagReferenceGap, Locus: h.Locus})
			continue
		}
		for _, s := range schemes {
			if _, seen := cs.by[s]; seen || badScheme[s] {
				continue
			}
			n, ok := ref.LocusCount(s)
			if !ok {
				badScheme[s] = true
				diags = append(diags, Diagnostic{Kind: DiagUnknownScheme, Scheme: s, Locus: h.Locus})
				continue
			}
			cs.order = append(cs.order, s)
			cs.by[s] = &Candidate{Scheme: s, ExpectedLoci: n}
		}
	}
	return cs, diags
}

// Accumulate adds every hit to every candidate scheme its locus belongs to.
// Hits keep their input order inside each candidate.
func Accumulate(cs *Candidates, hits []Hit, ref Reference) {
	for _, h := range hits {
		schemes, ok := ref.SchemesFor(h.Locus)
		if !ok {
			continue
		}
		for i, s := range schemes {
			if containsBefore(schemes, i) {
				continue
			}
			if c, ok := cs.by[s]; ok {
				c.Add(h)
			}
		}
	}
}

// containsBefore reports whether list[i] already occurs in list[:i].
func containsBefore(list []string, i int) bool {
	for _, s := range list[:i] {
		if s == list[i] {
			return true
		}
	}
	return false
}
