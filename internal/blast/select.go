package blast

import (
	"fmt"

	"mlst/internal/typing"
)

// DefaultMinIdentity is the ingest floor: a locus whose representative hit
// is at or below it is dropped.
const DefaultMinIdentity = 95.0

// Selection chooses the representative row of a locus.
type Selection string

const (
	// SelectQuality ranks rows by identity, alignment length, identical
	// bases, then input line.
	SelectQuality Selection = "quality"
	// SelectFirst keeps the first row per locus and trusts the aligner's order.
	SelectFirst Selection = "first"
)

// ParseSelection validates a selection policy name.
func ParseSelection(s string) (Selection, error) {
	switch Selection(s) {
	case SelectQuality, SelectFirst:
		return Selection(s), nil
	}
	return "", fmt.Errorf("invalid selection %q (want quality|first)", s)
}

// SelectOptions configures SelectBest.
type SelectOptions struct {
	MinIdentity float64
	Policy      Selection
}

// DefaultSelectOptions returns the stock ingest settings.
func DefaultSelectOptions() SelectOptions {
	return SelectOptions{MinIdentity: DefaultMinIdentity, Policy: SelectQuality}
}

// Stats summarizes an ingest pass.
type Stats struct {
	Rows       int
	Loci       int
	Kept       int
	BelowFloor int
}

// better reports whether a should represent its locus instead of b.
func better(a, b Row) bool {
	if a.Identity != b.Identity {
		return a.Identity > b.Identity
	}
	if a.AlignLen != b.AlignLen {
		return a.AlignLen > b.AlignLen
	}
	if a.Identical != b.Identical {
		return a.Identical > b.Identical
	}
	return a.Line < b.Line
}

// SelectBest groups rows by locus, keeps one representative per locus and
// drops representatives at or below the identity floor. Hits come back in
// the order their locus first appears in rows.
func SelectBest(rows []Row, opt SelectOptions) ([]typing.Hit, Stats, error) {
	st := Stats{Rows: len(rows)}
	var order []string
	best := map[string]Row{}
	for _, r := range rows {
		locus, _, err := SplitSubjectID(r.SubjectID)
		if err != nil {
			return nil, st, err
		}
		cur, seen := best[locus]
		if !seen {
			order = append(order, locus)
			best[locus] = r
			continue
		}
		if opt.Policy != SelectFirst && better(r, cur) {
			best[locus] = r
		}
	}
	st.Loci = len(order)

	hits := make([]typing.Hit, 0, len(order))
	for _, locus := range order {
		r := best[locus]
		if r.Identity <= opt.MinIdentity {
			st.BelowFloor++
			continue
		}
		h, err := r.Hit()
		if err != nil {
			return nil, st, err
		}
		hits = append(hits, h)
	}
	st.Kept = len(hits)
	return hits, st, nil
}
