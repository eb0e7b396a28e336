package typing

// Stock thresholds.
const (
	DefaultMaxBadAlleles = 1
	DefaultBadIdentity   = 99.0
	DefaultScoreMargin   = -1.0 // negative: report every surviving scheme
)

// Options tunes the rejection filters.
type Options struct {
	// MaxBadAlleles is the number of alleles below BadIdentity a scheme may
	// carry and still be reported.
	MaxBadAlleles int
	// BadIdentity is the identity under which an allele counts as bad.
	BadIdentity float64
	// ScoreMargin withholds schemes scoring more than this many points below
	// the best one. Negative disables the cutoff.
	ScoreMargin float64
}

// DefaultOptions returns the stock thresholds.
func DefaultOptions() Options {
	return Options{
		MaxBadAlleles: DefaultMaxBadAlleles,
		BadIdentity:   DefaultBadIdentity,
		ScoreMargin:   DefaultScoreMargin,
	}
}

// Decide classifies every ranked candidate independently. ranked must come
// from Rank; its first element is the best candidate.
func Decide(ranked []Candidate, ref Reference, opt Options) ([]Result, []Diagnostic) {
	if len(ranked) == 0 {
		return nil, nil
	}
	best := ranked[0]

	var (
		results []Result
		diags   []Diagnostic
	)
	for _, c := range ranked {
		if bad := c.BadAlleles(opt.BadIdentity); bad > opt.MaxBadAlleles {
			diags = append(diags, Diagnostic{Kind: DiagTooManyBad, Scheme: c.Scheme, Count: bad, Expected: opt.MaxBadAlleles, Score: c.Score})
			continue
		}
		if got := c.DistinctLoci(); got < c.ExpectedLoci {
			diags = append(diags, Diagnostic{Kind: DiagIncomplete, Scheme: c.Scheme, Count: got, Expected: c.ExpectedLoci, Score: c.Score})
			continue
		}
		if opt.ScoreMargin >= 0 && best.Score-c.Score > opt.ScoreMargin {
			diags = append(diags, Diagnostic{Kind: DiagOutsideMargin, Scheme: c.Scheme, Score: c.Score, Best: best.Score})
			continue
		}

		res := Result{Scheme: c.Scheme, ST: NoST, Score: c.Score, Calls: callsOf(c.Hits)}
		if c.Exact() && best.Exact() {
			res.Key = ProfileKey(res.Calls)
			if p, ok := ref.Profile(c.Scheme, res.Key); ok {
				res.Status = StatusResolved
				res.ST = p.ST
				res.ClonalComplex = p.ClonalComplex
			} else {
				res.Status = StatusLookupMiss
				diags = append(diags, Diagnostic{Kind: DiagLookupMiss, Scheme: c.Scheme, Key: res.Key, Count: len(res.Calls), Score: c.Score})
			}
		} else {
			res.Status = StatusProvisional
			for i := range res.Calls {
				res.Calls[i].Provisional = res.Calls[i].Identity != PerfectScore
			}
		}
		results = append(results, res)
	}
	return results, diags
}

func callsOf(hits []Hit) []AlleleCall {
	out := make([]AlleleCall, len(hits))
	for i, h := range hits {
		out[i] = AlleleCall{
			Locus:    h.Locus,
			Allele:   h.Allele,
			Identity: h.Identity,
			ContigID: h.ContigID,
			Start:    h.Start,
			End:      h.End,
		}
	}
	return out
}

// Resolve runs the whole decision over one isolate's surviving hits.
func Resolve(hits []Hit, ref Reference, opt Options) Report {
	cs, diags := BuildCandidates(hits, ref)
	Accumulate(cs, hits, ref)
	ranked := Rank(cs.Snapshot())
	results, more := Decide(ranked, ref, opt)
	return Report{
		Ranked:      ranked,
		Results:     results,
		Diagnostics: append(diags, more...),
	}
}
