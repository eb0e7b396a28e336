package typing

import (
	"fmt"
	"math"
	"strings"
	"testing"
)

type fakeRef struct {
	locus    map[string][]string
	loci     map[string]int
	profiles map[string]map[string]Profile
}

func (f fakeRef) SchemesFor(l string) ([]string, bool) { s, ok := f.locus[l]; return s, ok }
func (f fakeRef) LocusCount(s string) (int, bool)      { n, ok := f.loci[s]; return n, ok }
func (f fakeRef) Profile(s, key string) (Profile, bool) {
	p, ok := f.profiles[s][key]
	return p, ok
}

var sevenLoci = []string{"adk", "fumC", "gyrB", "icd", "mdh", "purA", "recA"}

// schemeX builds a reference with one 7-locus scheme "X" whose allele-1
// profile is ST 131.
func schemeX() fakeRef {
	ref := fakeRef{
		locus:    map[string][]string{},
		loci:     map[string]int{"X": len(sevenLoci)},
		profiles: map[string]map[string]Profile{"X": {}},
	}
	var calls []AlleleCall
	for _, l := range sevenLoci {
		ref.locus[l] = []string{"X"}
		calls = append(calls, AlleleCall{Locus: l, Allele: "1"})
	}
	ref.profiles["X"][ProfileKey(calls)] = Profile{ST: "131", ClonalComplex: "CC131"}
	return ref
}

func hitsAt(ids ...float64) []Hit {
	var out []Hit
	for i, id := range ids {
		out = append(out, Hit{Locus: sevenLoci[i], Allele: "1", ContigID: "ctg1", Start: 100 * i, End: 100*i + 50, Identity: id})
	}
	return out
}

func TestScenarioA_ExactMatchResolves(t *testing.T) {
	rep := Resolve(hitsAt(100, 100, 100, 100, 100, 100, 100), schemeX(), DefaultOptions())
	if !rep.Found() || len(rep.Results) != 1 {
		t.Fatalf("expected one result, got %+v", rep)
	}
	r := rep.Results[0]
	if !r.Resolved() || r.ST != "131" || r.ClonalComplex != "CC131" {
		t.Fatalf("unexpected result: %+v", r)
	}
	for _, c := range r.Calls {
		if c.Provisional {
			t.Fatalf("exact allele flagged provisional: %+v", c)
		}
	}
	if rep.Ranked[0].Score != PerfectScore {
		t.Fatalf("score = %v", rep.Ranked[0].Score)
	}
}

func TestScenarioB_OneImperfectAlleleIsProvisional(t *testing.T) {
	rep := Resolve(hitsAt(100, 100, 100, 96, 100, 100, 100), schemeX(), DefaultOptions())
	if len(rep.Results) != 1 {
		t.Fatalf("expected one result, got %d (diags %+v)", len(rep.Results), rep.Diagnostics)
	}
	r := rep.Results[0]
	if r.Status != StatusProvisional || r.ST != NoST {
		t.Fatalf("want provisional '-', got %v %q", r.Status, r.ST)
	}
	marked := 0
	for _, c := range r.Calls {
		if c.Provisional {
			marked++
			if c.Locus != "icd" {
				t.Fatalf("wrong allele marked: %+v", c)
			}
		}
	}
	if marked != 1 {
		t.Fatalf("marked %d alleles, want 1", marked)
	}
}

func TestScenarioC_TooManyBadAllelesRejected(t *testing.T) {
	rep := Resolve(hitsAt(100, 97, 100, 98, 96, 100, 100), schemeX(), DefaultOptions())
	if rep.Found() {
		t.Fatalf("scheme should be rejected: %+v", rep.Results)
	}
	if len(rep.Diagnostics) != 1 || rep.Diagnostics[0].Kind != DiagTooManyBad || rep.Diagnostics[0].Count != 3 {
		t.Fatalf("unexpected diagnostics: %+v", rep.Diagnostics)
	}
	if msg := rep.Diagnostics[0].Message(); !strings.Contains(msg, "3 found") {
		t.Fatalf("message does not name count: %q", msg)
	}
}

func TestScenarioD_NoHitsNoST(t *testing.T) {
	rep := Resolve(nil, schemeX(), DefaultOptions())
	if rep.Found() || len(rep.Ranked) != 0 || len(rep.Diagnostics) != 0 {
		t.Fatalf("expected empty report, got %+v", rep)
	}
}

func TestScenarioE_LookupMissIsDistinct(t *testing.T) {
	hits := hitsAt(100, 100, 100, 100, 100, 100, 100)
	hits[2].Allele = "77"
	rep := Resolve(hits, schemeX(), DefaultOptions())
	if len(rep.Results) != 1 {
		t.Fatalf("expected one result, got %+v", rep.Results)
	}
	r := rep.Results[0]
	if r.Status != StatusLookupMiss || r.Resolved() {
		t.Fatalf("want lookup-miss, got %v", r.Status)
	}
	for _, c := range r.Calls {
		if c.Provisional {
			t.Fatalf("lookup miss must not mark alleles provisional")
		}
	}
	var miss *Diagnostic
	for i := range rep.Diagnostics {
		if rep.Diagnostics[i].Kind == DiagLookupMiss {
			miss = &rep.Diagnostics[i]
		}
	}
	if miss == nil || !strings.Contains(miss.Key, "gyrB@77") {
		t.Fatalf("missing lookup-miss diagnostic: %+v", rep.Diagnostics)
	}
}

func TestIncompleteSchemeRejectedRegardlessOfScore(t *testing.T) {
	rep := Resolve(hitsAt(100, 100, 100, 100, 100, 100), schemeX(), DefaultOptions())
	if rep.Found() {
		t.Fatalf("incomplete scheme reported")
	}
	d := rep.Diagnostics[0]
	if d.Kind != DiagIncomplete || d.Count != 6 || d.Expected != 7 {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
}

func TestBadAlleleThresholdConfigurable(t *testing.T) {
	hits := hitsAt(100, 97, 100, 98, 96, 100, 100)
	opt := DefaultOptions()
	opt.MaxBadAlleles = 3
	rep := Resolve(hits, schemeX(), opt)
	if len(rep.Results) != 1 || rep.Results[0].Status != StatusProvisional {
		t.Fatalf("threshold 3 should accept 3 bad alleles: %+v", rep)
	}
}

func TestScoreFormula(t *testing.T) {
	ids := []float64{100, 99.5, 96.25, 100, 100, 98.75, 100}
	rep := Resolve(hitsAt(ids...), schemeX(), Options{MaxBadAlleles: 7, BadIdentity: 99, ScoreMargin: -1})
	var sum float64
	for _, v := range ids {
		sum += v
	}
	want := sum / (100 * 7) * 100
	if got := rep.Ranked[0].Score; math.Abs(got-want) > 1e-9 {
		t.Fatalf("score = %v, want %v", got, want)
	}
	if rep.Results[0].Score != rep.Ranked[0].Score {
		t.Fatalf("result score differs from candidate score")
	}
}

func TestProfileKeyOrderIndependent(t *testing.T) {
	ref := schemeX()
	hits := hitsAt(100, 100, 100, 100, 100, 100, 100)
	want := Resolve(hits, ref, DefaultOptions()).Results[0]
	for shift := 1; shift < len(hits); shift++ {
		perm := append(append([]Hit(nil), hits[shift:]...), hits[:shift]...)
		got := Resolve(perm, ref, DefaultOptions()).Results[0]
		if got.Key != want.Key || got.ST != want.ST {
			t.Fatalf("shift %d: key %q st %q, want %q %q", shift, got.Key, got.ST, want.Key, want.ST)
		}
		if got.Calls[0].Locus != perm[0].Locus {
			t.Fatalf("calls must follow input locus order")
		}
	}
}

func TestMultipleSchemesEachReported(t *testing.T) {
	ref := schemeX()
	ref.loci["X2"] = len(sevenLoci)
	ref.profiles["X2"] = ref.profiles["X"]
	for _, l := range sevenLoci {
		ref.locus[l] = []string{"X", "X2"}
	}
	rep := Resolve(hitsAt(100, 100, 100, 100, 100, 100, 100), ref, DefaultOptions())
	if len(rep.Results) != 2 || rep.Results[0].Scheme != "X" || rep.Results[1].Scheme != "X2" {
		t.Fatalf("want X then X2, got %+v", rep.Results)
	}
}

func TestScoreMarginWithholdsDistantSchemes(t *testing.T) {
	ref := schemeX()
	// "Y" shares two loci and needs three; it trails X by about 0.76 points.
	ref.loci["Y"] = 3
	ref.locus["adk"] = []string{"X", "Y"}
	ref.locus["fumC"] = []string{"X", "Y"}
	ref.locus["zzz"] = []string{"Y"}
	hits := append(hitsAt(100, 100, 100, 100, 100, 100, 96), Hit{Locus: "zzz", Allele: "4", Identity: 96})

	all := Resolve(hits, ref, DefaultOptions())
	if len(all.Results) != 2 {
		t.Fatalf("unconditional policy should report both, got %+v", all.Results)
	}

	opt := DefaultOptions()
	opt.ScoreMargin = 0.5
	cut := Resolve(hits, ref, opt)
	if len(cut.Results) != 1 || cut.Results[0].Scheme != "X" {
		t.Fatalf("margin should keep only X, got %+v", cut.Results)
	}
	if d := cut.Diagnostics[len(cut.Diagnostics)-1]; d.Kind != DiagOutsideMargin || d.Scheme != "Y" {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
}

func TestReferenceGapsAreWarnings(t *testing.T) {
	ref := schemeX()
	ref.locus["ghostlocus"] = []string{"Ghost"}
	hits := append(hitsAt(100, 100, 100, 100, 100, 100, 100),
		Hit{Locus: "orphan", Allele: "1", Identity: 100},
		Hit{Locus: "ghostlocus", Allele: "1", Identity: 100},
	)
	rep := Resolve(hits, ref, DefaultOptions())
	if len(rep.Results) != 1 || !rep.Results[0].Resolved() {
		t.Fatalf("gaps must not block typing: %+v", rep.Results)
	}
	kinds := map[DiagKind]int{}
	for _, d := range rep.Diagnostics {
		kinds[d.Kind]++
	}
	if kinds[DiagReferenceGap] != 1 || kinds[DiagUnknownScheme] != 1 {
		t.Fatalf("unexpected diagnostics %+v", rep.Diagnostics)
	}
}

func TestRankDeterministicTies(t *testing.T) {
	cs := []Candidate{{Scheme: "b", Score: 50}, {Scheme: "c", Score: 90}, {Scheme: "a", Score: 50}}
	Rank(cs)
	got := fmt.Sprintf("%s %s %s", cs[0].Scheme, cs[1].Scheme, cs[2].Scheme)
	if got != "c a b" {
		t.Fatalf("rank order %q", got)
	}
}

func TestAccumulateIgnoresDuplicateSchemeListing(t *testing.T) {
	ref := fakeRef{
		locus: map[string][]string{"a": {"S", "S"}},
		loci:  map[string]int{"S": 1},
	}
	hits := []Hit{{Locus: "a", Allele: "1", Identity: 100}}
	cs, _ := BuildCandidates(hits, ref)
	Accumulate(cs, hits, ref)
	c, _ := cs.Get("S")
	if len(c.Hits) != 1 || c.Score != PerfectScore {
		t.Fatalf("duplicate listing double counted: %+v", c)
	}
}

func TestNormalizeID(t *testing.T) {
	// e + combining acute composes to the single code point.
	if got := NormalizeID(" cafe\u0301 "); got != "caf\u00e9" {
		t.Fatalf("NormalizeID = %q", got)
	}
}
