package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"mlst/internal/blast"
	"mlst/internal/typing"
)

func TestObserve(t *testing.T) {
	m := NewRun()
	m.ObserveIngest(blast.Stats{Rows: 12, Loci: 8, Kept: 7, BelowFloor: 1})
	m.ObserveReport(typing.Report{
		Ranked: make([]typing.Candidate, 3),
		Results: []typing.Result{
			{Status: typing.StatusResolved},
			{Status: typing.StatusProvisional},
			{Status: typing.StatusProvisional},
		},
		Diagnostics: []typing.Diagnostic{{Kind: typing.DiagIncomplete}},
	}, 2*time.Millisecond)

	if got := testutil.ToFloat64(m.rows); got != 12 {
		t.Fatalf("rows = %v", got)
	}
	if got := testutil.ToFloat64(m.belowFloor); got != 1 {
		t.Fatalf("below floor = %v", got)
	}
	if got := testutil.ToFloat64(m.candidates); got != 3 {
		t.Fatalf("candidates = %v", got)
	}
	if got := testutil.ToFloat64(m.results.WithLabelValues("provisional")); got != 2 {
		t.Fatalf("provisional results = %v", got)
	}
	if got := testutil.ToFloat64(m.diagnostics.WithLabelValues("incomplete")); got != 1 {
		t.Fatalf("incomplete diagnostics = %v", got)
	}
	if n := testutil.CollectAndCount(m.resolve); n != 1 {
		t.Fatalf("histogram series = %d", n)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := NewRun()
	m.ObserveIngest(blast.Stats{Rows: 4, Kept: 4})
	fn := filepath.Join(t.TempDir(), "mlst.prom")
	if err := m.WriteTextfile(fn); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(fn)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "mlst_alignment_rows_total 4") {
		t.Fatalf("textfile missing counter:\n%s", b)
	}
}
