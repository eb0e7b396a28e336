package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"mlst/internal/typing"
	"mlst/pkg/api"
)

func TestTSVHeader_Stable(t *testing.T) {
	const want = "Scheme\tLocus\tAllele\tIdentity\tContig\tStart\tEnd\tST"
	if TSVHeader != want {
		t.Fatalf("TSVHeader changed:\n got:  %q\n want: %q", TSVHeader, want)
	}
}

func TestFormats_Stable(t *testing.T) {
	if FormatText != "text" || FormatJSON != "json" || FormatJSONL != "jsonl" {
		t.Fatalf("output format constants changed")
	}
}

func TestFormatIdentity(t *testing.T) {
	for in, want := range map[float64]string{100: "100.0", 96.5: "96.5", 99.123: "99.123", 0: "0.0"} {
		if got := FormatIdentity(in); got != want {
			t.Fatalf("FormatIdentity(%v) = %q, want %q", in, got, want)
		}
	}
}

func sampleReport() typing.Report {
	return typing.Report{Results: []typing.Result{
		{
			Scheme: "ecoli#1", Status: typing.StatusResolved, ST: "131", ClonalComplex: "CC131", Score: 100,
			Calls: []typing.AlleleCall{
				{Locus: "adk", Allele: "53", Identity: 100, ContigID: "c1", Start: 10, End: 545},
				{Locus: "fumC", Allele: "40", Identity: 100, ContigID: "c2", Start: 1, End: 469},
			},
		},
		{
			Scheme: "ecoli#2", Status: typing.StatusProvisional, ST: typing.NoST, Score: 98.25,
			Calls: []typing.AlleleCall{
				{Locus: "dinB", Allele: "8", Identity: 96.5, ContigID: "c3", Start: 5, End: 455, Provisional: true},
			},
		},
		{
			Scheme: "ecoli#3", Status: typing.StatusLookupMiss, ST: typing.NoST, Score: 100,
			Calls: []typing.AlleleCall{
				{Locus: "polB", Allele: "2", Identity: 100, ContigID: "c4", Start: 7, End: 457},
			},
		},
	}}
}

func TestWriteTextBlocks(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, Document{Report: sampleReport(), Header: true}); err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		TSVHeader,
		"ecoli#1\tadk\t53\t100.0\tc1\t10\t545\t131",
		"ecoli#1\tfumC\t40\t100.0\tc2\t1\t469\t131",
		TSVHeader,
		"ecoli#2\tdinB\t~8\t96.5\tc3\t5\t455\t-",
		TSVHeader,
		"ecoli#3\tpolB\t2\t100.0\tc4\t7\t457\t?",
	}, "\n") + "\n"
	if buf.String() != want {
		t.Fatalf("text output mismatch:\n got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteTextNoHeader(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteText(&buf, Document{Report: sampleReport()})
	if strings.Contains(buf.String(), "Scheme\t") {
		t.Fatalf("header printed with Header=false")
	}
}

func TestWriteTextNoST(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, Document{Header: true}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != NoSTLine+"\n" {
		t.Fatalf("want sentinel only, got %q", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	rep := sampleReport()
	rep.Diagnostics = []typing.Diagnostic{{Kind: typing.DiagIncomplete, Scheme: "x", Count: 3, Expected: 7}}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, Document{RunID: "r1", Sample: "iso1", Report: rep}); err != nil {
		t.Fatalf("json write: %v", err)
	}
	var got api.ReportV1
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.Found || got.RunID != "r1" || len(got.Results) != 3 || len(got.Diagnostics) != 1 {
		t.Fatalf("unexpected report %+v", got)
	}
	if r := got.Results[0]; !r.Resolved || r.ClonalComplex != "CC131" || r.Status != "resolved" {
		t.Fatalf("unexpected first result %+v", r)
	}
	if a := got.Results[1].Alleles[0]; !a.Provisional || a.Allele != "8" {
		t.Fatalf("provisional flag must travel as data, not as a marker: %+v", a)
	}
	if got.Results[2].Status != "lookup-miss" {
		t.Fatalf("lookup miss status lost: %+v", got.Results[2])
	}
}

func TestWriteJSONL(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSONL(&buf, Document{Sample: "iso1", Report: sampleReport()}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("want 3 lines, got %d", len(lines))
	}
	var r api.ResultV1
	if err := json.Unmarshal([]byte(lines[0]), &r); err != nil || r.Sample != "iso1" || r.ST != "131" {
		t.Fatalf("line 0: %+v %v", r, err)
	}

	buf.Reset()
	_ = WriteJSONL(&buf, Document{})
	if buf.Len() != 0 {
		t.Fatalf("empty report should write nothing, got %q", buf.String())
	}
}
