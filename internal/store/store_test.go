package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mlst/internal/typing"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "runs", "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndList(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)

	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := Run{ID: NewRunID(), Sample: "iso1", Created: t0, Report: typing.Report{
		Results: []typing.Result{{
			Scheme: "ecoli#1", Status: typing.StatusResolved, ST: "131", ClonalComplex: "CC131", Score: 100,
			Calls: []typing.AlleleCall{{Locus: "adk", Allele: "53", Identity: 100, ContigID: "c1", Start: 1, End: 536}},
		}},
	}}
	second := Run{ID: NewRunID(), Sample: "iso2", Created: t0.Add(time.Hour), Report: typing.Report{
		Diagnostics: []typing.Diagnostic{{Kind: typing.DiagIncomplete}},
	}}
	for _, r := range []Run{first, second} {
		if err := s.SaveRun(ctx, r); err != nil {
			t.Fatalf("save %s: %v", r.Sample, err)
		}
	}

	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 || runs[0].Sample != "iso2" || runs[1].Sample != "iso1" {
		t.Fatalf("want newest first, got %+v", runs)
	}
	if runs[0].Found || runs[0].Diagnostics != 1 || !runs[1].Found || runs[1].Results != 1 {
		t.Fatalf("summary counts wrong: %+v", runs)
	}
	if !runs[1].Created.Equal(t0) {
		t.Fatalf("created = %v", runs[1].Created)
	}

	limited, _ := s.ListRuns(ctx, 1)
	if len(limited) != 1 {
		t.Fatalf("limit ignored: %d", len(limited))
	}

	res, err := s.Results(ctx, first.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(res) != 1 || res[0].ST != "131" || res[0].Status != "resolved" || len(res[0].Calls) != 1 || res[0].Calls[0].Allele != "53" {
		t.Fatalf("results round trip: %+v", res)
	}
}

func TestListRunsOrdersSubsecondStamps(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	whole := time.Date(2026, 3, 1, 12, 0, 5, 0, time.UTC)
	half := whole.Add(500 * time.Millisecond)
	for _, r := range []Run{
		{ID: "a", Sample: "whole", Created: whole},
		{ID: "b", Sample: "half", Created: half},
	} {
		if err := s.SaveRun(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].Sample != "half" || runs[1].Sample != "whole" {
		t.Fatalf("want half then whole, got %+v", runs)
	}
	if !runs[0].Created.Equal(half) {
		t.Fatalf("created = %v, want %v", runs[0].Created, half)
	}
}

func TestSaveRunRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := openTemp(t)
	r := Run{ID: "fixed", Sample: "x"}
	if err := s.SaveRun(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveRun(ctx, r); err == nil {
		t.Fatalf("duplicate run id accepted")
	}
	if err := s.SaveRun(ctx, Run{}); err == nil {
		t.Fatalf("empty run id accepted")
	}
}

func TestOpenErrors(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatalf("empty dsn accepted")
	}
	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })
	var gotDriver string
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		gotDriver = driver
		return nil, errors.New("boom")
	}
	if _, err := Open(context.Background(), "postgres://localhost/mlst"); err == nil || gotDriver != "pgx" {
		t.Fatalf("postgres dsn: driver=%q err=%v", gotDriver, err)
	}
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: dialectPostgres}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Fatalf("rebind = %q", got)
	}
	lite := &Store{}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Fatalf("sqlite rebind = %q", got)
	}
}
