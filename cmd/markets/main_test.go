package main

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"farmers_markets/internal/adapters/observability"
	"farmers_markets/internal/domain"
	"farmers_markets/internal/store"
)

func TestRecordLoad_OneSamplePerReason(t *testing.T) {
	reg := observability.InitRegistry()

	_, rep := store.LoadRecords([]domain.RawRow{
		{Line: 2, ID: "1", Name: "A"},
		{Line: 3, ID: "1", Name: "A again"},
		{Line: 4, ID: "x", Name: "B"},
	})
	recordLoad(rep)

	rr := httptest.NewRecorder()
	observability.MetricsHandler(reg).ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)
	out := string(body)

	for _, want := range []string{
		`markets_load_rows_total{status="loaded"} 1`,
		`markets_load_rows_total{status="duplicate id"} 1`,
		`markets_load_rows_total{status="non-numeric id"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in:\n%s", want, out)
		}
	}
	if strings.Contains(out, `status="skipped"`) {
		t.Errorf("aggregate skipped label still emitted:\n%s", out)
	}
}

func TestMirrorDSN_ForcesParseTime(t *testing.T) {
	cases := []string{
		"markets:secret@tcp(db:3306)/markets",
		"markets:secret@tcp(db:3306)/markets?parseTime=false",
		"markets:secret@tcp(db:3306)/markets?parseTime=true&loc=UTC",
	}
	for _, in := range cases {
		got, err := mirrorDSN(in)
		if err != nil {
			t.Fatalf("mirrorDSN(%q): %v", in, err)
		}
		if !strings.Contains(got, "parseTime=true") {
			t.Errorf("mirrorDSN(%q) = %q, want parseTime=true", in, got)
		}
		if !strings.HasPrefix(got, "markets:secret@tcp(db:3306)/markets") {
			t.Errorf("mirrorDSN(%q) = %q, lost the address", in, got)
		}
	}

	if _, err := mirrorDSN("not a dsn"); err == nil {
		t.Fatal("expected parse error")
	}
}
