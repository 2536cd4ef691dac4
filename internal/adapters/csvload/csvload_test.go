package csvload_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"farmers_markets/internal/adapters/csvload"
)

const sample = "\ufeffFMID,MarketName,Website,street,city,County,State,zip,x,y\n" +
	"1000,\"Green Market, Downtown\",,1 Main St,Chicago,Cook,Illinois,60601,-87.63,41.88\n" +
	"1001,Blue Market,,,Chicago,Cook,Illinois,60602,,\n" +
	"oops,Broken Row,,,Nowhere,,,,,\n"

func TestRead(t *testing.T) {
	rows, err := csvload.Read(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	r := rows[0]
	if r.ID != "1000" || r.Name != "Green Market, Downtown" || r.City != "Chicago" ||
		r.State != "Illinois" || r.Zip != "60601" || r.Lon != "-87.63" || r.Lat != "41.88" {
		t.Fatalf("unexpected row: %+v", r)
	}
	if r.Line != 2 || rows[2].Line != 4 {
		t.Fatalf("unexpected line numbers: %d %d", r.Line, rows[2].Line)
	}
	if rows[1].Lat != "" || rows[2].ID != "oops" {
		t.Fatalf("unexpected rows: %+v", rows[1:])
	}
}

func TestRead_MissingColumn(t *testing.T) {
	_, err := csvload.Read(strings.NewReader("FMID,MarketName\n1,Green\n"))
	if err == nil || !strings.Contains(err.Error(), "city") {
		t.Fatalf("expected missing column error, got %v", err)
	}
	if _, err := csvload.Read(strings.NewReader("")); err == nil {
		t.Fatal("expected error on empty input")
	}
}

type fakeFetcher struct {
	body []byte
	err  error
	url  string
}

func (f *fakeFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	f.url = url
	return f.body, f.err
}

func TestLoad_Sources(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "markets.csv")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	rows, err := csvload.Load(ctx, path, nil)
	if err != nil || len(rows) != 3 {
		t.Fatalf("file: rows=%d err=%v", len(rows), err)
	}

	f := &fakeFetcher{body: []byte(sample)}
	rows, err = csvload.Load(ctx, "https://example.org/markets.csv", f)
	if err != nil || len(rows) != 3 || f.url != "https://example.org/markets.csv" {
		t.Fatalf("url: rows=%d err=%v url=%q", len(rows), err, f.url)
	}

	boom := errors.New("boom")
	if _, err := csvload.Load(ctx, "http://example.org/x.csv", &fakeFetcher{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("want wrapped fetch error, got %v", err)
	}
	if _, err := csvload.Load(ctx, filepath.Join(t.TempDir(), "missing.csv"), nil); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want ErrNotExist, got %v", err)
	}
}
