// Package csvload reads the farmers-market catalog CSV into raw rows.
package csvload

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"farmers_markets/internal/domain"
)

// Column names of the USDA farmers-market export.
const (
	ColID    = "FMID"
	ColName  = "MarketName"
	ColCity  = "city"
	ColState = "State"
	ColZip   = "zip"
	ColLon   = "x"
	ColLat   = "y"
)

var required = []string{ColID, ColName, ColCity, ColState, ColZip}

type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Load reads source, which is either a local path or an http(s) URL.
func Load(ctx context.Context, source string, f Fetcher) ([]domain.RawRow, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		if f == nil {
			return nil, fmt.Errorf("no fetcher for %s", source)
		}
		b, err := f.Get(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", source, err)
		}
		return Read(bytes.NewReader(b))
	}

	fh, err := os.Open(source)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return Read(fh)
}

// Read parses CSV with a header row. Row.Line is the 1-based line of the record.
func Read(r io.Reader) ([]domain.RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv: empty input")
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("csv: missing column %q", col)
		}
	}

	get := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []domain.RawRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, domain.RawRow{
			Line:  line,
			ID:    get(rec, ColID),
			Name:  get(rec, ColName),
			City:  get(rec, ColCity),
			State: get(rec, ColState),
			Zip:   get(rec, ColZip),
			Lon:   get(rec, ColLon),
			Lat:   get(rec, ColLat),
		})
	}
	return rows, nil
}
