// Package store holds the in-memory market catalog and review collection.
package store

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"farmers_markets/internal/domain"
)

type SkipReason string

const (
	SkipBadID       SkipReason = "non-numeric id"
	SkipDuplicateID SkipReason = "duplicate id"
)

// ParsedRow is either a valid market (Skip == "") or a skipped row with its reason.
type ParsedRow struct {
	Line   int
	Market domain.Market
	Skip   SkipReason
}

func (p ParsedRow) OK() bool { return p.Skip == "" }

type LoadReport struct {
	Loaded  int
	Skipped int
	Reasons map[SkipReason]int
}

// ParseRow turns a raw loader row into a market. Bad coordinates do not
// reject the row; they are recorded as missing.
func ParseRow(r domain.RawRow) ParsedRow {
	id, err := strconv.ParseInt(strings.TrimSpace(r.ID), 10, 64)
	if err != nil {
		return ParsedRow{Line: r.Line, Skip: SkipBadID}
	}
	m := domain.Market{
		ID:    id,
		Name:  strings.TrimSpace(r.Name),
		City:  strings.TrimSpace(r.City),
		State: strings.TrimSpace(r.State),
		Zip:   strings.TrimSpace(r.Zip),
		Lat:   parseCoord(r.Lat, 90),
		Lon:   parseCoord(r.Lon, 180),
	}
	m.NameNorm = Norm(m.Name)
	m.CityNorm = Norm(m.City)
	m.StateNorm = Norm(m.State)
	m.ZipNorm = Norm(m.Zip)
	return ParsedRow{Line: r.Line, Market: m}
}

func parseCoord(s string, limit float64) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > limit {
		return nil
	}
	return &f
}

// Records is the immutable market catalog.
type Records struct {
	items []domain.Market
	byID  map[int64]int
}

// LoadRecords builds the catalog. Rows with a bad or repeated id are skipped
// (first occurrence wins) and counted in the report.
func LoadRecords(rows []domain.RawRow) (*Records, LoadReport) {
	rs := &Records{
		items: make([]domain.Market, 0, len(rows)),
		byID:  make(map[int64]int, len(rows)),
	}
	rep := LoadReport{Reasons: map[SkipReason]int{}}

	for _, raw := range rows {
		p := ParseRow(raw)
		if p.OK() {
			if _, dup := rs.byID[p.Market.ID]; dup {
				p.Skip = SkipDuplicateID
			}
		}
		if !p.OK() {
			rep.Skipped++
			rep.Reasons[p.Skip]++
			log.Debug().Int("line", p.Line).Str("id", raw.ID).Str("reason", string(p.Skip)).Msg("market row skipped")
			continue
		}
		rs.byID[p.Market.ID] = len(rs.items)
		rs.items = append(rs.items, p.Market)
		rep.Loaded++
	}
	if rep.Skipped > 0 {
		log.Warn().Int("skipped", rep.Skipped).Int("loaded", rep.Loaded).Msg("market rows skipped during load")
	}
	return rs, rep
}

func (r *Records) Len() int { return len(r.items) }

func (r *Records) Get(id int64) (domain.Market, error) {
	i, ok := r.byID[id]
	if !ok {
		return domain.Market{}, fmt.Errorf("market %d: %w", id, domain.ErrNotFound)
	}
	return r.items[i], nil
}

// All yields markets in load order. Each call starts over.
func (r *Records) All() iter.Seq[domain.Market] {
	return func(yield func(domain.Market) bool) {
		for _, m := range r.items {
			if !yield(m) {
				return
			}
		}
	}
}

func (r *Records) FindByCity(q string) []domain.Market  { return r.collect(CityIs(q)) }
func (r *Records) FindByState(q string) []domain.Market { return r.collect(StateIs(q)) }
func (r *Records) FindByZip(q string) []domain.Market   { return r.collect(ZipIs(q)) }
func (r *Records) FindByName(q string) []domain.Market  { return r.collect(NameContains(q)) }

func (r *Records) collect(keep func(domain.Market) bool) []domain.Market {
	out := []domain.Market{}
	for m := range r.All() {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// Predicates shared by the Find* helpers and the query pipeline.

func CityIs(q string) func(domain.Market) bool {
	n := Norm(q)
	return func(m domain.Market) bool { return m.CityNorm == n }
}

func StateIs(q string) func(domain.Market) bool {
	n := Norm(q)
	return func(m domain.Market) bool { return m.StateNorm == n }
}

func ZipIs(q string) func(domain.Market) bool {
	n := Norm(q)
	return func(m domain.Market) bool { return m.ZipNorm == n }
}

func NameContains(q string) func(domain.Market) bool {
	n := Norm(q)
	return func(m domain.Market) bool { return strings.Contains(m.NameNorm, n) }
}
