package app

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"farmers_markets/internal/domain"
	"farmers_markets/internal/geo"
)

type SortKey string

const (
	SortName     SortKey = "name"
	SortCity     SortKey = "city"
	SortState    SortKey = "state"
	SortRating   SortKey = "rating"
	SortDistance SortKey = "distance"
)

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Criteria describes a list/search request. Nil fields are absent.
type Criteria struct {
	City, State, Zip *string
	Name             *string // substring
	Center           *domain.Coords
	RadiusKm         *float64 // ignored without Center
	Sort             SortKey  // empty means name
	Order            Order    // empty means asc
	Page, Size       *int
}

// ParseSortKey accepts the sort names case-insensitively; empty means name.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortName, nil
	case SortName, SortCity, SortState, SortRating, SortDistance:
		return k, nil
	default:
		return "", fmt.Errorf("%q: %w", s, domain.ErrInvalidSortKey)
	}
}

func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return Asc, nil
	case Asc, Desc:
		return o, nil
	default:
		return "", fmt.Errorf("order %q: %w", s, domain.ErrInvalidSortKey)
	}
}

// ParseCenter parses "lat,lon" in degrees.
func ParseCenter(s string) (domain.Coords, error) {
	latS, lonS, ok := strings.Cut(s, ",")
	if !ok {
		return domain.Coords{}, fmt.Errorf("center %q: %w", s, domain.ErrInvalidCoordinate)
	}
	lat, err1 := strconv.ParseFloat(strings.TrimSpace(latS), 64)
	lon, err2 := strconv.ParseFloat(strings.TrimSpace(lonS), 64)
	if err1 != nil || err2 != nil || !geo.Valid(lat, lon) {
		return domain.Coords{}, fmt.Errorf("center %q: %w", s, domain.ErrInvalidCoordinate)
	}
	return domain.Coords{Lat: lat, Lon: lon}, nil
}

// plan is a validated Criteria with defaults applied.
type plan struct {
	Criteria
	sort       SortKey
	desc       bool
	page, size int
}

func (s *QueryService) plan(c Criteria) (plan, error) {
	p := plan{Criteria: c, page: 1, size: s.defaultSize}

	var err error
	if p.sort, err = ParseSortKey(string(c.Sort)); err != nil {
		return plan{}, err
	}
	order, err := ParseOrder(string(c.Order))
	if err != nil {
		return plan{}, err
	}
	p.desc = order == Desc

	if c.Page != nil {
		if *c.Page <= 0 {
			return plan{}, fmt.Errorf("page %d: %w", *c.Page, domain.ErrInvalidPage)
		}
		p.page = *c.Page
	}
	if c.Size != nil {
		if *c.Size <= 0 {
			return plan{}, fmt.Errorf("size %d: %w", *c.Size, domain.ErrInvalidSize)
		}
		p.size = min(*c.Size, s.maxSize)
	}

	if c.Center != nil && !geo.Valid(c.Center.Lat, c.Center.Lon) {
		return plan{}, fmt.Errorf("center %v,%v: %w", c.Center.Lat, c.Center.Lon, domain.ErrInvalidCoordinate)
	}
	if c.RadiusKm != nil && (*c.RadiusKm < 0 || math.IsNaN(*c.RadiusKm)) {
		return plan{}, fmt.Errorf("radius %v: %w", *c.RadiusKm, domain.ErrInvalidRadius)
	}
	if p.sort == SortDistance && c.Center == nil {
		return plan{}, domain.ErrMissingCenter
	}
	return p, nil
}
