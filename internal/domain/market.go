package domain

// Market is one catalog row. Immutable after load.
type Market struct {
	ID       int64
	Name     string
	City     string
	State    string
	Zip      string
	Lat, Lon *float64 // nil when the source value is missing or invalid

	// case-folded copies used for matching and ordering
	NameNorm  string
	CityNorm  string
	StateNorm string
	ZipNorm   string
}

// HasCoords reports whether both coordinates are known.
func (m Market) HasCoords() bool { return m.Lat != nil && m.Lon != nil }

// RawRow is what a record loader hands to the store; every field is still text.
type RawRow struct {
	Line  int
	ID    string
	Name  string
	City  string
	State string
	Zip   string
	Lon   string
	Lat   string
}

type Coords struct{ Lat, Lon float64 }

// RatingStat is derived from reviews; Avg is nil when the market has none.
type RatingStat struct {
	Count int      `json:"count"`
	Avg   *float64 `json:"avg,omitempty"`
}

// Read models

type MarketItem struct {
	Market
	Rating   RatingStat
	Distance *float64 // km; nil without a center or without coordinates
}

type MarketsPage struct {
	Items []MarketItem
	Total int
	Page  int
	Size  int
}

type MarketView struct {
	Market Market     `json:"market"`
	Rating RatingStat `json:"rating"`
}

type ReviewsView struct {
	Market  Market     `json:"market"`
	Rating  RatingStat `json:"rating"`
	Reviews []Review   `json:"reviews"`
}
