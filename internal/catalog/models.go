package catalog

import (
	"strings"
	"time"
)

// Method identifies which matching tier produced an assignment.
type Method string

const (
	MethodExact      Method = "exact"
	MethodNormalized Method = "norm_exact"
	MethodSubstring  Method = "like_unique"
)

// Score constants per matching tier. Passes run in decreasing score order so
// a weaker tier never gets a chance to touch a row a stronger tier resolved.
const (
	ScoreExact      = 1.0
	ScoreNormalized = 0.95
	ScoreSubstring  = 0.7
)

// Product is one GOG catalog entry, keyed by gog_id.
type Product struct {
	GOGID           int64
	Title           string
	Type            string
	Slug            string
	RawJSON         string
	NormalizedTitle string
}

// IsGame reports whether a product is eligible for matching. An absent type
// counts as a game.
func (p Product) IsGame() bool {
	return p.Type == "" || strings.EqualFold(p.Type, "game")
}

// PriceObservation is the latest observed price for a product in one
// region/currency. Marker rows (unrecognized descriptor shapes) have empty
// country and currency and nil price fields.
type PriceObservation struct {
	GOGID       int64
	Country     string
	Currency    string
	BasePrice   *float64
	FinalPrice  *float64
	DiscountPct *float64
	RawJSON     string
}

// LibraryGame is one exported Steam library entry, keyed by appid.
type LibraryGame struct {
	AppID              int64
	Name               string
	PlaytimeForeverMin int64
	Playtime2WeeksMin  int64
	LastUpdated        time.Time
}

// Assignment is the reconciliation output row for one library game.
type Assignment struct {
	AppID     int64
	GOGID     *int64
	Title     string
	Matched   bool
	Method    Method
	Score     *float64
	UpdatedAt time.Time
}

// IngestStats summarizes one dump ingestion run.
type IngestStats struct {
	ProductsUpserted int
	PricesUpserted   int
	SkippedProducts  int
}
