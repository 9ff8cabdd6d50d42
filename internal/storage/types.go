package storage

import "github.com/whogoverns/api/internal/domain"

// Dialect names the SQL backend. The values are the database/sql driver names.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite3"
)

// MapQuery selects every country for one year, optionally narrowed by
// continent, group membership and coverage. All filters AND-combine.
type MapQuery struct {
	Year        int
	Lang        string
	Continent   string // empty: any continent
	Group       string // empty: no group restriction
	CoveredOnly bool
}

// MapRow is one country of a map snapshot. Power fields are nil when the
// country has no record for the requested year.
type MapRow struct {
	Country    domain.Country
	Party      *domain.Party
	Coalition  *string
	Confidence *string
	SourceID   *int64
}

// EventQuery defines filters for country events.
type EventQuery struct {
	ISO3  string
	Year  int
	Types []string // must be non-empty and contain at most maxEventTypes values
	Limit int
}

// ArticleQuery defines filters for articles. Lang is always applied.
type ArticleQuery struct {
	Lang  string
	ISO3  string // empty: any country
	Year  *int   // nil: any year
	Limit int
}
