package domain

import "time"

// CoverageStatus is the editorial completeness flag of a country's dataset.
type CoverageStatus string

const (
	CoverageAvailable  CoverageStatus = "available"
	CoverageInProgress CoverageStatus = "in_progress"
	CoveragePlanned    CoverageStatus = "planned"
)

// Party identifies the main party holding power.
type Party struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	Abbr *string `json:"abbr"`
}

// PowerRecord is one row of the ruling-by-year dataset: who held power in a
// country during a given year. Years without a row have no record at all.
type PowerRecord struct {
	Year        int
	CountryISO3 string
	LeaderName  *string
	Party       *Party // nil when the record names no party
	Coalition   *string
	Confidence  *string
	SourceID    *int64
}

// PartyID returns the party id or nil when the record has no party.
func (r PowerRecord) PartyID() *int64 {
	if r.Party == nil {
		return nil
	}
	id := r.Party.ID
	return &id
}

// Segment is a contiguous year range sharing one power signature. Descriptive
// fields come from the first year of the run.
type Segment struct {
	StartYear  int
	EndYear    int
	LeaderName *string
	Party      *Party
	Coalition  *string
	Confidence *string
	SourceID   *int64
}

// Country is a row of the reference country table, with its name already
// resolved for the requested language.
type Country struct {
	ISO3           string         `json:"iso3"`
	Name           string         `json:"name"`
	Continent      string         `json:"continent"`
	CoverageStatus CoverageStatus `json:"coverage_status"`
}

// CountryEvent is a dated political event attached to a country-year.
type CountryEvent struct {
	ID          int64      `json:"id"`
	CountryISO3 string     `json:"country_iso3"`
	Year        int        `json:"year"`
	EventType   string     `json:"event_type"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	EventDate   *time.Time `json:"event_date"`
	SourceID    *int64     `json:"source_id"`
}

// Article is an editorial article, optionally tied to a country and year.
type Article struct {
	ID          int64      `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Lang        string     `json:"lang"`
	CountryISO3 *string    `json:"country_iso3"`
	Year        *int       `json:"year"`
	Tags        []string   `json:"tags"`
	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Group is a named set of countries (a regional bloc or organisation).
type Group struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CoverageCounts aggregates countries per coverage status.
type CoverageCounts struct {
	Available  int `json:"available"`
	InProgress int `json:"in_progress"`
	Planned    int `json:"planned"`
}
