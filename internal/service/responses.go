package service

import "github.com/whogoverns/api/internal/domain"

// Range is an inclusive year window.
type Range struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Power is the power-holding state of one country-year as the map shows it.
type Power struct {
	MainParty  *domain.Party `json:"main_party"`
	Coalition  *string       `json:"coalition"`
	Confidence *string       `json:"confidence"`
	SourceID   *int64        `json:"source_id"`
}

// YearPower adds the leader to Power; it is the value type of by_year.
type YearPower struct {
	LeaderName *string       `json:"leader_name"`
	MainParty  *domain.Party `json:"main_party"`
	Coalition  *string       `json:"coalition"`
	Confidence *string       `json:"confidence"`
	SourceID   *int64        `json:"source_id"`
}

// SelectedPower is the summary's point lookup; unlike the detail view it
// carries its year.
type SelectedPower struct {
	LeaderName *string       `json:"leader_name"`
	Year       int           `json:"year"`
	MainParty  *domain.Party `json:"main_party"`
	Coalition  *string       `json:"coalition"`
	Confidence *string       `json:"confidence"`
	SourceID   *int64        `json:"source_id"`
}

// MapResponse is the per-country snapshot of one year.
type MapResponse struct {
	Year      int                 `json:"year"`
	Meta      MapMeta             `json:"meta"`
	Countries map[string]MapEntry `json:"countries"`
}

type MapMeta struct {
	Lang    string     `json:"lang"`
	Filters MapFilters `json:"filters"`
	Counts  MapCounts  `json:"counts"`
}

// MapFilters echoes the filters applied; absent filters encode as null.
type MapFilters struct {
	Continent   *string `json:"continent"`
	Group       *string `json:"group"`
	CoveredOnly bool    `json:"covered_only"`
}

type MapCounts struct {
	CountriesReturned int `json:"countries_returned"`
	Available         int `json:"available"`
	WithData          int `json:"with_data"`
}

type MapEntry struct {
	Country MapCountry `json:"country"`
	Power   Power      `json:"power"`
}

type MapCountry struct {
	Name           string                `json:"name"`
	Continent      string                `json:"continent"`
	CoverageStatus domain.CoverageStatus `json:"coverage_status"`
}

// TimelineSegment is a segment of the timeline view. The leader is not part
// of the timeline's equality key and is not reported.
type TimelineSegment struct {
	StartYear  int           `json:"start_year"`
	EndYear    int           `json:"end_year"`
	MainParty  *domain.Party `json:"main_party"`
	Coalition  *string       `json:"coalition"`
	Confidence *string       `json:"confidence"`
	SourceID   *int64        `json:"source_id"`
}

// TimelineYear is one raw, uncompressed record of the timeline view.
type TimelineYear struct {
	Year       int           `json:"year"`
	PartyID    *int64        `json:"party_id"`
	Party      *domain.Party `json:"party"`
	Coalition  *string       `json:"coalition"`
	Confidence *string       `json:"confidence"`
	SourceID   *int64        `json:"source_id"`
}

type TimelineResponse struct {
	Country  domain.Country    `json:"country"`
	Range    Range             `json:"range"`
	Segments []TimelineSegment `json:"segments"`
	// Years is nil unless requested; a requested but empty list encodes as [].
	Years []TimelineYear `json:"years,omitzero"`
}

type DetailResponse struct {
	Country      domain.Country    `json:"country"`
	Range        Range             `json:"range"`
	SelectedYear int               `json:"selected_year"`
	Selected     *YearPower        `json:"selected"`
	ByYear       map[int]YearPower `json:"by_year"`
}

// SummarySegment is a segment of the summary view, split on leader changes.
type SummarySegment struct {
	StartYear  int           `json:"start_year"`
	EndYear    int           `json:"end_year"`
	LeaderName *string       `json:"leader_name"`
	MainParty  *domain.Party `json:"main_party"`
	Coalition  *string       `json:"coalition"`
	Confidence *string       `json:"confidence"`
	SourceID   *int64        `json:"source_id"`
}

type SummaryTimeline struct {
	Range    Range            `json:"range"`
	Segments []SummarySegment `json:"segments"`
}

type SummaryResponse struct {
	Country      domain.Country  `json:"country"`
	SelectedYear int             `json:"selected_year"`
	Selected     *SelectedPower  `json:"selected"`
	Timeline     SummaryTimeline `json:"timeline"`
	Events       EventList       `json:"events"`
	Articles     ArticleList     `json:"articles"`
}

type EventList struct {
	Count  int                   `json:"count"`
	Events []domain.CountryEvent `json:"events"`
}

type ArticleList struct {
	Count    int              `json:"count"`
	Articles []domain.Article `json:"articles"`
}

// EventsResponse echoes the request and the full political allow-list.
type EventsResponse struct {
	ISO3       string                `json:"iso3"`
	Year       int                   `json:"year"`
	EventTypes []string              `json:"event_types"`
	Count      int                   `json:"count"`
	Events     []domain.CountryEvent `json:"events"`
}

type YearBounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type MetadataResponse struct {
	Years      YearBounds            `json:"years"`
	Continents []domain.Continent    `json:"continents"`
	Groups     []domain.Group        `json:"groups"`
	Coverage   domain.CoverageCounts `json:"coverage"`
}

// DBHealth is the liveness probe result. It never represents a failure of
// the probe itself.
type DBHealth struct {
	Status string `json:"status"`
	DB     string `json:"db"`
	Error  string `json:"error,omitempty"`
}
