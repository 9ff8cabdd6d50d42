// Package service assembles API responses from store reads and compressed
// power segments. Parameters are expected to be validated by the caller.
package service

import (
	"context"
	"time"

	"github.com/whogoverns/api/internal/config"
	"github.com/whogoverns/api/internal/domain"
	"github.com/whogoverns/api/internal/observability"
	"github.com/whogoverns/api/internal/storage"
)

// Equality key labels, used for the segments metric.
const (
	KeyPartyCoalition       = "party_coalition"
	KeyPartyCoalitionLeader = "party_coalition_leader"
)

const pingTimeout = 2 * time.Second

// Service answers the read endpoints. It holds no per-request state.
type Service struct {
	store   storage.Store
	dataset config.DatasetConfig
	metrics *observability.Metrics
}

// New creates a Service. metrics may be nil.
func New(store storage.Store, dataset config.DatasetConfig, metrics *observability.Metrics) *Service {
	return &Service{store: store, dataset: dataset, metrics: metrics}
}

type MapParams struct {
	Year        int
	Lang        string
	Continent   string
	Group       string
	CoveredOnly bool
}

type TimelineParams struct {
	ISO3         string
	From         int
	To           int
	Lang         string
	IncludeYears bool
}

type DetailParams struct {
	ISO3 string
	Year int
	From int
	To   int
	Lang string
}

type SummaryParams struct {
	ISO3          string
	Year          int
	From          int
	To            int
	Lang          string
	EventsLimit   int
	ArticlesLimit int
}

type EventsParams struct {
	ISO3  string
	Year  int
	Types []string // empty: every political type
	Limit int
}

type ArticlesParams struct {
	Lang  string
	ISO3  string
	Year  *int
	Limit int
}

// Map returns every country matching the filters with its power for p.Year.
func (s *Service) Map(ctx context.Context, p MapParams) (*MapResponse, error) {
	var rows []storage.MapRow
	err := s.store.ReadSession(ctx, func(q storage.Session) error {
		var err error
		rows, err = q.MapSnapshot(ctx, storage.MapQuery{
			Year:        p.Year,
			Lang:        p.Lang,
			Continent:   p.Continent,
			Group:       p.Group,
			CoveredOnly: p.CoveredOnly,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := &MapResponse{
		Year: p.Year,
		Meta: MapMeta{
			Lang: p.Lang,
			Filters: MapFilters{
				Continent:   optional(p.Continent),
				Group:       optional(p.Group),
				CoveredOnly: p.CoveredOnly,
			},
		},
		Countries: make(map[string]MapEntry, len(rows)),
	}

	for _, row := range rows {
		if row.Country.CoverageStatus == domain.CoverageAvailable {
			resp.Meta.Counts.Available++
		}
		if row.Party != nil {
			resp.Meta.Counts.WithData++
		}
		resp.Countries[row.Country.ISO3] = MapEntry{
			Country: MapCountry{
				Name:           row.Country.Name,
				Continent:      row.Country.Continent,
				CoverageStatus: row.Country.CoverageStatus,
			},
			Power: Power{
				MainParty:  row.Party,
				Coalition:  row.Coalition,
				Confidence: row.Confidence,
				SourceID:   row.SourceID,
			},
		}
	}
	resp.Meta.Counts.CountriesReturned = len(rows)

	return resp, nil
}

// Timeline compresses a country's records on party and coalition.
func (s *Service) Timeline(ctx context.Context, p TimelineParams) (*TimelineResponse, error) {
	var (
		country *domain.Country
		records []domain.PowerRecord
	)
	err := s.store.ReadSession(ctx, func(q storage.Session) error {
		var err error
		if country, err = q.GetCountry(ctx, p.ISO3, p.Lang); err != nil {
			return err
		}
		records, err = q.ListPower(ctx, p.ISO3, p.From, p.To)
		return err
	})
	if err != nil {
		return nil, err
	}

	segments := domain.Compress(records, domain.SamePartyCoalition)
	s.countSegments(KeyPartyCoalition, len(segments))

	resp := &TimelineResponse{
		Country:  *country,
		Range:    Range{From: p.From, To: p.To},
		Segments: make([]TimelineSegment, 0, len(segments)),
	}
	for _, seg := range segments {
		resp.Segments = append(resp.Segments, TimelineSegment{
			StartYear:  seg.StartYear,
			EndYear:    seg.EndYear,
			MainParty:  seg.Party,
			Coalition:  seg.Coalition,
			Confidence: seg.Confidence,
			SourceID:   seg.SourceID,
		})
	}

	if p.IncludeYears {
		resp.Years = make([]TimelineYear, 0, len(records))
		for _, r := range records {
			resp.Years = append(resp.Years, TimelineYear{
				Year:       r.Year,
				PartyID:    r.PartyID(),
				Party:      r.Party,
				Coalition:  r.Coalition,
				Confidence: r.Confidence,
				SourceID:   r.SourceID,
			})
		}
	}

	return resp, nil
}

// CountryDetail returns the uncompressed year-to-power mapping of a range
// and the power of the selected year, if any.
func (s *Service) CountryDetail(ctx context.Context, p DetailParams) (*DetailResponse, error) {
	var (
		country *domain.Country
		records []domain.PowerRecord
	)
	err := s.store.ReadSession(ctx, func(q storage.Session) error {
		var err error
		if country, err = q.GetCountry(ctx, p.ISO3, p.Lang); err != nil {
			return err
		}
		records, err = q.ListPower(ctx, p.ISO3, p.From, p.To)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := &DetailResponse{
		Country:      *country,
		Range:        Range{From: p.From, To: p.To},
		SelectedYear: p.Year,
		ByYear:       make(map[int]YearPower, len(records)),
	}
	for _, r := range records {
		resp.ByYear[r.Year] = yearPower(r)
	}
	// The selected year comes from the range; a year outside it reports null.
	if sel, ok := resp.ByYear[p.Year]; ok {
		resp.Selected = &sel
	}

	return resp, nil
}

// CountrySummary merges the selected year's power, a leader-aware timeline,
// the year's political events and matching articles. All reads share one
// session; any failure discards the whole payload.
func (s *Service) CountrySummary(ctx context.Context, p SummaryParams) (*SummaryResponse, error) {
	var (
		country  *domain.Country
		selected *domain.PowerRecord
		records  []domain.PowerRecord
		events   []domain.CountryEvent
		articles []domain.Article
	)
	err := s.store.ReadSession(ctx, func(q storage.Session) error {
		var err error
		if country, err = q.GetCountry(ctx, p.ISO3, p.Lang); err != nil {
			return err
		}
		if selected, err = q.GetPower(ctx, p.ISO3, p.Year); err != nil {
			return err
		}
		if records, err = q.ListPower(ctx, p.ISO3, p.From, p.To); err != nil {
			return err
		}
		if events, err = q.ListEvents(ctx, storage.EventQuery{
			ISO3:  p.ISO3,
			Year:  p.Year,
			Types: domain.PoliticalEventTypes(),
			Limit: p.EventsLimit,
		}); err != nil {
			return err
		}
		year := p.Year
		articles, err = q.ListArticles(ctx, storage.ArticleQuery{
			Lang:  p.Lang,
			ISO3:  p.ISO3,
			Year:  &year,
			Limit: p.ArticlesLimit,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	segments := domain.Compress(records, domain.SamePartyCoalitionLeader)
	s.countSegments(KeyPartyCoalitionLeader, len(segments))

	resp := &SummaryResponse{
		Country:      *country,
		SelectedYear: p.Year,
		Timeline: SummaryTimeline{
			Range:    Range{From: p.From, To: p.To},
			Segments: make([]SummarySegment, 0, len(segments)),
		},
		Events:   EventList{Count: len(events), Events: events},
		Articles: ArticleList{Count: len(articles), Articles: articles},
	}
	if selected != nil {
		resp.Selected = &SelectedPower{
			LeaderName: selected.LeaderName,
			Year:       selected.Year,
			MainParty:  selected.Party,
			Coalition:  selected.Coalition,
			Confidence: selected.Confidence,
			SourceID:   selected.SourceID,
		}
	}
	for _, seg := range segments {
		resp.Timeline.Segments = append(resp.Timeline.Segments, SummarySegment{
			StartYear:  seg.StartYear,
			EndYear:    seg.EndYear,
			LeaderName: seg.LeaderName,
			MainParty:  seg.Party,
			Coalition:  seg.Coalition,
			Confidence: seg.Confidence,
			SourceID:   seg.SourceID,
		})
	}

	return resp, nil
}

// Events lists the political events of a country-year.
func (s *Service) Events(ctx context.Context, p EventsParams) (*EventsResponse, error) {
	types := p.Types
	if len(types) == 0 {
		types = domain.PoliticalEventTypes()
	}

	var events []domain.CountryEvent
	err := s.store.ReadSession(ctx, func(q storage.Session) error {
		exists, err := q.CountryExists(ctx, p.ISO3)
		if err != nil {
			return err
		}
		if !exists {
			return domain.UnknownCountry(p.ISO3)
		}
		events, err = q.ListEvents(ctx, storage.EventQuery{
			ISO3:  p.ISO3,
			Year:  p.Year,
			Types: types,
			Limit: p.Limit,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &EventsResponse{
		ISO3:       p.ISO3,
		Year:       p.Year,
		EventTypes: domain.PoliticalEventTypes(),
		Count:      len(events),
		Events:     events,
	}, nil
}

// Articles lists articles in one language, newest first.
func (s *Service) Articles(ctx context.Context, p ArticlesParams) (*ArticleList, error) {
	var articles []domain.Article
	err := s.store.ReadSession(ctx, func(q storage.Session) error {
		var err error
		articles, err = q.ListArticles(ctx, storage.ArticleQuery{
			Lang:  p.Lang,
			ISO3:  p.ISO3,
			Year:  p.Year,
			Limit: p.Limit,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &ArticleList{Count: len(articles), Articles: articles}, nil
}

// Metadata returns the catalog the front end needs to build its filters.
func (s *Service) Metadata(ctx context.Context, lang string) (*MetadataResponse, error) {
	var (
		groups   []domain.Group
		coverage domain.CoverageCounts
	)
	err := s.store.ReadSession(ctx, func(q storage.Session) error {
		var err error
		if coverage, err = q.CoverageCounts(ctx); err != nil {
			return err
		}
		groups, err = q.ListGroups(ctx, lang)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &MetadataResponse{
		Years:      YearBounds{Min: s.dataset.MinYear, Max: s.dataset.MaxYear},
		Continents: domain.Continents(),
		Groups:     groups,
		Coverage:   coverage,
	}, nil
}

// DatabaseHealth pings the store and reports degraded instead of failing.
func (s *Service) DatabaseHealth(ctx context.Context) DBHealth {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		return DBHealth{Status: "degraded", DB: "unavailable", Error: err.Error()}
	}
	return DBHealth{Status: "ok", DB: "ok"}
}

func (s *Service) countSegments(key string, n int) {
	if s.metrics == nil {
		return
	}
	s.metrics.SegmentsTotal.WithLabelValues(key).Add(float64(n))
}

func yearPower(r domain.PowerRecord) YearPower {
	return YearPower{
		LeaderName: r.LeaderName,
		MainParty:  r.Party,
		Coalition:  r.Coalition,
		Confidence: r.Confidence,
		SourceID:   r.SourceID,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
