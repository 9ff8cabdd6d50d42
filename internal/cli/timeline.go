package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/whogoverns/api/internal/config"
	"github.com/whogoverns/api/internal/domain"
	"github.com/whogoverns/api/internal/service"
	"github.com/whogoverns/api/internal/storage"
)

type timelineJSON struct {
	Country  domain.Country           `json:"country"`
	Range    service.Range            `json:"range"`
	Key      string                   `json:"key"`
	Segments []service.SummarySegment `json:"segments"`
	Years    []timelineYearJSON       `json:"years,omitempty"`
}

type timelineYearJSON struct {
	Year       int           `json:"year"`
	LeaderName *string       `json:"leader_name"`
	MainParty  *domain.Party `json:"main_party"`
	Coalition  *string       `json:"coalition"`
}

// Execute implements the go-flags Commander interface for TimelineCommand.
func (c *TimelineCommand) Execute(args []string) error {
	if c.ISO3 == "" {
		return errors.New("--iso3 is required")
	}

	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	store, db, err := openStore(context.Background(), cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(context.Background(), store, cfg.Dataset)
}

// executeWithStore prints the timeline read from a provided store (for testing).
func (c *TimelineCommand) executeWithStore(ctx context.Context, store storage.Store, dataset config.DatasetConfig) error {
	iso3, from, to, err := c.resolve(dataset)
	if err != nil {
		return err
	}
	lang := c.Lang
	if lang == "" {
		lang = domain.LangEN
	}

	var (
		country *domain.Country
		records []domain.PowerRecord
	)
	err = store.ReadSession(ctx, func(q storage.Session) error {
		var err error
		if country, err = q.GetCountry(ctx, iso3, lang); err != nil {
			return err
		}
		records, err = q.ListPower(ctx, iso3, from, to)
		return err
	})
	if err != nil {
		return err
	}

	key, same := service.KeyPartyCoalition, domain.SamePartyCoalition
	if c.Leader {
		key, same = service.KeyPartyCoalitionLeader, domain.SamePartyCoalitionLeader
	}
	segments := domain.Compress(records, same)

	out := timelineJSON{
		Country:  *country,
		Range:    service.Range{From: from, To: to},
		Key:      key,
		Segments: make([]service.SummarySegment, 0, len(segments)),
	}
	for _, s := range segments {
		out.Segments = append(out.Segments, service.SummarySegment{
			StartYear:  s.StartYear,
			EndYear:    s.EndYear,
			LeaderName: s.LeaderName,
			MainParty:  s.Party,
			Coalition:  s.Coalition,
			Confidence: s.Confidence,
			SourceID:   s.SourceID,
		})
	}
	if c.Years {
		for _, r := range domain.Expand(segments, iso3) {
			out.Years = append(out.Years, timelineYearJSON{
				Year:       r.Year,
				LeaderName: r.LeaderName,
				MainParty:  r.Party,
				Coalition:  r.Coalition,
			})
		}
	}

	if isJSON(c.globals) {
		return printJSON(out)
	}
	return c.printTimelineHuman(out)
}

// resolve normalizes the country code and applies the dataset window to
// unset bounds.
func (c *TimelineCommand) resolve(dataset config.DatasetConfig) (string, int, int, error) {
	iso3, err := normalizeISO3(c.ISO3)
	if err != nil {
		return "", 0, 0, err
	}
	from, to := dataset.MinYear, dataset.MaxYear
	if c.From != 0 {
		from = c.From
	}
	if c.To != 0 {
		to = c.To
	}
	if from > to {
		return "", 0, 0, fmt.Errorf("--from %d is after --to %d", from, to)
	}
	return iso3, from, to, nil
}

func (c *TimelineCommand) printTimelineHuman(out timelineJSON) error {
	fmt.Printf("%s (%s) %d-%d, key %s\n", out.Country.Name, out.Country.ISO3, out.Range.From, out.Range.To, out.Key)

	if c.Years {
		if len(out.Years) == 0 {
			fmt.Println("No power records in range.")
			return nil
		}
		for _, y := range out.Years {
			fmt.Printf("  %d       %-36s %-12s %s\n", y.Year, partyLabel(y.MainParty), orDash(y.Coalition), orDash(y.LeaderName))
		}
		return nil
	}

	if len(out.Segments) == 0 {
		fmt.Println("No power records in range.")
		return nil
	}
	for _, s := range out.Segments {
		fmt.Printf("  %d-%d  %-36s %-12s %s\n", s.StartYear, s.EndYear, partyLabel(s.MainParty), orDash(s.Coalition), orDash(s.LeaderName))
	}
	return nil
}
