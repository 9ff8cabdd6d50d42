// Package storagetest provides an in-memory SQLite store loaded with a small,
// fixed political dataset for tests in other packages.
package storagetest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/whogoverns/api/internal/storage"
)

// OpenSeeded returns a migrated in-memory store populated by Seed.
func OpenSeeded(t testing.TB) (*storage.SQLStore, *sql.DB) {
	t.Helper()
	store, db := OpenEmpty(t)
	Seed(t, db)
	return store, db
}

// OpenEmpty returns a migrated in-memory store with only the default groups.
func OpenEmpty(t testing.TB) (*storage.SQLStore, *sql.DB) {
	t.Helper()
	store, db, err := storage.OpenStore(context.Background(), storage.DialectSQLite,
		":memory:?_foreign_keys=on", storage.PoolOptions{})
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close()
		db.Close()
	})
	return store, db
}

// Seed loads the fixture dataset:
//
//	FRA  France / France           EU  available    EU, OECD
//	DEU  Germany / Allemagne       EU  available    EU, OECD
//	USA  United States / États-Unis NA in_progress  OECD
//	BRA  Brazil / (no French name) SA  planned
//	JPN  Japan / Japon             AS  available    OECD
//
// FRA power: 2012-2016 PS (Hollande), 2017-2020 RE (Macron), no 2021,
// 2022 RE (Macron, coalition "Ensemble"). Confidence changes in 2019.
// DEU power: 2019-2020 CDU Merkel, 2021 CDU Laschet, all coalition "GroKo".
// USA power: 2020 with no party. BRA and JPN have no power rows.
func Seed(t testing.TB, db *sql.DB) {
	t.Helper()

	exec := func(query string, args ...any) {
		t.Helper()
		_, err := db.Exec(query, args...)
		require.NoError(t, err, query)
	}

	countries := []struct {
		iso3, nameEN string
		nameFR       any
		continent    string
		status       string
	}{
		{"FRA", "France", "France", "EU", "available"},
		{"DEU", "Germany", "Allemagne", "EU", "available"},
		{"USA", "United States", "États-Unis", "NA", "in_progress"},
		{"BRA", "Brazil", nil, "SA", "planned"},
		{"JPN", "Japan", "Japon", "AS", "available"},
	}
	for _, c := range countries {
		exec(`INSERT INTO countries (iso3, name_en, name_fr, continent, coverage_status) VALUES ($1, $2, $3, $4, $5)`,
			c.iso3, c.nameEN, c.nameFR, c.continent, c.status)
	}

	members := map[int64][]string{
		1: {"FRA", "DEU"},
		2: {"FRA", "DEU", "USA", "JPN"},
	}
	for group, isos := range members {
		for _, iso3 := range isos {
			exec(`INSERT INTO country_group_members (group_id, country_iso3) VALUES ($1, $2)`, group, iso3)
		}
	}

	parties := []struct {
		id   int64
		name string
		abbr any
	}{
		{1, "Parti socialiste", "PS"},
		{2, "Renaissance", "RE"},
		{3, "Christlich Demokratische Union", "CDU"},
	}
	for _, p := range parties {
		exec(`INSERT INTO parties (id, name, abbreviation) VALUES ($1, $2, $3)`, p.id, p.name, p.abbr)
	}

	type power struct {
		iso3       string
		year       int
		party      any
		leader     any
		coalition  any
		confidence any
		source     any
	}
	var rows []power
	for y := 2012; y <= 2016; y++ {
		rows = append(rows, power{"FRA", y, 1, "François Hollande", nil, "high", 10})
	}
	for y := 2017; y <= 2020; y++ {
		conf := "high"
		if y >= 2019 {
			conf = "medium"
		}
		rows = append(rows, power{"FRA", y, 2, "Emmanuel Macron", nil, conf, 11})
	}
	rows = append(rows,
		power{"FRA", 2022, 2, "Emmanuel Macron", "Ensemble", "high", 12},
		power{"DEU", 2019, 3, "Angela Merkel", "GroKo", "high", 20},
		power{"DEU", 2020, 3, "Angela Merkel", "GroKo", "high", 20},
		power{"DEU", 2021, 3, "Armin Laschet", "GroKo", "low", 21},
		power{"USA", 2020, nil, "Donald Trump", nil, "low", nil},
	)
	for _, r := range rows {
		exec(`INSERT INTO ruling_by_year (country_iso3, year, main_party_id, leader_name, coalition, confidence, source_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			r.iso3, r.year, r.party, r.leader, r.coalition, r.confidence, r.source)
	}

	events := []struct {
		id        int64
		iso3      string
		year      int
		eventType string
		title     string
		desc      any
		date      any
	}{
		{1, "FRA", 2017, "election", "Presidential election", "Second round", "2017-05-07"},
		{2, "FRA", 2017, "government_change", "Philippe government formed", nil, "2017-05-15"},
		{3, "FRA", 2017, "other_political", "Party refoundation", nil, nil},
		{4, "FRA", 2017, "economic", "Labour law reform", nil, "2017-03-01"},
		{5, "DEU", 2021, "election", "Federal election", nil, "2021-09-26"},
	}
	for _, e := range events {
		exec(`INSERT INTO country_events (id, country_iso3, year, event_type, title, description, event_date, source_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.id, e.iso3, e.year, e.eventType, e.title, e.desc, e.date, 30)
	}

	articles := []struct {
		id        int64
		slug      string
		title     string
		lang      string
		iso3      any
		year      any
		tags      []string
		published any
		created   string
	}{
		{1, "macron-first-term", "Macron's first term", "en", "FRA", 2017, []string{"elections", "france"}, "2017-05-08 10:00:00", "2017-05-08 10:00:00"},
		{2, "macron-premier-mandat", "Le premier mandat", "fr", "FRA", 2017, []string{"élections"}, "2017-05-09 10:00:00", "2017-05-09 10:00:00"},
		{3, "legislative-wave", "A legislative wave", "en", "FRA", 2017, nil, "2017-06-20 09:00:00", "2017-06-20 09:00:00"},
		{4, "german-coalition-talks", "Coalition talks", "en", "DEU", 2021, nil, nil, "2021-10-01 08:00:00"},
		{5, "global-overview", "Who governs the world", "en", nil, nil, []string{"overview"}, "2020-01-01 00:00:00", "2020-01-01 00:00:00"},
	}
	for _, a := range articles {
		tags := a.tags
		if tags == nil {
			tags = []string{}
		}
		exec(`INSERT INTO articles (id, slug, title, lang, country_iso3, year, tags, published_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			a.id, a.slug, a.title, a.lang, a.iso3, a.year, pq.Array(tags), a.published, a.created)
	}
}
