package storage

import "database/sql"

// migrateV001 creates the tables the API reads: countries, parties, the
// ruling-by-year series, country groups, events and articles. Every statement
// uses IF NOT EXISTS for idempotency. The dataset itself is loaded by a
// separate pipeline; only the default country groups are seeded here.
func migrateV001(tx *sql.Tx, d Dialect) error {
	tagsType := "TEXT[] NOT NULL DEFAULT '{}'"
	if d == DialectSQLite {
		// Stored as a Postgres array literal so pq.Array scans both backends.
		tagsType = "TEXT NOT NULL DEFAULT '{}'"
	}

	stmts := []string{
		// ── Tables ──────────────────────────────────────────────

		`CREATE TABLE IF NOT EXISTS countries (
			iso3            TEXT PRIMARY KEY,
			name_en         TEXT NOT NULL,
			name_fr         TEXT,
			continent       TEXT NOT NULL,
			coverage_status TEXT NOT NULL DEFAULT 'planned'
				CHECK (coverage_status IN ('available', 'in_progress', 'planned'))
		)`,

		`CREATE TABLE IF NOT EXISTS parties (
			id           BIGINT PRIMARY KEY,
			name         TEXT NOT NULL,
			abbreviation TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS ruling_by_year (
			country_iso3  TEXT NOT NULL REFERENCES countries(iso3),
			year          INTEGER NOT NULL,
			main_party_id BIGINT REFERENCES parties(id),
			leader_name   TEXT,
			coalition     TEXT,
			confidence    TEXT,
			source_id     BIGINT,
			PRIMARY KEY (country_iso3, year)
		)`,

		`CREATE TABLE IF NOT EXISTS country_groups (
			id      BIGINT PRIMARY KEY,
			code    TEXT NOT NULL UNIQUE,
			name_en TEXT NOT NULL,
			name_fr TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS country_group_members (
			group_id     BIGINT NOT NULL REFERENCES country_groups(id),
			country_iso3 TEXT NOT NULL REFERENCES countries(iso3),
			PRIMARY KEY (group_id, country_iso3)
		)`,

		`CREATE TABLE IF NOT EXISTS country_events (
			id           BIGINT PRIMARY KEY,
			country_iso3 TEXT NOT NULL REFERENCES countries(iso3),
			year         INTEGER NOT NULL,
			event_type   TEXT NOT NULL,
			title        TEXT NOT NULL,
			description  TEXT,
			event_date   DATE,
			source_id    BIGINT
		)`,

		`CREATE TABLE IF NOT EXISTS articles (
			id           BIGINT PRIMARY KEY,
			slug         TEXT NOT NULL UNIQUE,
			title        TEXT NOT NULL,
			lang         TEXT NOT NULL CHECK (lang IN ('en', 'fr')),
			country_iso3 TEXT REFERENCES countries(iso3),
			year         INTEGER,
			tags         ` + tagsType + `,
			published_at TIMESTAMP,
			created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// ── Indexes ────────────────────────────────────────────

		`CREATE INDEX IF NOT EXISTS idx_countries_continent   ON countries(continent)`,
		`CREATE INDEX IF NOT EXISTS idx_countries_coverage    ON countries(coverage_status)`,
		`CREATE INDEX IF NOT EXISTS idx_ruling_year           ON ruling_by_year(year)`,
		`CREATE INDEX IF NOT EXISTS idx_group_members_country ON country_group_members(country_iso3)`,
		`CREATE INDEX IF NOT EXISTS idx_events_country_year   ON country_events(country_iso3, year)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_lang         ON articles(lang)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_country_year ON articles(country_iso3, year)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return seedDefaultGroups(tx)
}

// seedDefaultGroups inserts the country groups the map filter knows about.
// ON CONFLICT DO NOTHING keeps re-runs safe on both backends.
func seedDefaultGroups(tx *sql.Tx) error {
	type group struct {
		ID     int64
		Code   string
		NameEN string
		NameFR string
	}

	defaults := []group{
		{1, "EU", "European Union", "Union européenne"},
		{2, "OECD", "Organisation for Economic Co-operation and Development", "Organisation de coopération et de développement économiques"},
	}

	const insertSQL = `INSERT INTO country_groups (id, code, name_en, name_fr) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`

	for _, g := range defaults {
		if _, err := tx.Exec(insertSQL, g.ID, g.Code, g.NameEN, g.NameFR); err != nil {
			return err
		}
	}

	return nil
}
