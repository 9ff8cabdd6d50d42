package storage

import (
	"strconv"
	"strings"
)

// Placeholders are numbered in order of first appearance. SQLite treats $N as
// a named parameter indexed by appearance, so the same text binds identically
// on both backends.

const localizedCountryName = `CASE WHEN $1 = 'fr' THEN COALESCE(c.name_fr, c.name_en) ELSE c.name_en END`

const (
	sqlGetCountry = `
		SELECT c.iso3, ` + localizedCountryName + `, c.continent, c.coverage_status
		FROM countries c
		WHERE c.iso3 = $2`

	sqlCountryExists = `SELECT 1 FROM countries WHERE iso3 = $1`

	powerColumns = `
		r.year, r.country_iso3, r.leader_name, r.coalition, r.confidence, r.source_id,
		p.id, p.name, p.abbreviation`

	sqlListPower = `
		SELECT` + powerColumns + `
		FROM ruling_by_year r
		LEFT JOIN parties p ON p.id = r.main_party_id
		WHERE r.country_iso3 = $1
		  AND r.year BETWEEN $2 AND $3
		ORDER BY r.year`

	sqlGetPower = `
		SELECT` + powerColumns + `
		FROM ruling_by_year r
		LEFT JOIN parties p ON p.id = r.main_party_id
		WHERE r.country_iso3 = $1 AND r.year = $2`

	// The type list always has maxEventTypes slots; shorter filters are padded
	// by repeating a value, which leaves the IN semantics unchanged.
	sqlListEvents = `
		SELECT id, country_iso3, year, event_type, title, description, event_date, source_id
		FROM country_events
		WHERE country_iso3 = $1
		  AND year = $2
		  AND event_type IN ($3, $4, $5, $6, $7, $8)
		ORDER BY event_date NULLS LAST, id
		LIMIT $9`

	sqlCoverageCounts = `
		SELECT coverage_status, COUNT(*)
		FROM countries
		GROUP BY coverage_status
		ORDER BY coverage_status`

	sqlListGroups = `
		SELECT g.code, CASE WHEN $1 = 'fr' THEN COALESCE(g.name_fr, g.name_en) ELSE g.name_en END
		FROM country_groups g
		ORDER BY g.code`
)

// maxEventTypes is the number of IN slots in sqlListEvents.
const maxEventTypes = 6

// mapVariant identifies which optional map filters a prepared statement applies.
type mapVariant struct {
	group       bool
	continent   bool
	coveredOnly bool
}

// mapVariants enumerates every combination; one statement is prepared per entry.
var mapVariants = func() []mapVariant {
	var out []mapVariant
	for _, g := range []bool{false, true} {
		for _, c := range []bool{false, true} {
			for _, cov := range []bool{false, true} {
				out = append(out, mapVariant{group: g, continent: c, coveredOnly: cov})
			}
		}
	}
	return out
}()

func variantFor(q MapQuery) mapVariant {
	return mapVariant{
		group:       q.Group != "",
		continent:   q.Continent != "",
		coveredOnly: q.CoveredOnly,
	}
}

// placeholders hands out $N markers in increasing order.
type placeholders struct{ n int }

func (p *placeholders) next() string {
	p.n++
	return "$" + strconv.Itoa(p.n)
}

// buildMapQuery assembles the statement for one variant from constant
// fragments. Arguments bind as: lang, [group], year, [continent].
// The group filter is an inner join, so countries outside the group are
// excluded entirely.
func buildMapQuery(v mapVariant) string {
	ph := &placeholders{}
	var b strings.Builder

	b.WriteString(`
		SELECT c.iso3, CASE WHEN ` + ph.next() + ` = 'fr' THEN COALESCE(c.name_fr, c.name_en) ELSE c.name_en END,
		       c.continent, c.coverage_status,
		       r.coalition, r.confidence, r.source_id,
		       p.id, p.name, p.abbreviation
		FROM countries c`)

	if v.group {
		b.WriteString(`
		JOIN country_group_members gm ON gm.country_iso3 = c.iso3
		JOIN country_groups g ON g.id = gm.group_id AND g.code = ` + ph.next())
	}

	b.WriteString(`
		LEFT JOIN ruling_by_year r ON r.country_iso3 = c.iso3 AND r.year = ` + ph.next() + `
		LEFT JOIN parties p ON p.id = r.main_party_id`)

	var where []string
	if v.continent {
		where = append(where, "c.continent = "+ph.next())
	}
	if v.coveredOnly {
		where = append(where, "c.coverage_status = 'available'")
	}
	if len(where) > 0 {
		b.WriteString("\n\t\tWHERE " + strings.Join(where, " AND "))
	}

	b.WriteString("\n\t\tORDER BY c.iso3")
	return b.String()
}

func mapArgs(q MapQuery) []any {
	args := []any{q.Lang}
	if q.Group != "" {
		args = append(args, q.Group)
	}
	args = append(args, q.Year)
	if q.Continent != "" {
		args = append(args, q.Continent)
	}
	return args
}

// articleVariant identifies which optional article filters apply.
type articleVariant struct {
	country bool
	year    bool
}

var articleVariants = []articleVariant{
	{false, false}, {false, true}, {true, false}, {true, true},
}

// buildArticleQuery assembles the statement for one variant. Arguments bind
// as: lang, [iso3], [year], limit.
func buildArticleQuery(v articleVariant) string {
	ph := &placeholders{}
	var b strings.Builder

	b.WriteString(`
		SELECT id, slug, title, lang, country_iso3, year, tags, published_at, created_at
		FROM articles
		WHERE lang = ` + ph.next())

	if v.country {
		b.WriteString(" AND country_iso3 = " + ph.next())
	}
	if v.year {
		b.WriteString(" AND year = " + ph.next())
	}

	b.WriteString(`
		ORDER BY published_at DESC NULLS LAST, created_at DESC
		LIMIT ` + ph.next())
	return b.String()
}

func articleArgs(q ArticleQuery) []any {
	args := []any{q.Lang}
	if q.ISO3 != "" {
		args = append(args, q.ISO3)
	}
	if q.Year != nil {
		args = append(args, *q.Year)
	}
	return append(args, q.Limit)
}

// eventTypeArgs pads types to maxEventTypes slots by repeating the last value.
func eventTypeArgs(types []string) []any {
	args := make([]any, maxEventTypes)
	for i := range args {
		if i < len(types) {
			args[i] = types[i]
		} else {
			args[i] = types[len(types)-1]
		}
	}
	return args
}
