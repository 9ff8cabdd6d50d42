package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/whogoverns/api/internal/domain"
)

const tracerName = "github.com/whogoverns/api/internal/storage"

// Store hands out read sessions over the political dataset.
type Store interface {
	// ReadSession runs fn inside one read-only transaction. The underlying
	// connection is released when fn returns, whether it failed or not.
	ReadSession(ctx context.Context, fn func(Session) error) error
	Ping(ctx context.Context) error
	Close() error
}

// Session is the set of queries available within one request.
type Session interface {
	GetCountry(ctx context.Context, iso3, lang string) (*domain.Country, error)
	CountryExists(ctx context.Context, iso3 string) (bool, error)
	ListPower(ctx context.Context, iso3 string, from, to int) ([]domain.PowerRecord, error)
	GetPower(ctx context.Context, iso3 string, year int) (*domain.PowerRecord, error)
	MapSnapshot(ctx context.Context, q MapQuery) ([]MapRow, error)
	ListEvents(ctx context.Context, q EventQuery) ([]domain.CountryEvent, error)
	ListArticles(ctx context.Context, q ArticleQuery) ([]domain.Article, error)
	CoverageCounts(ctx context.Context) (domain.CoverageCounts, error)
	ListGroups(ctx context.Context, lang string) ([]domain.Group, error)
}

// SQLStore implements Store over database/sql for Postgres and SQLite.
type SQLStore struct {
	db *sql.DB

	// Prepared statements
	getCountry     *sql.Stmt
	countryExists  *sql.Stmt
	listPower      *sql.Stmt
	getPower       *sql.Stmt
	listEvents     *sql.Stmt
	coverageCounts *sql.Stmt
	listGroups     *sql.Stmt
	mapSnapshot    map[mapVariant]*sql.Stmt
	listArticles   map[articleVariant]*sql.Stmt
}

// NewSQLStore creates a SQLStore from an already-opened and migrated database.
func NewSQLStore(db *sql.DB) (*SQLStore, error) {
	s := &SQLStore{
		db:           db,
		mapSnapshot:  make(map[mapVariant]*sql.Stmt, len(mapVariants)),
		listArticles: make(map[articleVariant]*sql.Stmt, len(articleVariants)),
	}

	if err := s.prepareStatements(); err != nil {
		s.Close()
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLStore) prepareStatements() error {
	fixed := []struct {
		dst  **sql.Stmt
		name string
		sql  string
	}{
		{&s.getCountry, "get country", sqlGetCountry},
		{&s.countryExists, "country exists", sqlCountryExists},
		{&s.listPower, "list power", sqlListPower},
		{&s.getPower, "get power", sqlGetPower},
		{&s.listEvents, "list events", sqlListEvents},
		{&s.coverageCounts, "coverage counts", sqlCoverageCounts},
		{&s.listGroups, "list groups", sqlListGroups},
	}

	var err error
	for _, f := range fixed {
		*f.dst, err = s.db.Prepare(f.sql)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}

	for _, v := range mapVariants {
		stmt, err := s.db.Prepare(buildMapQuery(v))
		if err != nil {
			return fmt.Errorf("map snapshot %+v: %w", v, err)
		}
		s.mapSnapshot[v] = stmt
	}

	for _, v := range articleVariants {
		stmt, err := s.db.Prepare(buildArticleQuery(v))
		if err != nil {
			return fmt.Errorf("list articles %+v: %w", v, err)
		}
		s.listArticles[v] = stmt
	}

	return nil
}

// ReadSession implements Store.
func (s *SQLStore) ReadSession(ctx context.Context, fn func(Session) error) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "storage.ReadSession")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin read session: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	return fn(&session{store: s, tx: tx})
}

// Ping checks that the database answers.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLStore) Close() error {
	stmts := []*sql.Stmt{
		s.getCountry, s.countryExists, s.listPower, s.getPower,
		s.listEvents, s.coverageCounts, s.listGroups,
	}
	for _, stmt := range s.mapSnapshot {
		stmts = append(stmts, stmt)
	}
	for _, stmt := range s.listArticles {
		stmts = append(stmts, stmt)
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}

// session binds the store's prepared statements to one transaction.
type session struct {
	store *SQLStore
	tx    *sql.Tx
}

func (q *session) stmt(ctx context.Context, st *sql.Stmt) *sql.Stmt {
	return q.tx.StmtContext(ctx, st)
}

// GetCountry resolves iso3 to a localized country, or a domain.NotFoundError.
func (q *session) GetCountry(ctx context.Context, iso3, lang string) (*domain.Country, error) {
	var c domain.Country
	var status string
	err := q.stmt(ctx, q.store.getCountry).QueryRowContext(ctx, lang, iso3).Scan(
		&c.ISO3, &c.Name, &c.Continent, &status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.UnknownCountry(iso3)
		}
		return nil, fmt.Errorf("get country: %w", err)
	}
	c.CoverageStatus = domain.CoverageStatus(status)
	return &c, nil
}

// CountryExists reports whether iso3 is registered.
func (q *session) CountryExists(ctx context.Context, iso3 string) (bool, error) {
	var one int
	err := q.stmt(ctx, q.store.countryExists).QueryRowContext(ctx, iso3).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("country exists: %w", err)
	}
	return true, nil
}

// ListPower returns the records of [from, to] in ascending year order.
func (q *session) ListPower(ctx context.Context, iso3 string, from, to int) ([]domain.PowerRecord, error) {
	rows, err := q.stmt(ctx, q.store.listPower).QueryContext(ctx, iso3, from, to)
	if err != nil {
		return nil, fmt.Errorf("list power: %w", err)
	}
	defer rows.Close()

	records := []domain.PowerRecord{}
	for rows.Next() {
		r, err := scanPower(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// GetPower returns the record of one year, or nil when the year has no data.
func (q *session) GetPower(ctx context.Context, iso3 string, year int) (*domain.PowerRecord, error) {
	r, err := scanPower(q.stmt(ctx, q.store.getPower).QueryRowContext(ctx, iso3, year))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get power: %w", err)
	}
	return &r, nil
}

// MapSnapshot returns every country matching q with its power for q.Year.
func (q *session) MapSnapshot(ctx context.Context, mq MapQuery) ([]MapRow, error) {
	stmt := q.store.mapSnapshot[variantFor(mq)]
	rows, err := q.stmt(ctx, stmt).QueryContext(ctx, mapArgs(mq)...)
	if err != nil {
		return nil, fmt.Errorf("map snapshot: %w", err)
	}
	defer rows.Close()

	out := []MapRow{}
	for rows.Next() {
		var (
			row        MapRow
			status     string
			coalition  sql.NullString
			confidence sql.NullString
			sourceID   sql.NullInt64
			pid        sql.NullInt64
			pname      sql.NullString
			pabbr      sql.NullString
		)
		if err := rows.Scan(
			&row.Country.ISO3, &row.Country.Name, &row.Country.Continent, &status,
			&coalition, &confidence, &sourceID,
			&pid, &pname, &pabbr,
		); err != nil {
			return nil, fmt.Errorf("scan map row: %w", err)
		}
		row.Country.CoverageStatus = domain.CoverageStatus(status)
		row.Coalition = nullString(coalition)
		row.Confidence = nullString(confidence)
		row.SourceID = nullInt64(sourceID)
		row.Party = party(pid, pname, pabbr)
		out = append(out, row)
	}
	return out, rows.Err()
}

// ListEvents returns the events of one country-year whose type is in q.Types.
func (q *session) ListEvents(ctx context.Context, eq EventQuery) ([]domain.CountryEvent, error) {
	if len(eq.Types) == 0 || len(eq.Types) > maxEventTypes {
		return nil, fmt.Errorf("list events: need 1 to %d event types, got %d", maxEventTypes, len(eq.Types))
	}

	args := append([]any{eq.ISO3, eq.Year}, eventTypeArgs(eq.Types)...)
	args = append(args, eq.Limit)

	rows, err := q.stmt(ctx, q.store.listEvents).QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []domain.CountryEvent{}
	for rows.Next() {
		var (
			e        domain.CountryEvent
			desc     sql.NullString
			date     sql.NullTime
			sourceID sql.NullInt64
		)
		if err := rows.Scan(
			&e.ID, &e.CountryISO3, &e.Year, &e.EventType, &e.Title, &desc, &date, &sourceID,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Description = nullString(desc)
		e.EventDate = nullTime(date)
		e.SourceID = nullInt64(sourceID)
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListArticles returns articles in q.Lang, newest first.
func (q *session) ListArticles(ctx context.Context, aq ArticleQuery) ([]domain.Article, error) {
	v := articleVariant{country: aq.ISO3 != "", year: aq.Year != nil}
	rows, err := q.stmt(ctx, q.store.listArticles[v]).QueryContext(ctx, articleArgs(aq)...)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	articles := []domain.Article{}
	for rows.Next() {
		var (
			a         domain.Article
			country   sql.NullString
			year      sql.NullInt64
			tags      pq.StringArray
			published sql.NullTime
		)
		if err := rows.Scan(
			&a.ID, &a.Slug, &a.Title, &a.Lang, &country, &year, &tags, &published, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.CountryISO3 = nullString(country)
		if year.Valid {
			y := int(year.Int64)
			a.Year = &y
		}
		a.Tags = []string(tags)
		if a.Tags == nil {
			a.Tags = []string{}
		}
		a.PublishedAt = nullTime(published)
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// CoverageCounts counts countries per coverage status. Statuses without any
// country report zero.
func (q *session) CoverageCounts(ctx context.Context) (domain.CoverageCounts, error) {
	var counts domain.CoverageCounts

	rows, err := q.stmt(ctx, q.store.coverageCounts).QueryContext(ctx)
	if err != nil {
		return counts, fmt.Errorf("coverage counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return counts, fmt.Errorf("scan coverage: %w", err)
		}
		switch domain.CoverageStatus(status) {
		case domain.CoverageAvailable:
			counts.Available = n
		case domain.CoverageInProgress:
			counts.InProgress = n
		case domain.CoveragePlanned:
			counts.Planned = n
		}
	}
	return counts, rows.Err()
}

// ListGroups returns the configured country groups with localized names.
func (q *session) ListGroups(ctx context.Context, lang string) ([]domain.Group, error) {
	rows, err := q.stmt(ctx, q.store.listGroups).QueryContext(ctx, lang)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	groups := []domain.Group{}
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.Code, &g.Name); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanPower reads one row shaped by powerColumns.
func scanPower(row rowScanner) (domain.PowerRecord, error) {
	var (
		r          domain.PowerRecord
		leader     sql.NullString
		coalition  sql.NullString
		confidence sql.NullString
		sourceID   sql.NullInt64
		pid        sql.NullInt64
		pname      sql.NullString
		pabbr      sql.NullString
	)
	if err := row.Scan(
		&r.Year, &r.CountryISO3, &leader, &coalition, &confidence, &sourceID,
		&pid, &pname, &pabbr,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scan power record: %w", err)
	}
	r.LeaderName = nullString(leader)
	r.Coalition = nullString(coalition)
	r.Confidence = nullString(confidence)
	r.SourceID = nullInt64(sourceID)
	r.Party = party(pid, pname, pabbr)
	return r, nil
}

// party builds a Party from left-joined columns; a NULL id means no party.
func party(id sql.NullInt64, name, abbr sql.NullString) *domain.Party {
	if !id.Valid {
		return nil
	}
	return &domain.Party{ID: id.Int64, Name: name.String, Abbr: nullString(abbr)}
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
