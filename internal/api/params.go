package api

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/whogoverns/api/internal/config"
	"github.com/whogoverns/api/internal/domain"
	"github.com/whogoverns/api/internal/service"
)

// Broad bounds for years outside the power dataset (ranges, events, articles).
const (
	minHistoricalYear = 1800
	maxHistoricalYear = 2100
)

type limitWindow struct {
	Min, Max, Default int
}

var (
	eventsLimit          = limitWindow{Min: 1, Max: 200, Default: 50}
	articlesLimit        = limitWindow{Min: 1, Max: 100, Default: 20}
	summaryEventsLimit   = limitWindow{Min: 1, Max: 100, Default: 20}
	summaryArticlesLimit = limitWindow{Min: 1, Max: 50, Default: 10}
)

// clamp applies the window to an optional limit.
func (w limitWindow) clamp(v *int) int {
	switch {
	case v == nil:
		return w.Default
	case *v < w.Min:
		return w.Min
	case *v > w.Max:
		return w.Max
	default:
		return *v
	}
}

var (
	validate     = validator.New()
	setupBinding sync.Once
)

// configureBinding makes gin's validator report fields by their query name
// and registers the catalog-backed tags "continent" and "lang".
func configureBinding() {
	setupBinding.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("continent", func(fl validator.FieldLevel) bool {
			return domain.IsContinent(fl.Field().String())
		})
		_ = v.RegisterValidation("lang", func(fl validator.FieldLevel) bool {
			return slices.Contains(domain.Languages(), fl.Field().String())
		})
	})
}

// Query shapes. Year bounds that depend on the dataset window are checked
// after binding, against configuration.

type langQuery struct {
	Lang string `form:"lang" binding:"omitempty,lang"`
}

type rangeQuery struct {
	From *int `form:"from" binding:"omitempty,min=1800,max=2100"`
	To   *int `form:"to" binding:"omitempty,min=1800,max=2100"`
}

type mapQuery struct {
	langQuery
	Year        *int   `form:"year" binding:"required"`
	Continent   string `form:"continent" binding:"omitempty,continent"`
	Group       string `form:"group"`
	CoveredOnly bool   `form:"covered_only"`
}

type timelineQuery struct {
	langQuery
	rangeQuery
	IncludeYears bool `form:"include_years"`
}

type detailQuery struct {
	langQuery
	rangeQuery
	Year *int `form:"year"`
}

type summaryQuery struct {
	langQuery
	rangeQuery
	Year          *int `form:"year" binding:"required"`
	EventsLimit   *int `form:"events_limit"`
	ArticlesLimit *int `form:"articles_limit"`
}

type eventsQuery struct {
	langQuery
	ISO3       string `form:"iso3" binding:"required"`
	Year       *int   `form:"year" binding:"required,min=1800,max=2100"`
	EventTypes string `form:"event_types"`
	Limit      *int   `form:"limit"`
}

type articlesQuery struct {
	langQuery
	ISO3  string `form:"iso3"`
	Year  *int   `form:"year" binding:"omitempty,min=1800,max=2100"`
	Limit *int   `form:"limit"`
}

// paramParser turns raw query strings into validated service parameters.
// Every check runs before any store access.
type paramParser struct {
	dataset config.DatasetConfig
}

func (p paramParser) mapParams(c *gin.Context) (service.MapParams, error) {
	var q mapQuery
	if err := bindQuery(c, &q); err != nil {
		return service.MapParams{}, err
	}
	if err := p.datasetYear("year", *q.Year); err != nil {
		return service.MapParams{}, err
	}
	if q.Group != "" && !p.dataset.HasGroup(q.Group) {
		return service.MapParams{}, domain.NewValidationError("group", "must be one of: %s", strings.Join(p.dataset.Groups, " "))
	}
	return service.MapParams{
		Year:        *q.Year,
		Lang:        lang(q.langQuery),
		Continent:   q.Continent,
		Group:       q.Group,
		CoveredOnly: q.CoveredOnly,
	}, nil
}

func (p paramParser) timelineParams(c *gin.Context) (service.TimelineParams, error) {
	iso3, err := pathISO3(c)
	if err != nil {
		return service.TimelineParams{}, err
	}
	var q timelineQuery
	if err := bindQuery(c, &q); err != nil {
		return service.TimelineParams{}, err
	}
	from, to, err := p.yearRange(q.rangeQuery)
	if err != nil {
		return service.TimelineParams{}, err
	}
	return service.TimelineParams{
		ISO3:         iso3,
		From:         from,
		To:           to,
		Lang:         lang(q.langQuery),
		IncludeYears: q.IncludeYears,
	}, nil
}

func (p paramParser) detailParams(c *gin.Context) (service.DetailParams, error) {
	iso3, err := pathISO3(c)
	if err != nil {
		return service.DetailParams{}, err
	}
	var q detailQuery
	if err := bindQuery(c, &q); err != nil {
		return service.DetailParams{}, err
	}
	year := p.dataset.DefaultYear
	if q.Year != nil {
		year = *q.Year
	}
	if err := p.datasetYear("year", year); err != nil {
		return service.DetailParams{}, err
	}
	from, to, err := p.yearRange(q.rangeQuery)
	if err != nil {
		return service.DetailParams{}, err
	}
	return service.DetailParams{ISO3: iso3, Year: year, From: from, To: to, Lang: lang(q.langQuery)}, nil
}

func (p paramParser) summaryParams(c *gin.Context) (service.SummaryParams, error) {
	iso3, err := pathISO3(c)
	if err != nil {
		return service.SummaryParams{}, err
	}
	var q summaryQuery
	if err := bindQuery(c, &q); err != nil {
		return service.SummaryParams{}, err
	}
	if err := p.datasetYear("year", *q.Year); err != nil {
		return service.SummaryParams{}, err
	}
	from, to, err := p.yearRange(q.rangeQuery)
	if err != nil {
		return service.SummaryParams{}, err
	}
	return service.SummaryParams{
		ISO3:          iso3,
		Year:          *q.Year,
		From:          from,
		To:            to,
		Lang:          lang(q.langQuery),
		EventsLimit:   summaryEventsLimit.clamp(q.EventsLimit),
		ArticlesLimit: summaryArticlesLimit.clamp(q.ArticlesLimit),
	}, nil
}

func (p paramParser) eventsParams(c *gin.Context) (service.EventsParams, error) {
	var q eventsQuery
	if err := bindQuery(c, &q); err != nil {
		return service.EventsParams{}, err
	}
	iso3, err := normalizeISO3("iso3", q.ISO3)
	if err != nil {
		return service.EventsParams{}, err
	}
	types, err := parseEventTypes(q.EventTypes)
	if err != nil {
		return service.EventsParams{}, err
	}
	return service.EventsParams{
		ISO3:  iso3,
		Year:  *q.Year,
		Types: types,
		Limit: eventsLimit.clamp(q.Limit),
	}, nil
}

func (p paramParser) articlesParams(c *gin.Context) (service.ArticlesParams, error) {
	var q articlesQuery
	if err := bindQuery(c, &q); err != nil {
		return service.ArticlesParams{}, err
	}
	var iso3 string
	if q.ISO3 != "" {
		var err error
		if iso3, err = normalizeISO3("iso3", q.ISO3); err != nil {
			return service.ArticlesParams{}, err
		}
	}
	return service.ArticlesParams{
		Lang:  lang(q.langQuery),
		ISO3:  iso3,
		Year:  q.Year,
		Limit: articlesLimit.clamp(q.Limit),
	}, nil
}

func (p paramParser) metadataLang(c *gin.Context) (string, error) {
	var q langQuery
	if err := bindQuery(c, &q); err != nil {
		return "", err
	}
	return lang(q), nil
}

// yearRange applies the dataset defaults and checks ordering.
func (p paramParser) yearRange(q rangeQuery) (int, int, error) {
	from, to := p.dataset.MinYear, p.dataset.MaxYear
	if q.From != nil {
		from = *q.From
	}
	if q.To != nil {
		to = *q.To
	}
	if from > to {
		return 0, 0, &domain.ValidationError{Message: "'from' must be <= 'to'"}
	}
	return from, to, nil
}

// datasetYear checks a power/map year against the dataset window.
func (p paramParser) datasetYear(field string, year int) error {
	if year < p.dataset.MinYear || year > p.dataset.MaxYear {
		return domain.NewValidationError(field, "must be between %d and %d", p.dataset.MinYear, p.dataset.MaxYear)
	}
	return nil
}

func lang(q langQuery) string {
	if q.Lang == "" {
		return domain.LangEN
	}
	return q.Lang
}

func pathISO3(c *gin.Context) (string, error) {
	return normalizeISO3("iso3", c.Param("iso3"))
}

// normalizeISO3 upper-cases code and requires exactly three letters.
func normalizeISO3(field, code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := validate.Var(code, "len=3,alpha"); err != nil {
		return "", domain.NewValidationError(field, "must be exactly 3 letters")
	}
	return code, nil
}

// parseEventTypes splits a comma-separated filter and rejects values outside
// the political allow-list. Duplicates collapse; an empty filter means all.
func parseEventTypes(raw string) ([]string, error) {
	var types, invalid []string
	seen := map[string]bool{}
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		if !domain.IsPoliticalEventType(t) {
			invalid = append(invalid, t)
			continue
		}
		types = append(types, t)
	}
	if len(invalid) > 0 {
		return nil, domain.NewValidationError("event_types", "invalid values: %s (allowed: %s)",
			strings.Join(invalid, ", "), strings.Join(domain.PoliticalEventTypes(), ", "))
	}
	return types, nil
}

// bindQuery binds the query string and converts binding failures into a
// ValidationError naming the offending parameters.
func bindQuery(c *gin.Context, dst any) error {
	configureBinding()
	if err := checkScalars(c, reflect.TypeOf(dst)); err != nil {
		return err
	}
	err := c.ShouldBindQuery(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describe(fe))
		}
		return &domain.ValidationError{Message: strings.Join(msgs, "; ")}
	}
	return &domain.ValidationError{Message: fmt.Sprintf("invalid query parameters: %v", err)}
}

// checkScalars rejects query values that cannot fill the integer or boolean
// fields of t, naming the parameter. Gin's conversion errors do not.
func checkScalars(c *gin.Context, t reflect.Type) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			if err := checkScalars(c, f.Type); err != nil {
				return err
			}
			continue
		}
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			continue
		}
		raw, ok := c.GetQuery(name)
		if !ok || raw == "" {
			continue
		}
		kind := f.Type.Kind()
		if kind == reflect.Pointer {
			kind = f.Type.Elem().Kind()
		}
		switch kind {
		case reflect.Int:
			if _, err := strconv.Atoi(raw); err != nil {
				return domain.NewValidationError(name, "must be an integer")
			}
		case reflect.Bool:
			if _, err := strconv.ParseBool(raw); err != nil {
				return domain.NewValidationError(name, "must be a boolean")
			}
		}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: is required", field)
	case "continent":
		var codes []string
		for _, ct := range domain.Continents() {
			codes = append(codes, ct.Code)
		}
		return fmt.Sprintf("%s: must be one of: %s", field, strings.Join(codes, " "))
	case "lang":
		return fmt.Sprintf("%s: must be one of: %s", field, strings.Join(domain.Languages(), " "))
	case "min":
		return fmt.Sprintf("%s: must be >= %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s: must be <= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s: is invalid", field)
	}
}
