package domain

// Continent is a continent code with its English and French names.
type Continent struct {
	Code   string `json:"code"`
	NameEN string `json:"name_en"`
	NameFR string `json:"name_fr"`
}

// Supported response languages. LangEN is the primary language used as the
// fallback when a localized name is missing.
const (
	LangEN = "en"
	LangFR = "fr"
)

var continents = []Continent{
	{Code: "AF", NameEN: "Africa", NameFR: "Afrique"},
	{Code: "AN", NameEN: "Antarctica", NameFR: "Antarctique"},
	{Code: "AS", NameEN: "Asia", NameFR: "Asie"},
	{Code: "EU", NameEN: "Europe", NameFR: "Europe"},
	{Code: "NA", NameEN: "North America", NameFR: "Amérique du Nord"},
	{Code: "OC", NameEN: "Oceania", NameFR: "Océanie"},
	{Code: "SA", NameEN: "South America", NameFR: "Amérique du Sud"},
}

var politicalEventTypes = []string{
	"election",
	"government_change",
	"referendum",
	"constitutional_change",
	"institutional_crisis",
	"other_political",
}

var politicalEventTypeSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(politicalEventTypes))
	for _, t := range politicalEventTypes {
		m[t] = struct{}{}
	}
	return m
}()

// Continents returns the known continents in code order.
func Continents() []Continent {
	out := make([]Continent, len(continents))
	copy(out, continents)
	return out
}

// IsContinent reports whether code is a known continent code.
func IsContinent(code string) bool {
	for _, c := range continents {
		if c.Code == code {
			return true
		}
	}
	return false
}

// PoliticalEventTypes returns the allow-list of event types treated as political.
func PoliticalEventTypes() []string {
	out := make([]string, len(politicalEventTypes))
	copy(out, politicalEventTypes)
	return out
}

// IsPoliticalEventType reports whether t belongs to the political allow-list.
func IsPoliticalEventType(t string) bool {
	_, ok := politicalEventTypeSet[t]
	return ok
}

// Languages returns the supported response languages, primary first.
func Languages() []string {
	return []string{LangEN, LangFR}
}
