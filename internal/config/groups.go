package config

// DefaultCountryGroups returns the codes of the country groups the map
// endpoint filters on. Each code must have a row in country_groups; the
// schema migration seeds these two.
func DefaultCountryGroups() []string {
	return []string{
		// European Union
		"EU",

		// Organisation for Economic Co-operation and Development
		"OECD",
	}
}
