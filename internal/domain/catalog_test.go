package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContinents_ReturnsCopy(t *testing.T) {
	c := Continents()
	assert.Len(t, c, 7)
	assert.Equal(t, "AF", c[0].Code)

	c[0].Code = "XX"
	assert.Equal(t, "AF", Continents()[0].Code, "callers must not be able to mutate the catalog")
}

func TestIsContinent(t *testing.T) {
	assert.True(t, IsContinent("EU"))
	assert.True(t, IsContinent("SA"))
	assert.False(t, IsContinent("eu"))
	assert.False(t, IsContinent("ZZ"))
}

func TestPoliticalEventTypes(t *testing.T) {
	types := PoliticalEventTypes()
	assert.Equal(t, []string{
		"election",
		"government_change",
		"referendum",
		"constitutional_change",
		"institutional_crisis",
		"other_political",
	}, types)

	for _, ty := range types {
		assert.True(t, IsPoliticalEventType(ty))
	}
	assert.False(t, IsPoliticalEventType("sports"))
	assert.False(t, IsPoliticalEventType(""))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("from", "must be <= %s", "'to'")
	assert.Equal(t, "from: must be <= 'to'", err.Error())
	assert.True(t, IsValidation(err))
	assert.False(t, IsValidation(ErrNotFound))
}
