package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSeasons_Default(t *testing.T) {
	cal, err := LoadSeasons("")
	require.NoError(t, err)

	winter, ok := cal.Season("winter")
	require.True(t, ok)
	assert.Equal(t, MonthDay{Month: time.December, Day: 15}, winter.Start)
	assert.Equal(t, MonthDay{Month: time.April, Day: 15}, winter.End)
	assert.Equal(t, 39.0, winter.Price)

	summer, ok := cal.Season("summer")
	require.True(t, ok)
	assert.Equal(t, "10h00 - 18h30", summer.Hours)

	assert.Equal(t, "Europe/Paris", cal.Location().String())
	assert.Contains(t, cal.ClosedDates, MonthDay{Month: time.December, Day: 25})
}

func TestSeason_ContainsWrapsNewYear(t *testing.T) {
	winter := Season{
		Start: MonthDay{Month: time.December, Day: 15},
		End:   MonthDay{Month: time.April, Day: 15},
	}

	assert.True(t, winter.Contains(MonthDay{Month: time.December, Day: 15}))
	assert.True(t, winter.Contains(MonthDay{Month: time.January, Day: 1}))
	assert.True(t, winter.Contains(MonthDay{Month: time.April, Day: 15}))
	assert.False(t, winter.Contains(MonthDay{Month: time.April, Day: 16}))
	assert.False(t, winter.Contains(MonthDay{Month: time.December, Day: 14}))
}

func TestParseSeasons_Invalid(t *testing.T) {
	_, err := ParseSeasons([]byte("seasons: []"))
	assert.Error(t, err)

	_, err = ParseSeasons([]byte(`seasons:
  - name: winter
    start: "13-40"
    end: "04-15"
    price: 10
`))
	assert.Error(t, err)

	_, err = ParseSeasons([]byte(`seasons:
  - name: winter
    start: "12-15"
    end: "04-15"
`))
	assert.Error(t, err)
}
