package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

//go:embed seasons.yaml
var defaultSeasons []byte

// MonthDay is a calendar day without a year, written "MM-DD".
type MonthDay struct {
	Month time.Month
	Day   int
}

func (md *MonthDay) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseMonthDay(raw)
	if err != nil {
		return err
	}
	*md = parsed
	return nil
}

func ParseMonthDay(raw string) (MonthDay, error) {
	// 2000 is a leap year so 02-29 parses.
	t, err := time.Parse("2006-01-02", "2000-"+raw)
	if err != nil {
		return MonthDay{}, fmt.Errorf("invalid month-day %q: %w", raw, err)
	}
	return MonthDay{Month: t.Month(), Day: t.Day()}, nil
}

// Before reports whether md comes strictly before other within a year.
func (md MonthDay) Before(other MonthDay) bool {
	if md.Month != other.Month {
		return md.Month < other.Month
	}
	return md.Day < other.Day
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}

func MonthDayOf(t time.Time) MonthDay {
	return MonthDay{Month: t.Month(), Day: t.Day()}
}

type Season struct {
	Name  string   `yaml:"name"`
	Label string   `yaml:"label"`
	Start MonthDay `yaml:"start"`
	End   MonthDay `yaml:"end"`
	Hours string   `yaml:"hours"`
	Price float64  `yaml:"price"`
}

// Contains reports whether the day falls in the season, bounds included.
// A season whose end comes before its start wraps over the new year.
func (s Season) Contains(md MonthDay) bool {
	if s.End.Before(s.Start) {
		return !md.Before(s.Start) || !s.End.Before(md)
	}
	return !md.Before(s.Start) && !s.End.Before(md)
}

type SeasonCalendar struct {
	Timezone    string     `yaml:"timezone"`
	Seasons     []Season   `yaml:"seasons"`
	ClosedDates []MonthDay `yaml:"closedDates"`

	location *time.Location
}

// LoadSeasons reads the season calendar from path, or the embedded default
// when path is empty.
func LoadSeasons(path string) (*SeasonCalendar, error) {
	data := defaultSeasons
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading season calendar: %w", err)
		}
	}
	return ParseSeasons(data)
}

func ParseSeasons(data []byte) (*SeasonCalendar, error) {
	var cal SeasonCalendar
	if err := yaml.Unmarshal(data, &cal); err != nil {
		return nil, fmt.Errorf("parsing season calendar: %w", err)
	}
	if len(cal.Seasons) == 0 {
		return nil, fmt.Errorf("season calendar has no seasons")
	}
	for _, s := range cal.Seasons {
		if s.Name == "" || s.Price <= 0 {
			return nil, fmt.Errorf("season %q needs a name and a positive price", s.Name)
		}
	}
	if cal.Timezone == "" {
		cal.Timezone = "Europe/Paris"
	}
	loc, err := time.LoadLocation(cal.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", cal.Timezone, err)
	}
	cal.location = loc
	return &cal, nil
}

func (c *SeasonCalendar) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *SeasonCalendar) Season(name string) (Season, bool) {
	for _, s := range c.Seasons {
		if s.Name == name {
			return s, true
		}
	}
	return Season{}, false
}
