package helper

import (
	"time"

	"zipline_manager/config"
	"zipline_manager/constants"
	"zipline_manager/model"
)

// Calendar classifies dates against the static season schedule and the
// editable closure list. It holds no state besides the schedule.
type Calendar struct {
	seasons *config.SeasonCalendar
}

func NewCalendar(seasons *config.SeasonCalendar) *Calendar {
	return &Calendar{seasons: seasons}
}

func (c *Calendar) Location() *time.Location {
	return c.seasons.Location()
}

// ParseDate reads a YYYY-MM-DD date as midnight in the calendar timezone.
func (c *Calendar) ParseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(constants.DATE_LAYOUT, raw, c.Location())
}

// IsInSeason returns the name of the season covering date, or "closed".
func (c *Calendar) IsInSeason(date time.Time) string {
	md := config.MonthDayOf(date.In(c.Location()))
	for _, season := range c.seasons.Seasons {
		if season.Contains(md) {
			return season.Name
		}
	}
	return constants.SEASON_CLOSED
}

// IsClosedDate reports whether date is off season or on the recurring
// closed list.
func (c *Calendar) IsClosedDate(date time.Time) bool {
	return c.IsInSeason(date) == constants.SEASON_CLOSED || c.isStaticClosure(date)
}

func (c *Calendar) isStaticClosure(date time.Time) bool {
	md := config.MonthDayOf(date.In(c.Location()))
	for _, closed := range c.seasons.ClosedDates {
		if closed == md {
			return true
		}
	}
	return false
}

// GetOpeningHours returns nil when the site does not open that day.
func (c *Calendar) GetOpeningHours(date time.Time) *string {
	if c.IsClosedDate(date) {
		return nil
	}
	season, ok := c.seasons.Season(c.IsInSeason(date))
	if !ok || season.Hours == "" {
		return nil
	}
	hours := season.Hours
	return &hours
}

func (c *Calendar) ClassifyDay(date time.Time, closures []model.Closure, now time.Time) model.DayInfo {
	return c.classify(date, closureIndex(closures), now)
}

// Month classifies every day of the month.
func (c *Calendar) Month(year int, month time.Month, closures []model.Closure, now time.Time) []model.DayInfo {
	index := closureIndex(closures)
	first := time.Date(year, month, 1, 0, 0, 0, 0, c.Location())
	days := []model.DayInfo{}
	for day := first; day.Month() == month; day = day.AddDate(0, 0, 1) {
		days = append(days, c.classify(day, index, now))
	}
	return days
}

func (c *Calendar) classify(date time.Time, closures map[string][]string, now time.Time) model.DayInfo {
	local := date.In(c.Location())
	key := local.Format(constants.DATE_LAYOUT)
	info := model.DayInfo{
		Date:    key,
		Season:  c.IsInSeason(local),
		IsToday: key == now.In(c.Location()).Format(constants.DATE_LAYOUT),
	}

	if info.Season == constants.SEASON_CLOSED {
		info.Status = constants.DAY_CLOSED
		return info
	}
	if reasons, ok := closures[key]; ok {
		info.Status = constants.DAY_EXCEPTIONALLY_CLOSED
		info.Reasons = reasons
		return info
	}
	if c.isStaticClosure(local) {
		info.Status = constants.DAY_EXCEPTIONALLY_CLOSED
		return info
	}

	info.Status = constants.DAY_OPEN
	info.OpeningHours = c.GetOpeningHours(local)
	return info
}

// Products lists what can be sold, one entry per season.
func (c *Calendar) Products() []model.Product {
	products := make([]model.Product, 0, len(c.seasons.Seasons))
	for _, season := range c.seasons.Seasons {
		products = append(products, model.Product{
			Season: season.Name,
			Label:  season.Label,
			Price:  season.Price,
			Hours:  season.Hours,
			Start:  season.Start.String(),
			End:    season.End.String(),
		})
	}
	return products
}

func (c *Calendar) Season(name string) (config.Season, bool) {
	return c.seasons.Season(name)
}

func closureIndex(closures []model.Closure) map[string][]string {
	index := make(map[string][]string, len(closures))
	for _, closure := range closures {
		index[closure.Date] = append(index[closure.Date], closure.Reasons...)
	}
	return index
}
