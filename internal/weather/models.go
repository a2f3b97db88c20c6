package weather

import (
	"time"
)

// DateLayout is the calendar date format used by the provider and in summaries.
const DateLayout = "2006-01-02"

// WeatherSummary is the aggregated view of a city's weather over the lookback window.
// On success HottestDay and ColdestDay are both set and ErrorMessage is empty;
// failure bodies carry ErrorMessage and leave the day fields empty.
type WeatherSummary struct {
	City               string  `json:"city"`
	AverageTemperature float64 `json:"averageTemperature"`
	HottestDay         string  `json:"hottestDay,omitempty"`
	ColdestDay         string  `json:"coldestDay,omitempty"`
	ErrorMessage       string  `json:"errorMessage,omitempty"`
}

// DailyTemperature is a single in-window day taken from the provider payload.
type DailyTemperature struct {
	Date               time.Time
	AverageTempCelsius float64
}

// HistoryResponse is the raw history payload as returned by the provider.
// Sections are pointers so an absent section can be told apart from an empty one.
type HistoryResponse struct {
	Location *HistoryLocation `json:"location"`
	Forecast *HistoryForecast `json:"forecast"`
}

// HistoryLocation identifies the place the provider resolved the query to.
type HistoryLocation struct {
	Name string `json:"name"`
}

// HistoryForecast holds the per-day entries.
type HistoryForecast struct {
	ForecastDay []ForecastDay `json:"forecastday"`
}

// ForecastDay is one day of history.
type ForecastDay struct {
	Date string   `json:"date"`
	Day  *DayStat `json:"day"`
}

// DayStat carries the daily aggregates we read; avgtemp_c may be absent.
type DayStat struct {
	AvgTempC *float64 `json:"avgtemp_c"`
}

// Window is an inclusive range of calendar dates.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls within the window, bounds included.
func (w Window) Contains(d time.Time) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// LookbackWindow returns [today - days, today] where today is the calendar date of now.
func LookbackWindow(now time.Time, days int) Window {
	today := civilDate(now)
	return Window{
		Start: today.AddDate(0, 0, -days),
		End:   today,
	}
}

// civilDate drops the clock part of t, keeping its calendar date in its own location,
// and re-anchors it in UTC so it compares cleanly with parsed provider dates.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
