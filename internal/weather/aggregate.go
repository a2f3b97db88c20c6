package weather

import (
	"fmt"
	"math"
	"time"
)

// Summarize reduces a history payload to a WeatherSummary over the given window.
// Entries outside the window are ignored; a missing avgtemp_c counts as 0.
// On equal temperatures the earliest date is reported as hottest/coldest.
// The returned city is the name the provider resolved (location.name), so the
// requested city is not an input; callers log it alongside the error instead.
func Summarize(payload *HistoryResponse, window Window) (WeatherSummary, error) {
	if payload == nil || payload.Forecast == nil {
		return WeatherSummary{}, fmt.Errorf("%w: forecast section missing", ErrMissingData)
	}
	if len(payload.Forecast.ForecastDay) == 0 {
		return WeatherSummary{}, fmt.Errorf("%w: no past weather data available", ErrMissingData)
	}
	if payload.Location == nil {
		return WeatherSummary{}, fmt.Errorf("%w: location section missing", ErrMissingData)
	}

	days, err := dailyTemperatures(payload.Forecast.ForecastDay, window)
	if err != nil {
		return WeatherSummary{}, err
	}
	if len(days) == 0 {
		return WeatherSummary{}, fmt.Errorf("%w: no entries between %s and %s",
			ErrMissingData, window.Start.Format(DateLayout), window.End.Format(DateLayout))
	}

	var (
		sumTemp float64
		hottest = days[0]
		coldest = days[0]
	)

	for _, d := range days {
		sumTemp += d.AverageTempCelsius

		if d.AverageTempCelsius > hottest.AverageTempCelsius ||
			(d.AverageTempCelsius == hottest.AverageTempCelsius && d.Date.Before(hottest.Date)) {
			hottest = d
		}
		if d.AverageTempCelsius < coldest.AverageTempCelsius ||
			(d.AverageTempCelsius == coldest.AverageTempCelsius && d.Date.Before(coldest.Date)) {
			coldest = d
		}
	}

	return WeatherSummary{
		City:               payload.Location.Name,
		AverageTemperature: roundHalfUp(sumTemp/float64(len(days)), 1),
		HottestDay:         hottest.Date.Format(DateLayout),
		ColdestDay:         coldest.Date.Format(DateLayout),
	}, nil
}

// dailyTemperatures keeps the entries that fall within the window, in payload order.
func dailyTemperatures(entries []ForecastDay, window Window) ([]DailyTemperature, error) {
	days := make([]DailyTemperature, 0, len(entries))

	for _, e := range entries {
		date, err := time.Parse(DateLayout, e.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid forecast date %q: %w", e.Date, err)
		}
		if !window.Contains(date) {
			continue
		}

		var avg float64
		if e.Day != nil && e.Day.AvgTempC != nil {
			avg = *e.Day.AvgTempC
		}

		days = append(days, DailyTemperature{
			Date:               date,
			AverageTempCelsius: avg,
		})
	}

	return days, nil
}

// roundHalfUp rounds v to the given number of decimals, with halves going towards +Inf.
func roundHalfUp(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Floor(v*p+0.5) / p
}
