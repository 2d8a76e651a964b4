package models

// Location is the first geocoding match for a city name.
type Location struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Temperature struct {
	Day float64 `json:"day"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type Condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	IconURL     string `json:"icon_url"`
}

// DailyForecastEntry is one forecast day. Humidity and WindSpeed are not
// populated by the forecast provider and stay zero.
type DailyForecastEntry struct {
	Timestamp   int64       `json:"dt"`
	Temperature Temperature `json:"temp"`
	Weather     []Condition `json:"weather"`
	Humidity    float64     `json:"humidity"`
	WindSpeed   float64     `json:"wind_speed"`
}

// Condition returns the entry's primary condition.
func (e DailyForecastEntry) Condition() Condition {
	if len(e.Weather) == 0 {
		return Condition{}
	}
	return e.Weather[0]
}

type City struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

type ForecastResponse struct {
	Daily []DailyForecastEntry `json:"daily"`
	City  City                 `json:"city"`
}

// RawForecast holds the provider's index-aligned daily series.
type RawForecast struct {
	Time           []string
	WeatherCode    []int
	TemperatureMax []float64
	TemperatureMin []float64
}

// Len returns the series length, or -1 when the series are not aligned.
func (r *RawForecast) Len() int {
	n := len(r.Time)
	if len(r.WeatherCode) != n || len(r.TemperatureMax) != n || len(r.TemperatureMin) != n {
		return -1
	}
	return n
}
