package classify

import (
	"strings"

	"github.com/elaw611/isy-bridge/internal/isy"
)

// weatherSchema lists the measurement attributes the controller's
// weather module can report, in presentation order. Only schema
// attributes that arrive together with a units sibling become entries;
// unitless extras like sunrise/sunset stay unmodelled.
var weatherSchema = []string{
	"temperature",
	"temperature_high",
	"temperature_low",
	"feels_like",
	"temperature_rate",
	"humidity",
	"humidity_rate",
	"pressure",
	"pressure_rate",
	"dew_point",
	"wind_speed",
	"wind_direction",
	"gust_speed",
	"total_rain_today",
	"light",
	"light_rate",
	"rain_rate",
	"max_rain_rate",
	"evapotranspiration",
	"irrigation_requirement",
	"water_deficit_yesterday",
	"elevation",
}

// ClassifyWeather builds weather entries from the climate data.
//
// Labels are the attribute names with underscores replaced by spaces;
// the order follows the schema, so entry order is stable regardless of
// how the controller orders its response.
func (c *Classifier) ClassifyWeather(res *Result, climate *isy.Climate) {
	for _, attr := range weatherSchema {
		if !climate.Has(attr) || !climate.Has(attr+"_units") {
			continue
		}
		res.Weather = append(res.Weather, WeatherEntry{
			Label: strings.ReplaceAll(attr, "_", " "),
			Value: climate.Get(attr),
			Unit:  climate.Get(attr + "_units"),
		})
	}

	c.logInfo("weather classification complete", "entries", len(res.Weather))
}
