package fusion

import (
	"github.com/shadowfleet/aisforensics/pkg/models"
)

const (
	weatherSpeedGateKn = 15.0
	weatherHighWindKn = 40.0
	weatherModerateWindKn = 25.0

	weatherHighWindDeduction = -15
	weatherModerateWindDeduction = -8

	weatherAppliesToSpeedAnomalyOnly = "speed_anomaly_only"
)

// WeatherDeduction is a single weather-correlation signal: evidence
// that a fast-moving point's apparent anomaly is explained by wind, not
// evasion. It carries an explicit applies_to tag so the scorer only
// applies it when a speed anomaly signal actually fired on the gap.
type WeatherDeduction struct {
	Signal string
	Score int
	AppliesTo string
}

// EvaluateWeatherCorrelation fetches wind speed at the point and returns
// a deduction if the point's sog exceeds 15kn and wind exceeds the high
// or moderate thresholds. Returns ok=false if the point doesn't qualify
// or the external weather lookup has no data.
func EvaluateWeatherCorrelation(point models.AISPoint, repo Repository) (WeatherDeduction, bool) {
	if point.SOG <= weatherSpeedGateKn {
		return WeatherDeduction{}, false
	}
	windKn, ok := repo.WeatherAt(point.Lat, point.Lon, point.TimestampUTC)
	if !ok {
		return WeatherDeduction{}, false
	}

	switch {
	case windKn > weatherHighWindKn:
		return WeatherDeduction{Signal: "weather_high_wind", Score: weatherHighWindDeduction, AppliesTo: weatherAppliesToSpeedAnomalyOnly}, true
	case windKn > weatherModerateWindKn:
		return WeatherDeduction{Signal: "weather_moderate_wind", Score: weatherModerateWindDeduction, AppliesTo: weatherAppliesToSpeedAnomalyOnly}, true
	default:
		return WeatherDeduction{}, false
	}
}

// ApplyWeatherDeduction folds a weather deduction into a gap's score
// breakdown, but only if a speed anomaly signal already fired — the
// deduction explains away a speed reading, so it must never apply in
// its absence.
func ApplyWeatherDeduction(b *models.ScoreBreakdown, deduction WeatherDeduction, speedAnomalyFired bool) {
	if !speedAnomalyFired {
		return
	}
	b.Add(deduction.Signal, deduction.Score)
}
