// Package config loads process configuration from environment variables,
// grounded on cmd/engine/main.go's requireEnv/getEnvOrDefault pattern,
// plus the frozen, hash-stamped scoring config (scoring_config.go).
package config

import (
	"log"
	"os"
	"strconv"
)

// RequireEnv reads a required environment variable and exits the process
// if it is unset — matching the prior fail-fast boot contract for
// security-sensitive values.
func RequireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set.", key)
	}
	return val
}

// GetEnvOrDefault returns the env var value or a safe default for
// non-secret settings.
func GetEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// GetEnvBool returns a feature-flag boolean, defaulting to def if unset
// or unparsable.
func GetEnvBool(key string, def bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}

// GetEnvIntOrDefault returns a positive integer env var (e.g. max upload
// size in MB) or a default.
func GetEnvIntOrDefault(key string, def int) int {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// FeatureFlags gates the optional detection modules named throughout
// (stale AIS, dark-dark STS, fusion modules, weather
// correlation).
type FeatureFlags struct {
	StaleAISDetection bool
	DarkDarkSTS bool
	ConvoyDetection bool
	BehavioralFingerprint bool
	VoyagePrediction bool
	WeatherCorrelation bool
	SharedISMManagerSignal bool
	SharedPIClubSignal bool
}

// LoadFeatureFlags reads every feature flag from its own env var,
// defaulting each to enabled except weather correlation and the opt-in
// ISM/P&I signals.
func LoadFeatureFlags() FeatureFlags {
	return FeatureFlags{
		StaleAISDetection: GetEnvBool("FEATURE_STALE_AIS", true),
		DarkDarkSTS: GetEnvBool("FEATURE_DARK_DARK_STS", true),
		ConvoyDetection: GetEnvBool("FEATURE_CONVOY", true),
		BehavioralFingerprint: GetEnvBool("FEATURE_FINGERPRINT", true),
		VoyagePrediction: GetEnvBool("FEATURE_VOYAGE_PREDICTION", true),
		WeatherCorrelation: GetEnvBool("FEATURE_WEATHER", false),
		SharedISMManagerSignal: GetEnvBool("FEATURE_SHARED_ISM_MANAGER", false),
		SharedPIClubSignal: GetEnvBool("FEATURE_SHARED_PI_CLUB", false),
	}
}
