package config

import "os"

const (
	appNameVar    = "APP_NAME"
	apiBaseURLVar = "API_BASE_URL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Crewdock")
}

// GetAPIBaseURL returns the platform API root (e.g. "https://api.crewdock.io").
// All auth endpoints hang off this prefix.
func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "http://localhost:8080")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
