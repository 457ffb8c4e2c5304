package ciutil

import (
	"fmt"
	"log/slog"
	"net/url"
)

// Connection defaults of the CI database service.
const (
	StandardCIUser     = "postgres"
	StandardCIPassword = "postgres"
	StandardCIDatabase = "lexis_test"
	StandardCIOptions  = "sslmode=disable"
)

// GetTestDatabaseURL returns the integration test database URL, or "" when
// none is configured. In CI the credentials, database name and options are
// normalized to the CI service defaults.
func GetTestDatabaseURL(logger *slog.Logger) string {
	dbURL := GetEnvWithFallbacks([]string{EnvTestDBURL, EnvLexisDBURL, EnvDatabaseURL}, "", logger)
	if dbURL == "" || !IsCI() {
		return dbURL
	}

	standardized, err := standardizeDatabaseURL(dbURL)
	if err != nil {
		if logger != nil {
			logger.Error("failed to standardize database URL",
				slog.String("error", err.Error()),
				slog.String("url", MaskSensitiveValue(dbURL)))
		}
		return dbURL
	}
	return standardized
}

// standardizeDatabaseURL rewrites a postgres URL to the CI credentials and
// fills in a missing database name and query options.
func standardizeDatabaseURL(dbURL string) (string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return dbURL, nil
	}

	u.User = url.UserPassword(StandardCIUser, StandardCIPassword)
	if u.Path == "" || u.Path == "/" {
		u.Path = "/" + StandardCIDatabase
	}
	if u.RawQuery == "" {
		u.RawQuery = StandardCIOptions
	}
	return u.String(), nil
}
