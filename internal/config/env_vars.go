package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	baseURLVar     = "BASE_URL"
	logLevelEnvVar = "LOG_LEVEL"
	envEnvVar      = "ENV"
)

// source resolves a key from the environment first, then the config file.
type source map[string]string

func (s source) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value := strings.TrimSpace(s[key]); value != "" {
		return value
	}
	return defaultValue
}

func (s source) getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(s.get(key, ""))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func (s source) getInt(key string, defaultValue int) int {
	i, err := strconv.Atoi(s.get(key, ""))
	if err != nil {
		return defaultValue
	}
	return i
}

type EnvVars struct {
	src source
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.src.get(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.src.get(appNameVar, "ClingClang")
}

// GetBaseURL returns the API origin the client talks to (e.g. "http://localhost:8080").
func (e EnvVars) GetBaseURL() string {
	return strings.TrimRight(e.src.get(baseURLVar, "http://localhost:8080"), "/")
}

func (e EnvVars) GetLogLevel() string {
	return e.src.get(logLevelEnvVar, "info")
}

func (e EnvVars) GetEnv() string {
	return e.src.get(envEnvVar, "DEV")
}

func GetEnv(envVar, defaultValue string) string {
	return source(nil).get(envVar, defaultValue)
}
