package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigFileEnvVar names an optional YAML file whose keys overlay the defaults.
// Environment variables always win over the file.
const ConfigFileEnvVar = "CLINGCLANG_CONFIG"

type Config interface {
	EnvConfig
	CorsConfig
	ClientConfig
	TokenConfig
	SeedConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetLogLevel() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Client
	Token
	Seed
}

// New reads configuration from the environment, overlaid on the file named by
// CLINGCLANG_CONFIG when it is set.
func New() (Config, error) {
	path := os.Getenv(ConfigFileEnvVar)
	if path == "" {
		return newConfig(nil), nil
	}
	return NewFromFile(path)
}

// NewFromFile reads a flat YAML map (keys are the environment variable names)
// and uses it as the fallback for every getter.
func NewFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[config NewFromFile] reading %s: %w", path, err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("[config NewFromFile] parsing %s: %w", path, err)
	}
	return newConfig(values), nil
}

func newConfig(values map[string]string) Config {
	src := source(values)
	return mainConfig{
		EnvVars: EnvVars{src: src},
		Cors:    Cors{src: src},
		Client:  Client{src: src},
		Token:   Token{src: src},
		Seed:    Seed{src: src},
	}
}
