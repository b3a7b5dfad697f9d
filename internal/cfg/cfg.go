package cfg

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"claimsight/internal/common"

	"gopkg.in/yaml.v3"
)

type Settings struct {
	ListenPort     int
	MaxUploadBytes int64
	DataPath       string
	BlobEndpoint   string
	BlobBucket     string
	PendingLabel   string
	DeniedLabel    string
	Trees          int
	MaxDepth       int
	Seed           int64
	RESTTimeout    time.Duration
}

type ConfigFile struct {
	Server struct {
		ListenPort     int   `yaml:"listenPort"`
		MaxUploadBytes int64 `yaml:"maxUploadBytes"`
	} `yaml:"server"`

	Pipeline struct {
		PendingLabel string `yaml:"pendingLabel"`
		DeniedLabel  string `yaml:"deniedLabel"`
		Trees        int    `yaml:"trees"`
		MaxDepth     int    `yaml:"maxDepth"`
		Seed         int64  `yaml:"seed"`
	} `yaml:"pipeline"`

	Blob struct {
		Endpoint string `yaml:"endpoint"`
		Bucket   string `yaml:"bucket"`
	} `yaml:"blob"`

	System struct {
		DataPath    string `yaml:"dataPath"`
		RESTTimeout string `yaml:"restTimeout"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	restTimeout, err := time.ParseDuration(config.System.RESTTimeout)
	if err != nil {
		restTimeout = 5 * time.Second
	}

	settings := Settings{
		ListenPort:     getIntFromEnvOrConfig(common.EnvListenPort, config.Server.ListenPort, 8000),
		MaxUploadBytes: getInt64FromEnvOrConfig(common.EnvMaxUploadBytes, config.Server.MaxUploadBytes, 10<<20),
		DataPath:       getEnvOrDefault(common.EnvDataPath, config.System.DataPath),
		BlobEndpoint:   getEnvOrDefault(common.EnvBlobEndpoint, config.Blob.Endpoint),
		BlobBucket:     getEnvOrDefault(common.EnvBlobBucket, config.Blob.Bucket),
		PendingLabel:   stringOrDefault(getEnvOrDefault(common.EnvPendingLabel, config.Pipeline.PendingLabel), "Pending"),
		DeniedLabel:    stringOrDefault(getEnvOrDefault(common.EnvDeniedLabel, config.Pipeline.DeniedLabel), "Denied"),
		Trees:          getIntFromEnvOrConfig(common.EnvForestTrees, config.Pipeline.Trees, 100),
		MaxDepth:       getIntFromEnvOrConfig(common.EnvForestMaxDepth, config.Pipeline.MaxDepth, 5),
		Seed:           getInt64FromEnvOrConfig(common.EnvForestSeed, config.Pipeline.Seed, 42),
		RESTTimeout:    restTimeout,
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ListenPort:     getIntOrDefault(common.EnvListenPort, 8000),
		MaxUploadBytes: getInt64OrDefault(common.EnvMaxUploadBytes, 10<<20),
		DataPath:       os.Getenv(common.EnvDataPath), // optional
		BlobEndpoint:   os.Getenv(common.EnvBlobEndpoint),
		BlobBucket:     os.Getenv(common.EnvBlobBucket),
		PendingLabel:   getEnvOrDefault(common.EnvPendingLabel, "Pending"),
		DeniedLabel:    getEnvOrDefault(common.EnvDeniedLabel, "Denied"),
		Trees:          getIntOrDefault(common.EnvForestTrees, 100),
		MaxDepth:       getIntOrDefault(common.EnvForestMaxDepth, 5),
		Seed:           getInt64OrDefault(common.EnvForestSeed, 42),
		RESTTimeout:    getDurationOrDefault(common.EnvRESTTimeout, 5*time.Second),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func stringOrDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getInt64FromEnvOrConfig(key string, configValue, defaultValue int64) int64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseInt(env, 10, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

// validateSettings performs validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.ListenPort < 1 || settings.ListenPort > 65535 {
		return fmt.Errorf("listen port must be between 1 and 65535, got %d", settings.ListenPort)
	}
	if settings.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive, got %d", settings.MaxUploadBytes)
	}
	if settings.PendingLabel == "" || settings.DeniedLabel == "" {
		return fmt.Errorf("pending and denied labels cannot be empty")
	}
	if settings.PendingLabel == settings.DeniedLabel {
		return fmt.Errorf("pending and denied labels must differ, both are %q", settings.PendingLabel)
	}
	if settings.Trees < 1 || settings.Trees > 1000 {
		return fmt.Errorf("forest size must be between 1 and 1000 trees, got %d", settings.Trees)
	}
	if settings.MaxDepth < 1 || settings.MaxDepth > 64 {
		return fmt.Errorf("max tree depth must be between 1 and 64, got %d", settings.MaxDepth)
	}
	if settings.RESTTimeout < time.Second || settings.RESTTimeout > time.Minute {
		return fmt.Errorf("REST timeout must be between 1s and 1m, got %v", settings.RESTTimeout)
	}
	if (settings.BlobEndpoint == "") != (settings.BlobBucket == "") {
		return fmt.Errorf("blob endpoint and bucket must be configured together")
	}
	return nil
}
