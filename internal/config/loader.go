package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads config.yaml from configPath and overlays it on the shipped
// defaults. Environment variables override both, prefixed FIELDPIPE
// (e.g. FIELDPIPE_DATABASE_HOST).
func Load(configPath string) (Settings, error) {
	// Start with defaults
	settings := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("FIELDPIPE")

	v.BindEnv("server.addr")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("pipeline.match_mode")
	v.BindEnv("pipeline.storage_driver")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found? Just log it, use defaults + env
		fmt.Println("No config.yaml found, using defaults and env vars")
	} else {
		fmt.Println("Loaded config.yaml")
	}

	if v.IsSet("server.addr") {
		settings.Server.Addr = v.GetString("server.addr")
	}
	if v.IsSet("server.allowed_origins") {
		settings.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}

	if v.IsSet("database.host") {
		settings.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		settings.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		settings.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		settings.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		settings.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		settings.Database.SSLMode = v.GetString("database.sslmode")
	}

	if v.IsSet("pipeline.match_mode") {
		settings.Pipeline.MatchMode = v.GetString("pipeline.match_mode")
	}
	if v.IsSet("pipeline.key_field") {
		settings.Pipeline.KeyField = v.GetString("pipeline.key_field")
	}
	if v.IsSet("pipeline.storage_driver") {
		settings.Pipeline.StorageDriver = v.GetString("pipeline.storage_driver")
	}
	if v.IsSet("pipeline.required_fields") {
		settings.Pipeline.RequiredFields = v.GetStringSlice("pipeline.required_fields")
	}
	if v.IsSet("pipeline.rules") {
		rules := make(map[string]Rule)
		if err := v.UnmarshalKey("pipeline.rules", &rules); err != nil {
			return settings, fmt.Errorf("failed to read pipeline.rules: %w", err)
		}
		settings.Pipeline.Rules = rules
	}
	if v.IsSet("pipeline.mappings") {
		mappings := settings.Pipeline.Mappings
		loaded := make(map[string][]mappingEntry)
		if err := v.UnmarshalKey("pipeline.mappings", &loaded); err != nil {
			return settings, fmt.Errorf("failed to read pipeline.mappings: %w", err)
		}
		for name, entries := range loaded {
			mappings[name] = targetsFromEntries(entries)
		}
		settings.Pipeline.Mappings = mappings
	}

	return settings, nil
}
