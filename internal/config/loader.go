package config

import (
	"log"

	"github.com/rpattn/werkimport/internal/db"

	"github.com/spf13/viper"
)

// LoadDBConfig reads connection settings from an optional config.yaml in
// configPath, with DB_-prefixed environment variables taking precedence
// (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME, DB_SSLMODE).
func LoadDBConfig(configPath string) (db.Config, error) {
	cfg := db.DefaultConfig()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("DB")

	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.port", "DB_PORT")
	v.BindEnv("database.user", "DB_USER")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("database.dbname", "DB_NAME")
	v.BindEnv("database.sslmode", "DB_SSLMODE")

	if err := v.ReadInConfig(); err != nil {
		// Config file is optional; defaults plus env vars are enough.
		log.Printf("no config.yaml found, using defaults and environment")
	}

	if v.IsSet("database.host") {
		cfg.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.SSLMode = v.GetString("database.sslmode")
	}

	return cfg, nil
}
