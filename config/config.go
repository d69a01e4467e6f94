package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port        string
	FrontendURL string
	LogLevel    string

	StorageType    string // "memory", "sqlite" or "mongo"
	DataSourceName string // sqlite only
	Mongo          MongoConfig
}

type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Load reads configuration from the environment, with an optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("PORT", "5000")
	viper.SetDefault("FRONTEND_URL", "http://localhost:5173")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORAGE_TYPE", "memory")
	viper.SetDefault("DATA_SOURCE_NAME", "collab.db")
	viper.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGODB_DATABASE", "collab-tool")
	viper.SetDefault("MONGODB_TIMEOUT", 10)

	return &Config{
		Port:           viper.GetString("PORT"),
		FrontendURL:    viper.GetString("FRONTEND_URL"),
		LogLevel:       viper.GetString("LOG_LEVEL"),
		StorageType:    viper.GetString("STORAGE_TYPE"),
		DataSourceName: viper.GetString("DATA_SOURCE_NAME"),
		Mongo: MongoConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
	}
}
