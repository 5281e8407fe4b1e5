// This file defines the configuration structure for the application.
package config

import (
	// use Viper for loading the config.yml file.
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port         int `mapstructure:"port"`
	SyncInterval int `mapstructure:"sync_interval"` // minutes between scheduled catalog syncs, 0 disables
	Database     struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Source struct {
		BaseURL   string `mapstructure:"base_url"`
		PageLimit int    `mapstructure:"page_limit"` // max listing pages per crawl, 0 means all
		Workers   int    `mapstructure:"workers"`
		CacheSize int    `mapstructure:"cache_size"`
		CacheTTL  int    `mapstructure:"cache_ttl"` // seconds
	} `mapstructure:"source"`
	Media struct {
		Endpoint  string `mapstructure:"endpoint"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		Bucket    string `mapstructure:"bucket"`
		UseSSL    bool   `mapstructure:"use_ssl"`
	} `mapstructure:"media"`
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
func Load() (*Config, error) {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or "yaml"
	viper.AddConfigPath(".")      // looking for config in the current directory

	// --- Environment Variable Overrides ---
	// This tells Viper to look for environment variables with a "MANGALIB_" prefix.
	// e.g., MANGALIB_DATABASE_PATH will override the `database.path` key.
	viper.SetEnvPrefix("MANGALIB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("port", 8080)
	viper.SetDefault("sync_interval", 360)
	viper.SetDefault("database.path", "./mangalib.db")
	viper.SetDefault("source.base_url", "https://manganato.com")
	viper.SetDefault("source.page_limit", 0)
	viper.SetDefault("source.workers", 4)
	viper.SetDefault("source.cache_size", 100)
	viper.SetDefault("source.cache_ttl", 120)
	viper.SetDefault("media.endpoint", "localhost:9000")
	viper.SetDefault("media.bucket", "mangalib.thumbnails")
	viper.SetDefault("media.use_ssl", false)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error and use defaults
		} else {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
