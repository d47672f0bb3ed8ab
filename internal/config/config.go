// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds settings for both the agent and the store server. The backend
// URL and API key are always supplied here (file or environment), never
// compiled in.
type Config struct {
	Store struct {
		URL    string `mapstructure:"url"`
		APIKey string `mapstructure:"api_key"`
	} `mapstructure:"store"`
	Scan struct {
		Window        time.Duration `mapstructure:"window"`
		Cadence       time.Duration `mapstructure:"cadence"`
		RSSIThreshold int           `mapstructure:"rssi_threshold"`
		FeedURL       string        `mapstructure:"feed_url"`
		DefaultLat    float64       `mapstructure:"default_lat"`
		DefaultLon    float64       `mapstructure:"default_lon"`
	} `mapstructure:"scan"`
	Reconcile struct {
		Proximity       float64       `mapstructure:"proximity"`
		Staleness       time.Duration `mapstructure:"staleness"`
		JanitorInterval time.Duration `mapstructure:"janitor_interval"`
	} `mapstructure:"reconcile"`
	Server struct {
		Port    int      `mapstructure:"port"`
		DBPath  string   `mapstructure:"db_path"`
		APIKeys []string `mapstructure:"api_keys"`
	} `mapstructure:"server"`
}

// Load reads config.yaml from path, applying env overrides and defaults for
// anything the file leaves out. A missing file is not an error; the defaults
// are a runnable local setup.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.SetEnvPrefix("crowdsense")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.url", "http://localhost:8080")
	v.SetDefault("store.api_key", "")

	v.SetDefault("scan.window", 2*time.Second)
	v.SetDefault("scan.cadence", 30*time.Second)
	v.SetDefault("scan.rssi_threshold", -70)
	v.SetDefault("scan.feed_url", "ws://localhost:9100/advertisements")
	v.SetDefault("scan.default_lat", 0.0)
	v.SetDefault("scan.default_lon", 0.0)

	v.SetDefault("reconcile.proximity", 0.01)
	v.SetDefault("reconcile.staleness", 30*time.Minute)
	v.SetDefault("reconcile.janitor_interval", time.Minute)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.db_path", "crowdsense.sqlite3")
	v.SetDefault("server.api_keys", []string{})
}
