package varyproxy

import (
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"

	responsetransformer "github.com/varyproxy/varyproxy/pkg/response-transformer"
)

// FileConfig is the on-disk shape of the engine's configuration,
// loaded by viper from a YAML file plus CLI flags and env vars. The
// file is watched via fsnotify; a change is logged and takes effect
// only after a restart.
type FileConfig struct {
	Origin           string        `mapstructure:"origin"`
	OriginHost       string        `mapstructure:"origin_host"`
	Listen           string        `mapstructure:"listen"`
	DBFile           string        `mapstructure:"db_file"`
	MaxRestarts      int           `mapstructure:"max_restarts"`
	SessionLinger    time.Duration `mapstructure:"session_linger"`
	LRUTimeout       time.Duration `mapstructure:"lru_timeout"`
	GzipSupport      bool          `mapstructure:"gzip_support"`
	DisableUpdates   bool          `mapstructure:"disable_updates"`
	WthreadStatsRate uint64        `mapstructure:"wthread_stats_rate"`
	MetricsListen    string        `mapstructure:"metrics_listen"`
	RulesFile        string        `mapstructure:"rules_file"`
	StreamThreshold  int64         `mapstructure:"stream_threshold"`
}

func defaultFileConfig() FileConfig {
	return FileConfig{
		Listen:           ":8080",
		DBFile:           "cache.db",
		MaxRestarts:      4,
		SessionLinger:    2 * time.Second,
		LRUTimeout:       2 * time.Second,
		GzipSupport:      true,
		WthreadStatsRate: 1000,
		MetricsListen:    ":9090",
		StreamThreshold:  1 << 20,
	}
}

// LoadFileConfig reads configuration from v, which the caller has
// already pointed at a config file, flags, and env vars (see
// cmd/varyproxy). fsnotify-driven live reload is the caller's
// responsibility via v.OnConfigChange / v.WatchConfig.
func LoadFileConfig(v *viper.Viper) (FileConfig, error) {
	fc := defaultFileConfig()
	if err := v.Unmarshal(&fc); err != nil {
		return fc, fmt.Errorf("unmarshal config: %w", err)
	}
	if fc.Origin == "" {
		return fc, fmt.Errorf("origin is required")
	}
	return fc, nil
}

// ToEngineConfig resolves a FileConfig into the Config NewEngine
// consumes, parsing the origin URL and wiring in the already-opened
// cache backend.
func (fc FileConfig) ToEngineConfig() (Config, error) {
	originURL, err := url.Parse(fc.Origin)
	if err != nil {
		return Config{}, fmt.Errorf("parse origin: %w", err)
	}
	rules, err := responsetransformer.LoadRulesFile(fc.RulesFile)
	if err != nil {
		return Config{}, err
	}
	return Config{
		OriginURL:        *originURL,
		OriginHost:       fc.OriginHost,
		MaxRestarts:      fc.MaxRestarts,
		SessionLinger:    fc.SessionLinger,
		LRUTimeout:       fc.LRUTimeout,
		GzipSupport:      fc.GzipSupport,
		DisableUpdates:   fc.DisableUpdates,
		WthreadStatsRate: fc.WthreadStatsRate,
		ResponseRules:    rules,
		StreamThreshold:  fc.StreamThreshold,
	}, nil
}
