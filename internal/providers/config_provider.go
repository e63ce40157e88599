package providers

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"trwlexporter/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.SetDefault("webServer.host", "0.0.0.0")
	viper.SetDefault("webServer.port", 3000)
	viper.SetDefault("upstream.baseUrl", "https://traewelling.de/api/v1")
	viper.SetDefault("upstream.fetchTimeout", 10*time.Second)
	viper.SetDefault("poll.interval", 60*time.Second)
	viper.SetDefault("poll.maxPagesPerCycle", 10)
	viper.SetDefault("poll.backoffBase", time.Second)
	viper.SetDefault("poll.backoffMax", 5*time.Minute)
	viper.SetDefault("cache.ttl", 2*time.Second)
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.namespace", "traewelling")

	viper.BindEnv("logger.level", "TRWL_LOG_LEVEL")
	viper.BindEnv("upstream.baseUrl", "TRWL_API_URL")
	viper.BindEnv("upstream.token", "TRWL_TOKEN")
	viper.BindEnv("poll.interval", "TRWL_POLL_INTERVAL")
	viper.BindEnv("cache.enabled", "TRWL_CACHE_ENABLED")
	viper.BindEnv("cache.size", "TRWL_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	for i := range conf.Accounts {
		acc := &conf.Accounts[i]
		acc.ID = strings.TrimSpace(cast.ToString(acc.ID))
		if acc.Label == "" {
			acc.Label = acc.ID
		}
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "TraewellingExporter"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
