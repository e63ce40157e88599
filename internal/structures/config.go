package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type Account struct {
	ID           string        `yaml:"id" validate:"required"`
	Label        string        `yaml:"label"`
	Token        string        `yaml:"token"`
	PollInterval time.Duration `yaml:"pollInterval"`
}

type UpstreamConfig struct {
	BaseURL      string        `yaml:"baseUrl" validate:"required|fullUrl"`
	Token        string        `yaml:"token"`
	FetchTimeout time.Duration `yaml:"fetchTimeout" validate:"required|min:1"`
	UserAgent    string        `yaml:"userAgent"`
}

type PollConfig struct {
	Interval         time.Duration `yaml:"interval" validate:"required|min:1"`
	MaxPagesPerCycle int           `yaml:"maxPagesPerCycle"`
	BackoffBase      time.Duration `yaml:"backoffBase"`
	BackoffMax       time.Duration `yaml:"backoffMax"`
}

type Persistence struct {
	FilePath     string        `yaml:"filePath"`
	SaveInterval time.Duration `yaml:"saveInterval"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

type Config struct {
	AppName     string
	Debug       bool
	Path        string
	Accounts    []Account      `yaml:"accounts" validate:"required"`
	Upstream    UpstreamConfig `yaml:"upstream"`
	Poll        PollConfig     `yaml:"poll"`
	WebServer   Server         `yaml:"webServer"`
	Persistence Persistence    `yaml:"persistence"`
	Logger      LoggerConfig   `yaml:"logger"`
	Cache       CacheConfig    `yaml:"cache"`
	Metrics     MetricsConfig  `yaml:"metrics"`
}

// IntervalFor returns the poll interval for one account, falling back to the
// global default when no override is configured.
func (c *Config) IntervalFor(acc *Account) time.Duration {
	if acc.PollInterval > 0 {
		return acc.PollInterval
	}
	return c.Poll.Interval
}

// TokenFor returns the credential used to poll one account. Accounts may
// carry their own token; otherwise the shared upstream token is used.
func (c *Config) TokenFor(acc *Account) string {
	if acc.Token != "" {
		return acc.Token
	}
	return c.Upstream.Token
}
