// internal/common/config/config.go
package config

import "strings"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig               `mapstructure:"app"`
	Server     ServerConfig            `mapstructure:"server"`
	ServiceNow ServiceNowConfig        `mapstructure:"servicenow"`
	Search     SearchConfig            `mapstructure:"search"`
	Camunda    CamundaConfig           `mapstructure:"camunda"`
	Workers    map[string]WorkerConfig `mapstructure:"workers"`
	Logging    LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the inbound HTTP listener settings.
type ServerConfig struct {
	Address            string   `mapstructure:"address"`
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	ReadTimeout        int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout       int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout    int      `mapstructure:"shutdown_timeout"` // milliseconds
}

// ServiceNowConfig holds the remote record store connection.
type ServiceNowConfig struct {
	Instance string `mapstructure:"instance"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// BaseURL replaces https://<instance> entirely, e.g. for a proxy.
	BaseURL string `mapstructure:"base_url"`

	// Timeout bounds a single remote call in milliseconds. 0 disables it.
	Timeout int `mapstructure:"timeout"`
}

// URL returns the scheme and host the Table API lives under.
func (s ServiceNowConfig) URL() string {
	if s.BaseURL != "" {
		return strings.TrimRight(s.BaseURL, "/")
	}
	return "https://" + s.Instance
}

// SearchConfig tunes query interpretation.
type SearchConfig struct {
	RegistryPath      string `mapstructure:"registry_path"`
	DefaultMaxResults int    `mapstructure:"default_max_results"`
	InvalidDate       string `mapstructure:"invalid_date"` // fallback | reject
	StopWords         string `mapstructure:"stop_words"`   // word | substring
	CreatedField      string `mapstructure:"created_field"`
}

type CamundaConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	BrokerAddress string `mapstructure:"broker_address"`
	TLS           bool   `mapstructure:"tls"`
	MaxJobsActive int    `mapstructure:"max_jobs_active"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	InvalidDateFallback = "fallback"
	InvalidDateReject   = "reject"

	StopWordsWord      = "word"
	StopWordsSubstring = "substring"

	DefaultServiceNowTimeout = 30000
	DefaultMaxResults        = 100
	DefaultCreatedField      = "sys_created_on"
	InstanceSuffix           = ".service-now.com"
)
