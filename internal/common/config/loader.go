// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads config.yaml (and config.<APP_ENVIRONMENT>.yaml on top of it)
// from ./configs, ../../configs or the working directory. A missing file is
// fine; everything then comes from defaults and the environment.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Zero is meaningful here (no timeout), so it cannot go through applyDefaults.
	v.SetDefault("servicenow.timeout", DefaultServiceNowTimeout)
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if cfg.ServiceNow.Instance != "" {
		instance, err := NormalizeInstance(cfg.ServiceNow.Instance)
		if err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		cfg.ServiceNow.Instance = instance
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up from the working
// directory. Variables already set in the environment win.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				fmt.Fprintf(os.Stderr, "loaded .env from: %s\n", path)
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values. Unset
// variables expand to "" so defaults and the SNOW_* fallbacks still apply.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills credentials from the SNOW_* variables the
// deployment scripts already export.
func overrideEmptyConfig(cfg *Config) {
	if cfg.ServiceNow.Instance == "" {
		if val := os.Getenv("SNOW_INSTANCE"); val != "" {
			cfg.ServiceNow.Instance = val
		}
	}
	if cfg.ServiceNow.Username == "" {
		if val := os.Getenv("SNOW_USERNAME"); val != "" {
			cfg.ServiceNow.Username = val
		}
	}
	if cfg.ServiceNow.Password == "" {
		if val := os.Getenv("SNOW_PASSWORD"); val != "" {
			cfg.ServiceNow.Password = val
		}
	}
	if cfg.Camunda.BrokerAddress == "" {
		if val := os.Getenv("ZEEBE_ADDRESS"); val != "" {
			cfg.Camunda.BrokerAddress = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "snow-search"
	}

	// Server defaults
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8000"
	}
	if len(cfg.Server.CORSAllowedOrigins) == 0 {
		cfg.Server.CORSAllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}

	// Search defaults
	if cfg.Search.DefaultMaxResults == 0 {
		cfg.Search.DefaultMaxResults = DefaultMaxResults
	}
	if cfg.Search.InvalidDate == "" {
		cfg.Search.InvalidDate = InvalidDateFallback
	}
	if cfg.Search.StopWords == "" {
		cfg.Search.StopWords = StopWordsWord
	}
	if cfg.Search.CreatedField == "" {
		cfg.Search.CreatedField = DefaultCreatedField
	}

	// Camunda defaults
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields. ServiceNow
// credentials are checked by ServiceNowConfig.Validate when a client is
// built, so offline commands work without them.
func validateConfig(cfg *Config) error {
	if cfg.Search.DefaultMaxResults < 1 {
		return fmt.Errorf("search.default_max_results must be positive, got %d", cfg.Search.DefaultMaxResults)
	}
	switch cfg.Search.InvalidDate {
	case InvalidDateFallback, InvalidDateReject:
	default:
		return fmt.Errorf("search.invalid_date must be %q or %q, got %q", InvalidDateFallback, InvalidDateReject, cfg.Search.InvalidDate)
	}
	switch cfg.Search.StopWords {
	case StopWordsWord, StopWordsSubstring:
	default:
		return fmt.Errorf("search.stop_words must be %q or %q, got %q", StopWordsWord, StopWordsSubstring, cfg.Search.StopWords)
	}
	if cfg.ServiceNow.Timeout < 0 {
		return fmt.Errorf("servicenow.timeout must not be negative")
	}
	if cfg.ServiceNow.BaseURL != "" && !govalidator.IsURL(cfg.ServiceNow.BaseURL) {
		return fmt.Errorf("servicenow.base_url is not a valid URL: %q", cfg.ServiceNow.BaseURL)
	}
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required when camunda.enabled is set")
	}
	return nil
}

// Validate checks that the remote store can be reached with these settings.
func (s ServiceNowConfig) Validate() error {
	if s.Instance == "" && s.BaseURL == "" {
		return fmt.Errorf("servicenow.instance is required (or SNOW_INSTANCE)")
	}
	if s.Username == "" {
		return fmt.Errorf("servicenow.username is required (or SNOW_USERNAME)")
	}
	if s.Password == "" {
		return fmt.Errorf("servicenow.password is required (or SNOW_PASSWORD)")
	}
	return nil
}

// NormalizeInstance turns "https://acme/", "acme" or "acme.service-now.com"
// into "acme.service-now.com".
func NormalizeInstance(instance string) (string, error) {
	host := strings.ToLower(strings.TrimSpace(instance))
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimRight(host, "/")

	if host == "" {
		return "", fmt.Errorf("servicenow.instance is empty")
	}
	if !strings.HasSuffix(host, InstanceSuffix) {
		host += InstanceSuffix
	}
	if !govalidator.IsDNSName(host) {
		return "", fmt.Errorf("servicenow.instance %q is not a valid host name", instance)
	}
	return host, nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
