package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Session  SessionConfig
	Logger   LoggerConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DataConfig selects where tables are read from and how they are
// interpreted.
type DataConfig struct {
	Policy     string
	Dir        string
	SearchDirs []string
	Seed       uint64
	LeaderRule string
	Workers    int
}

type SessionConfig struct {
	CookieName   string
	IdleTimeout  time.Duration
	SecureCookie bool
	// MaxSessions caps how many sessions keep a built dataset in memory.
	MaxSessions int
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

const (
	PolicyStrict  = "strict"
	PolicyLenient = "lenient"

	LeaderRuleContains = "contains"
	LeaderRuleExact    = "exact"
)

// Load reads configuration from the environment. A .env file in the working
// directory, when present, is applied first without overriding variables that
// are already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8501),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Data: DataConfig{
			Policy:     strings.ToLower(getEnvString("DATA_POLICY", PolicyLenient)),
			Dir:        getEnvString("DATA_DIR", "../data"),
			SearchDirs: getEnvStringSlice("DATA_SEARCH_DIRS", []string{".", "data"}),
			Seed:       getEnvUint64("SAMPLE_SEED", 42),
			LeaderRule: strings.ToLower(getEnvString("LEADER_RULE", "")),
			Workers:    getEnvInt("DATA_LOAD_WORKERS", 4),
		},
		Session: SessionConfig{
			CookieName:   getEnvString("SESSION_COOKIE_NAME", "sid"),
			IdleTimeout:  getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
			SecureCookie: getEnvBool("SESSION_SECURE_COOKIE", false),
			MaxSessions:  getEnvInt("SESSION_MAX", 256),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 20),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8501"}),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
	}

	if cfg.Data.LeaderRule == "" {
		cfg.Data.LeaderRule = defaultLeaderRule(cfg.Data.Policy)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// defaultLeaderRule pairs each loading policy with the role rule its data
// was labelled for.
func defaultLeaderRule(policy string) string {
	if policy == PolicyStrict {
		return LeaderRuleExact
	}
	return LeaderRuleContains
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	validPolicies := []string{PolicyStrict, PolicyLenient}
	if !slices.Contains(validPolicies, c.Data.Policy) {
		return fmt.Errorf("invalid data policy %q, must be one of: %s", c.Data.Policy, strings.Join(validPolicies, ", "))
	}

	if c.Data.Policy == PolicyStrict && c.Data.Dir == "" {
		return fmt.Errorf("data dir cannot be empty with the strict policy")
	}

	if c.Data.Policy == PolicyLenient && len(c.Data.SearchDirs) == 0 {
		return fmt.Errorf("data search dirs cannot be empty with the lenient policy")
	}

	validRules := []string{LeaderRuleContains, LeaderRuleExact}
	if !slices.Contains(validRules, c.Data.LeaderRule) {
		return fmt.Errorf("invalid leader rule %q, must be one of: %s", c.Data.LeaderRule, strings.Join(validRules, ", "))
	}

	if c.Data.Workers <= 0 {
		return fmt.Errorf("data load workers must be positive")
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("session cookie name cannot be empty")
	}

	if c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("session idle timeout must be positive")
	}

	if c.Session.MaxSessions <= 0 {
		return fmt.Errorf("session max must be positive")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if u, err := strconv.ParseUint(value, 10, 64); err == nil {
			return u
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
