// Package config содержит логику чтения конфигурации сервера и клиента cookie breaks.
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	defaultRunAddress = ":8000"
	defaultTokenTTL   = 30 * time.Minute
	defaultAPIURL     = "http://localhost:8000"
	defaultAPIVersion = "v1"
	defaultTimeout    = 10 * time.Second
)

// Config содержит параметры конфигурации сервера cookie breaks.
type Config struct {
	RunAddress  string        `env:"RUN_ADDRESS"`
	DatabaseURI string        `env:"DATABASE_URI"`
	SecretKey   string        `env:"SECRET_KEY"`
	TokenTTL    time.Duration `env:"TOKEN_TTL"`

	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	BreakLocation   string `env:"BREAK_LOCATION"`
	BreakDay        string `env:"BREAK_DAY" envDefault:"thursday"`
	BreakTime       string `env:"BREAK_TIME" envDefault:"15:00"`
	BreakTimezone   string `env:"BREAK_TIMEZONE" envDefault:"Europe/London"`
	BreakWeeksAhead int    `env:"BREAK_WEEKS_AHEAD" envDefault:"4"`
}

// ClientConfig содержит параметры конфигурации консольного клиента.
type ClientConfig struct {
	APIURL     string        `env:"COOKIEBREAKS_API_URL"`
	APIVersion string        `env:"COOKIEBREAKS_API_VERSION"`
	Username   string        `env:"COOKIEBREAKS_USERNAME"`
	Password   string        `env:"COOKIEBREAKS_PASSWORD"`
	Timeout    time.Duration `env:"COOKIEBREAKS_TIMEOUT"`
	Debug      bool          `env:"COOKIEBREAKS_DEBUG"`
}

// loadDotEnv подгружает переменные из файла .env, если он есть. Уже заданные переменные не перезаписываются.
func loadDotEnv() {
	_ = godotenv.Load()
}

// Parse считывает конфигурацию сервера из .env, флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	loadDotEnv()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envSecretKey := cfg.SecretKey
	envTokenTTL := cfg.TokenTTL

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.SecretKey, "k", "", "secret key for signing access tokens")
	flag.DurationVar(&cfg.TokenTTL, "ttl", defaultTokenTTL, "access token lifetime")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envSecretKey != "" {
		cfg.SecretKey = envSecretKey
	}
	if envTokenTTL > 0 {
		cfg.TokenTTL = envTokenTTL
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}

	if _, err := cfg.Weekday(); err != nil {
		return nil, err
	}
	if _, _, err := cfg.Clock(); err != nil {
		return nil, err
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Weekday возвращает день недели, в который проводятся перерывы.
func (c *Config) Weekday() (time.Weekday, error) {
	d, ok := weekdays[strings.ToLower(strings.TrimSpace(c.BreakDay))]
	if !ok {
		return 0, fmt.Errorf("invalid BREAK_DAY %q", c.BreakDay)
	}
	return d, nil
}

// Clock возвращает время начала перерыва (часы и минуты).
func (c *Config) Clock() (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(c.BreakTime))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid BREAK_TIME %q (want HH:MM): %w", c.BreakTime, err)
	}
	return t.Hour(), t.Minute(), nil
}

// Location возвращает часовой пояс расписания перерывов.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.BreakTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid BREAK_TIMEZONE %q: %w", c.BreakTimezone, err)
	}
	return loc, nil
}

// ParseClient считывает конфигурацию клиента из .env, флагов командной строки и переменных окружения.
func ParseClient() (*ClientConfig, error) {
	loadDotEnv()

	cfg := &ClientConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envAPIURL := cfg.APIURL
	envAPIVersion := cfg.APIVersion
	envUsername := cfg.Username
	envPassword := cfg.Password
	envTimeout := cfg.Timeout
	envDebug := cfg.Debug

	flag.StringVar(&cfg.APIURL, "s", defaultAPIURL, "cookie breaks API address")
	flag.StringVar(&cfg.APIVersion, "v", defaultAPIVersion, "API version (v1 or v2)")
	flag.StringVar(&cfg.Username, "u", "", "username")
	flag.StringVar(&cfg.Password, "p", "", "password")
	flag.DurationVar(&cfg.Timeout, "t", defaultTimeout, "request timeout")
	flag.BoolVar(&cfg.Debug, "debug", false, "verbose logging")

	flag.Parse()

	if envAPIURL != "" {
		cfg.APIURL = envAPIURL
	}
	if envAPIVersion != "" {
		cfg.APIVersion = envAPIVersion
	}
	if envUsername != "" {
		cfg.Username = envUsername
	}
	if envPassword != "" {
		cfg.Password = envPassword
	}
	if envTimeout > 0 {
		cfg.Timeout = envTimeout
	}
	if envDebug {
		cfg.Debug = true
	}

	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	return cfg, nil
}
