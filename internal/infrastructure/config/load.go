package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"quotecheck/internal/domain/model"
)

// Load reads the YAML file at path (skipped when path is empty), then
// applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// Usage describes every environment variable the config understands.
func Usage() string {
	header := "Environment variables:"
	text, err := cleanenv.GetDescription(&Config{}, &header)
	if err != nil {
		return ""
	}
	return text
}

func (c *Config) normalize() {
	symbols := c.Symbols[:0]
	for _, s := range c.Symbols {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			symbols = append(symbols, s)
		}
	}
	c.Symbols = symbols

	exchanges := make(map[string]string, len(c.Exchanges))
	for sym, ex := range c.Exchanges {
		exchanges[strings.ToUpper(strings.TrimSpace(sym))] = strings.ToUpper(strings.TrimSpace(ex))
	}
	c.Exchanges = exchanges

	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
}

// tickerPattern covers listings such as BRK-B, BF.B, ^GSPC and EURUSD=X.
var tickerPattern = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.\-=^]*$`)

func (c *Config) Validate() error {
	var errs []error

	if _, err := model.ParseDataMode(c.Mode); err != nil {
		errs = append(errs, err)
	}
	if len(c.Symbols) == 0 {
		errs = append(errs, errors.New("at least one symbol is required"))
	}
	for _, s := range c.Symbols {
		if !tickerPattern.MatchString(s) {
			errs = append(errs, fmt.Errorf("invalid symbol %q", s))
		}
	}
	if c.Interval <= 0 {
		errs = append(errs, errors.New("interval must be positive"))
	}
	if c.LogFile == "" {
		errs = append(errs, errors.New("log_file is required"))
	}
	if c.Browser.WaitTimeout <= 0 {
		errs = append(errs, errors.New("browser.wait_timeout must be positive"))
	}
	if c.Browser.NavigateTimeout <= 0 {
		errs = append(errs, errors.New("browser.navigate_timeout must be positive"))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown logging.format %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

func (c *Config) DataMode() model.DataMode {
	m, _ := model.ParseDataMode(c.Mode)
	return m
}

func (c *Config) ExchangeTable() model.ExchangeTable {
	return model.ExchangeTable(c.Exchanges)
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host, c.PostgreSQL.Port, c.PostgreSQL.User,
		c.PostgreSQL.Password, c.PostgreSQL.Database, c.PostgreSQL.SSLMode,
	)
}

func (c *Config) RedisAddr() string {
	return net.JoinHostPort(c.Redis.Host, strconv.Itoa(c.Redis.Port))
}
