package config

import "time"

type Config struct {
	Mode      string            `yaml:"mode" env:"QUOTECHECK_MODE" env-default:"live" env-description:"quote source: live (browser) or test (synthetic)"`
	Symbols   []string          `yaml:"symbols" env:"QUOTECHECK_SYMBOLS" env-default:"HWM,BAC,COKE,F" env-description:"comma separated tickers"`
	Exchanges map[string]string `yaml:"exchanges" env:"QUOTECHECK_EXCHANGES" env-default:"HWM:NYSE,BAC:NYSE,COKE:NASDAQ,F:NYSE" env-description:"symbol:exchange pairs for the Google quote URL"`
	Interval  time.Duration     `yaml:"interval" env:"QUOTECHECK_INTERVAL" env-default:"2s" env-description:"pause between polling cycles"`
	LogFile   string            `yaml:"log_file" env:"QUOTECHECK_LOG_FILE" env-default:"stock_accuracy_log.csv" env-description:"accuracy CSV log path"`

	Browser struct {
		ShowWindow      bool          `yaml:"show_window" env:"BROWSER_SHOW_WINDOW" env-description:"run Chrome with a visible window"`
		ExecPath        string        `yaml:"exec_path" env:"BROWSER_EXEC_PATH" env-description:"Chrome binary, empty to search PATH"`
		WaitTimeout     time.Duration `yaml:"wait_timeout" env:"BROWSER_WAIT_TIMEOUT" env-default:"1s" env-description:"how long to wait for a price element"`
		NavigateTimeout time.Duration `yaml:"navigate_timeout" env:"BROWSER_NAVIGATE_TIMEOUT" env-default:"30s" env-description:"page load limit"`
		PollInterval    time.Duration `yaml:"poll_interval" env:"BROWSER_POLL_INTERVAL" env-default:"100ms" env-description:"element polling interval"`
	} `yaml:"browser"`

	Sources struct {
		YahooURL  string `yaml:"yahoo_url" env:"SOURCE_YAHOO_URL" env-default:"https://finance.yahoo.com" env-description:"primary source base URL"`
		GoogleURL string `yaml:"google_url" env:"SOURCE_GOOGLE_URL" env-default:"https://www.google.com/finance" env-description:"secondary source base URL"`
	} `yaml:"sources"`

	Test struct {
		Seed int64 `yaml:"seed" env:"TEST_SEED" env-description:"random seed for test mode, 0 uses the clock"`
	} `yaml:"test"`

	Server struct {
		Port            int           `yaml:"port" env:"SERVER_PORT" env-description:"status HTTP port, 0 disables the server"`
		ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"5s"`
	} `yaml:"server"`

	PostgreSQL struct {
		Enabled         bool          `yaml:"enabled" env:"POSTGRES_ENABLED" env-description:"mirror comparisons into PostgreSQL"`
		Host            string        `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
		Port            int           `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
		User            string        `yaml:"user" env:"POSTGRES_USER" env-default:"quotecheck"`
		Password        string        `yaml:"password" env:"POSTGRES_PASSWORD"`
		Database        string        `yaml:"database" env:"POSTGRES_DB" env-default:"quotecheck"`
		SSLMode         string        `yaml:"sslmode" env:"POSTGRES_SSLMODE" env-default:"disable"`
		MaxOpenConns    int           `yaml:"max_open_conns" env:"POSTGRES_MAX_OPEN_CONNS" env-default:"4"`
		MaxIdleConns    int           `yaml:"max_idle_conns" env:"POSTGRES_MAX_IDLE_CONNS" env-default:"2"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"POSTGRES_CONN_MAX_LIFETIME" env-default:"30m"`
	} `yaml:"postgresql"`

	Redis struct {
		Enabled  bool          `yaml:"enabled" env:"REDIS_ENABLED" env-description:"cache latest comparisons in Redis"`
		Host     string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
		Port     int           `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
		Password string        `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int           `yaml:"db" env:"REDIS_DB"`
		TTL      time.Duration `yaml:"ttl" env:"REDIS_TTL" env-default:"10m" env-description:"latest value expiry and window length"`
	} `yaml:"redis"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info" env-description:"debug, info, warn or error"`
		Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text" env-description:"text or json"`
		File   string `yaml:"file" env:"LOG_FILE" env-description:"write logs to this file instead of stderr"`
	} `yaml:"logging"`
}
