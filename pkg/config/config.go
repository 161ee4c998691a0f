package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Ledger       RemoteAPIConfig    `yaml:"ledger"`
	Plans        RemoteAPIConfig    `yaml:"plans"`
	BankAccounts RemoteAPIConfig    `yaml:"bank_accounts"`
	Workflow     WorkflowConfig     `yaml:"workflow"`
	Withdrawal   WithdrawalConfig   `yaml:"withdrawal"`
	WebSocket    WebSocketConfig    `yaml:"websocket"`
	JWT          JWTConfig          `yaml:"jwt"`
	CurrencyCode string             `yaml:"currency_code"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
}

type RemoteAPIConfig struct {
	BaseURL          string        `yaml:"base_url"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryBackoffBase time.Duration `yaml:"retry_backoff_base"`
	APIKey           string        `yaml:"api_key"`
	Version          string        `yaml:"version"`
}

type DatabaseConfig struct {
	Host            string `yaml:"host"`
	Port            string `yaml:"port"`
	User            string `yaml:"user"`
	DBName          string `yaml:"name"`
	Password        string `yaml:"password"`
	SSLMode         string `yaml:"ssl_mode"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
}

// WorkflowConfig bounds the payment submission window and session lifetime.
// SubmitTimeout expiry means unknown outcome, not failure; the executor forces
// a reconcile before another attempt.
type WorkflowConfig struct {
	SubmitTimeout time.Duration `yaml:"submit_timeout"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	FundingURL    string        `yaml:"funding_url"`
}

// WithdrawalConfig carries externally owned amount bounds; the engine reads
// them, it does not define them.
type WithdrawalConfig struct {
	MinAmountCents   int64 `yaml:"min_amount_cents"`
	MaxAmountCents   int64 `yaml:"max_amount_cents"`
	DailyLimitCents  int64 `yaml:"daily_limit_cents"`
}

type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size"`
	WriteBufferSize int           `yaml:"write_buffer_size"`
	CheckOrigin     bool          `yaml:"check_origin"`
	PingPeriod      time.Duration `yaml:"ping_period"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		return nil, err
	}

	var config Config
	configData, err := os.ReadFile("./config.yaml")
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(configData, &config); err != nil {
		return nil, err
	}

	if config.CurrencyCode == "" {
		config.CurrencyCode = "NGN"
	}
	if config.Workflow.SubmitTimeout == 0 {
		config.Workflow.SubmitTimeout = 30 * time.Second
	}
	if config.Workflow.SessionTTL == 0 {
		config.Workflow.SessionTTL = 24 * time.Hour
	}

	return &config, nil
}
