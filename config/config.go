package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Broker    BrokerConfig    `yaml:"broker"`
	Registry  RegistryConfig  `yaml:"registry"`
	Web       WebConfig       `yaml:"web"`
	Redis     RedisConfig     `yaml:"redis"`
	Export    ExportConfig    `yaml:"export"`
	Workflows WorkflowsConfig `yaml:"workflows"`
	LogLevel  string          `yaml:"log_level"`
}

type BrokerConfig struct {
	URL            string        `yaml:"url"`
	ClientIDPrefix string        `yaml:"client_id_prefix"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	// Reconnect backoff bounds; paho doubles between them.
	ReconnectMin time.Duration `yaml:"reconnect_min"`
	ReconnectMax time.Duration `yaml:"reconnect_max"`
}

type RegistryConfig struct {
	// CatalogPath points at the topic/module catalog yaml. Empty means the
	// compiled-in default catalog.
	CatalogPath string `yaml:"catalog_path"`
}

type WebConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ExportConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// WorkflowsConfig maps workpiece colors to their processing station sequence.
type WorkflowsConfig struct {
	Production map[string][]string `yaml:"production"`
}

func Defaults() *Config {
	return &Config{
		Broker: BrokerConfig{
			URL:            "tcp://192.168.0.100:1883",
			ClientIDPrefix: "ccu-gateway",
			ConnectTimeout: 10 * time.Second,
			ReconnectMin:   100 * time.Millisecond,
			ReconnectMax:   30 * time.Second,
		},
		Web: WebConfig{
			Host: "0.0.0.0",
			Port: 8085,
		},
		Redis: RedisConfig{
			Enabled: false,
			Address: "localhost:6379",
		},
		Export: ExportConfig{
			Enabled: false,
			Brokers: []string{"localhost:9092"},
			Topic:   "ccu.telemetry",
		},
		Workflows: WorkflowsConfig{
			Production: map[string][]string{
				"RED":   {"DRILL", "MILL", "AIQS"},
				"BLUE":  {"MILL", "DRILL", "AIQS"},
				"WHITE": {"MILL", "DRILL", "AIQS"},
			},
		},
		LogLevel: "info",
	}
}

// Load reads yaml config over defaults, then applies environment overrides.
// A missing file is not an error; the defaults are complete.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CCU_BROKER_URL"); v != "" {
		c.Broker.URL = v
	}
	if v := os.Getenv("CCU_CLIENT_ID_PREFIX"); v != "" {
		c.Broker.ClientIDPrefix = v
	}
	if v := os.Getenv("CCU_LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
}

func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}
