package config

import (
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AMQP         AMQPConfig   `yaml:"amqp"`
	Vault        VaultConfig  `yaml:"vault"`
	Logger       LoggerConfig `yaml:"logger"`
	TopologyPath string       `yaml:"topology_path" envconfig:"TOPOLOGY_PATH"`
}

type AMQPConfig struct {
	Host        string        `yaml:"host" envconfig:"RMQ_HOST"`
	Port        int           `yaml:"port" envconfig:"RMQ_PORT"`
	VHost       string        `yaml:"vhost" envconfig:"RMQ_VHOST"`
	User        string        `yaml:"user" envconfig:"RMQ_USER"`
	Password    string        `yaml:"password" envconfig:"RMQ_PASS"`
	DialTimeout time.Duration `yaml:"dial_timeout" envconfig:"RMQ_DIAL_TIMEOUT"`
	Heartbeat   time.Duration `yaml:"heartbeat" envconfig:"RMQ_HEARTBEAT"`

	// Vault KV path holding username/password, optional
	VaultPath string `yaml:"vault_path" envconfig:"RMQ_VAULT_PATH"`
}

func (c AMQPConfig) URL() string {
	uri := amqp.URI{
		Scheme:   "amqp",
		Host:     c.Host,
		Port:     c.Port,
		Username: c.User,
		Password: c.Password,
		Vhost:    c.VHost,
	}
	return uri.String()
}

type LoggerConfig struct {
	Level      string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format     string `yaml:"format" envconfig:"LOG_FORMAT"`
	OutputPath string `yaml:"output_path" envconfig:"LOG_OUTPUT_PATH"`
}

func Default() Config {
	return Config{
		AMQP: AMQPConfig{
			Host:        "127.0.0.1",
			Port:        5672,
			VHost:       "/",
			User:        "guest",
			Password:    "guest",
			DialTimeout: 30 * time.Second,
			Heartbeat:   10 * time.Second,
		},
		Vault: VaultConfig{
			Address: "http://localhost:8200",
			Mount:   "secret",
		},
		Logger: LoggerConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}

// Load reads defaults, then the optional YAML file at path, then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		err := loadFromFile(path, &cfg)
		if err != nil {
			return nil, errors.WithMessagef(err, "load config file '%s'", path)
		}
	}

	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, errors.WithMessage(err, "process environment variables")
	}

	err = cfg.Validate()
	if err != nil {
		return nil, errors.WithMessage(err, "invalid configuration")
	}

	return &cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	return decoder.Decode(cfg)
}

func (c *Config) Validate() error {
	if c.AMQP.Host == "" {
		return errors.New("amqp host is required")
	}
	if c.AMQP.Port <= 0 || c.AMQP.Port > 65535 {
		return errors.Errorf("invalid amqp port: %d", c.AMQP.Port)
	}
	if c.AMQP.DialTimeout < 0 {
		return errors.Errorf("negative amqp dial timeout: %s", c.AMQP.DialTimeout)
	}
	if c.Vault.Enabled && c.Vault.Address == "" {
		return errors.New("vault address is required when vault is enabled")
	}
	return nil
}
