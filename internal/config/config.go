package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	API      APIConfig      `yaml:"api"`
	Sync     SyncConfig     `yaml:"sync"`
	Server   ServerConfig   `yaml:"server"`
	LogLevel string         `yaml:"log_level"`
}

type DatabaseConfig struct {
	// Driver selects the storage backend: "sqlite" (embedded file) or
	// "postgres" (networked).
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"` // sqlite only
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RabbitMQConfig configures the story event publisher. Publishing is
// disabled when URL is empty.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type SyncConfig struct {
	Interval         time.Duration `yaml:"interval"`
	TopStories       int           `yaml:"top_stories"`
	CommentsPerStory int           `yaml:"comments_per_story"`
	FetchConcurrency int           `yaml:"fetch_concurrency"`
	StaleAfter       time.Duration `yaml:"stale_after"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/hn.db"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "hn_syncer"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "stories"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "hn_stories"
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://hacker-news.firebaseio.com/v0"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 10 * time.Minute
	}
	if c.Sync.TopStories == 0 {
		c.Sync.TopStories = 30
	}
	if c.Sync.CommentsPerStory == 0 {
		c.Sync.CommentsPerStory = 5
	}
	if c.Sync.FetchConcurrency == 0 {
		c.Sync.FetchConcurrency = 20
	}
	if c.Sync.StaleAfter == 0 {
		c.Sync.StaleAfter = time.Hour
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
