package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 默认值
const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 3000
	defaultMaxConnections = 1024
	defaultRedisAddr      = "localhost:6379"
	defaultMaxPlayers     = 10
	defaultClueTimeout    = 20
	defaultGameTimeout    = 30
	defaultOpenAIBaseURL  = "https://api.openai.com/v1"
	defaultOpenAIModel    = "gpt-4o-mini"
)

// Config 服务端配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Game   GameConfig   `yaml:"game"`
	OpenAI OpenAIConfig `yaml:"openai"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏配置
type GameConfig struct {
	MaxPlayers  int `yaml:"max_players"`  // 单局最大玩家数
	ClueTimeout int `yaml:"clue_timeout"` // AI 提示生成超时（秒）
	GameTimeout int `yaml:"game_timeout"` // 空闲游戏清理超时（分钟）
}

// OpenAIConfig AI 提示生成配置
type OpenAIConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"-"` // 只从环境变量读取，不写进配置文件
}

// ClueTimeoutDuration 返回提示生成超时时长
func (c *GameConfig) ClueTimeoutDuration() time.Duration {
	return time.Duration(c.ClueTimeout) * time.Second
}

// GameTimeoutDuration 返回空闲游戏清理超时时长
func (c *GameConfig) GameTimeoutDuration() time.Duration {
	return time.Duration(c.GameTimeout) * time.Minute
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg
}

// applyDefaults 填充缺省值
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = defaultMaxConnections
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = defaultRedisAddr
	}
	if c.Game.MaxPlayers == 0 {
		c.Game.MaxPlayers = defaultMaxPlayers
	}
	if c.Game.ClueTimeout == 0 {
		c.Game.ClueTimeout = defaultClueTimeout
	}
	if c.Game.GameTimeout == 0 {
		c.Game.GameTimeout = defaultGameTimeout
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = defaultOpenAIBaseURL
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = defaultOpenAIModel
	}
}

// applyEnv 环境变量覆盖（部署时不用改配置文件）
func (c *Config) applyEnv() {
	if v := os.Getenv("SERVER_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("GAME_MAX_PLAYERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			c.Game.MaxPlayers = n
		}
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.OpenAI.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.OpenAI.Model = v
	}
	c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
}
