package internal

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 整個應用的配置
type Config struct {
	Server struct {
		Port            int    `yaml:"port"`
		WSPath          string `yaml:"ws_path"`
		MaxMessageSize  int    `yaml:"max_message_size"`
		SendBuffer      int    `yaml:"send_buffer"`
		ReadBufferSize  int    `yaml:"read_buffer_size"`
		WriteBufferSize int    `yaml:"write_buffer_size"`
	} `yaml:"server"`

	Liveness struct {
		Interval time.Duration `yaml:"interval"`
	} `yaml:"liveness"`

	Game struct {
		Cards       []Card `yaml:"cards"`
		WinningCard Card   `yaml:"winning_card"`
		StarterHand []Card `yaml:"starter_hand"`
	} `yaml:"game"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// 預設牌組
var (
	DefaultWinningCard Card = "CABEÇA DO EXODIA"

	DefaultCards = []Card{
		DefaultWinningCard,
		"Mago Negro",
		"Dragão Branco de Olhos Azuis",
		"Dragão Negro de Olhos Vermelhos",
		"Maga Negra",
		"Obelisco, o Atormentador",
		"Slifer, o Dragão do Céu",
		"O Dragão Alado de Rá",
		"Força Espelho",
		"Herói Elementar Neos",
		"Cyber Dragão",
		"Kuriboh",
	}

	DefaultStarterHand = []Card{
		"Braço Esquerdo",
		"Braço Direito",
		"Perna Esquerda",
		"Perna Direito",
	}
)

// DefaultConfig 預設配置
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Server.WSPath = "/ws"
	cfg.Server.MaxMessageSize = DefaultMaxMessageSize
	cfg.Server.SendBuffer = DefaultSendBuffer
	cfg.Server.ReadBufferSize = 1024
	cfg.Server.WriteBufferSize = 1024
	cfg.Liveness.Interval = DefaultLivenessInterval
	cfg.Game.Cards = append([]Card(nil), DefaultCards...)
	cfg.Game.WinningCard = DefaultWinningCard
	cfg.Game.StarterHand = append([]Card(nil), DefaultStarterHand...)
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// LoadConfig 載入配置
//
// 順序：預設值 → YAML 檔案（path 非空時）→ .env → 環境變數。
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		// #nosec G304 - path 來自命令行參數
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env 不存在是正常情況
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv 環境變數覆蓋
func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("LIVENESS_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid LIVENESS_INTERVAL %q: %w", v, err)
		}
		c.Liveness.Interval = d
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	return nil
}

// Validate 驗證配置
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("端口必須在 1-65535 之間: %d", c.Server.Port)
	}
	if c.Server.WSPath == "" || c.Server.WSPath[0] != '/' {
		return fmt.Errorf("ws_path 必須以 / 開頭: %q", c.Server.WSPath)
	}
	if c.Server.MaxMessageSize < 64 {
		return fmt.Errorf("max_message_size 過小: %d", c.Server.MaxMessageSize)
	}
	if c.Server.SendBuffer <= 0 {
		return fmt.Errorf("send_buffer 必須為正數: %d", c.Server.SendBuffer)
	}
	if c.Liveness.Interval <= 0 {
		return fmt.Errorf("liveness.interval 必須為正數: %s", c.Liveness.Interval)
	}
	if err := validateDeck(c.Game.Cards, c.Game.WinningCard); err != nil {
		return fmt.Errorf("game deck: %w", err)
	}
	return nil
}

// Addr 監聽位址
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
