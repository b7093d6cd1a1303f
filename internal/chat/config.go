package chat

import (
	"github.com/lk2023060901/chat-garden-go/pkg/util/viper"
)

// 服务器配置的默认值，来源于参考实现的常量。
const (
	// DefaultListen 为 TCP 接入的默认监听地址。
	DefaultListen = "0.0.0.0:9999"
	// DefaultMaxClients 为默认的最大并发连接数。
	DefaultMaxClients = 100
	// DefaultWSPath 为 WebSocket 接入的默认升级路径。
	DefaultWSPath = "/ws"
)

// Config 为聊天服务器的配置段（config.yaml 中的 server 节）。
type Config struct {
	// Listen 为 TCP 接入的监听地址。
	Listen string `mapstructure:"listen"`

	// MaxClients 为每个接入器允许的最大并发连接数。
	MaxClients int `mapstructure:"maxClients"`

	// WS 为 WebSocket 接入配置。
	WS WSConfig `mapstructure:"ws"`

	// Metrics 为指标服务配置。
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// WSConfig 为 WebSocket 接入配置。
type WSConfig struct {
	// Listen 为 HTTP 监听地址，为空时不启用 WebSocket 接入。
	Listen string `mapstructure:"listen"`
	// Path 为升级路径。
	Path string `mapstructure:"path"`
}

// MetricsConfig 为 Prometheus 指标服务配置。
type MetricsConfig struct {
	// Listen 为 /metrics 的监听地址，为空时不启用。
	Listen string `mapstructure:"listen"`
}

// DefaultConfig 返回一份带默认值的配置。
func DefaultConfig() Config {
	return Config{
		Listen:     DefaultListen,
		MaxClients: DefaultMaxClients,
		WS: WSConfig{
			Path: DefaultWSPath,
		},
	}
}

// LoadConfig 从给定配置源读取 server 节，缺失的字段取默认值。
func LoadConfig(v *viper.Config) (Config, error) {
	cfg := DefaultConfig()
	if v == nil {
		return cfg, nil
	}
	if err := v.UnmarshalKey("server", &cfg); err != nil {
		return cfg, err
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = DefaultMaxClients
	}
	if cfg.WS.Path == "" {
		cfg.WS.Path = DefaultWSPath
	}
	return cfg, nil
}
