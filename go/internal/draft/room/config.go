package room

import (
	"net/http"
	"time"
)

// Config holds websocket connection settings.
type Config struct {
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	PingInterval    time.Duration `yaml:"ping_interval"`
	MaxMessageSize  int64         `yaml:"max_message_size"`
	ReadBufferSize  int           `yaml:"read_buffer_size"`
	WriteBufferSize int           `yaml:"write_buffer_size"`
	SendBuffer      int           `yaml:"send_buffer"`
	// AllowedOrigins restricts the upgrade Origin header. Empty allows all.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// DefaultConfig returns default websocket settings.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      256,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = def.ReadTimeout
	}
	if c.PingInterval <= 0 || c.PingInterval >= c.ReadTimeout {
		c.PingInterval = c.ReadTimeout * 9 / 10
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = def.MaxMessageSize
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = def.ReadBufferSize
	}
	if c.WriteBufferSize <= 0 {
		c.WriteBufferSize = def.WriteBufferSize
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = def.SendBuffer
	}
	return c
}

func (c Config) checkOrigin(r *http.Request) bool {
	if len(c.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
