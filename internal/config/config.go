package config

import (
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port int `envconfig:"PORT" default:"8080"`
	// DatabaseURL selects the Postgres store. Empty keeps compositions in
	// memory.
	DatabaseURL    string  `envconfig:"DATABASE_URL"`
	JWTSecret      string  `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	APIKeyHash     string  `envconfig:"API_KEY_HASH"`
	AllowedOrigins string  `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	MaxUploadBytes int64   `envconfig:"MAX_UPLOAD_BYTES" default:"33554432"`
	CacheSize      int     `envconfig:"CACHE_SIZE" default:"64"`
	RenderScale    float64 `envconfig:"RENDER_SCALE" default:"1"`
	StreamFPS      float64 `envconfig:"STREAM_FPS" default:"30"`
	FFmpegPath     string  `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CORSOrigins returns AllowedOrigins as full origins.
func (c *Config) CORSOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Origins splits AllowedOrigins into host patterns for websocket origin
// checks, without the scheme.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range c.CORSOrigins() {
		out = append(out, strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://"))
	}
	return out
}
