package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port             int     `envconfig:"PORT" default:"8080"`
	AllowedOrigins   string  `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	DPI              float64 `envconfig:"DPI" default:"100"`
	PadInches        float64 `envconfig:"PAD_INCHES" default:"0.1"`
	MaxSampledPoints int     `envconfig:"MAX_SAMPLED_POINTS" default:"160"`
	MaxScenes        int     `envconfig:"MAX_SCENES" default:"64"`
	MaxOutputDim     int     `envconfig:"MAX_OUTPUT_DIM" default:"4096"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
