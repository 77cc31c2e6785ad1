package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTurns     = 256
	DefaultParticles = 500
	DefaultBeta0     = 1.0
	DefaultSigmaX    = 1e-3
	DefaultSigmaPx   = 1e-4
	DefaultSigmaY    = 1e-3
	DefaultSigmaPy   = 1e-4
	DefaultSigmaZeta = 1e-2
)

type Config struct {
	Lattice     string     `yaml:"lattice"`
	Turns       int        `yaml:"turns"`
	Seed        int64      `yaml:"seed"`
	CheckFinite bool       `yaml:"check_finite"`
	Beam        BeamConfig `yaml:"beam"`
}

type BeamConfig struct {
	Particles  int     `yaml:"particles"`
	Beta0      float64 `yaml:"beta0"`
	Delta      float64 `yaml:"delta"`
	SigmaX     float64 `yaml:"sigma_x"`
	SigmaPx    float64 `yaml:"sigma_px"`
	SigmaY     float64 `yaml:"sigma_y"`
	SigmaPy    float64 `yaml:"sigma_py"`
	SigmaZeta  float64 `yaml:"sigma_zeta"`
	SigmaDelta float64 `yaml:"sigma_delta"`
}

func DefaultConfig() *Config {
	return &Config{
		Lattice:     "fodo",
		Turns:       DefaultTurns,
		CheckFinite: true,
		Beam: BeamConfig{
			Particles: DefaultParticles,
			Beta0:     DefaultBeta0,
			SigmaX:    DefaultSigmaX,
			SigmaPx:   DefaultSigmaPx,
			SigmaY:    DefaultSigmaY,
			SigmaPy:   DefaultSigmaPy,
			SigmaZeta: DefaultSigmaZeta,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
