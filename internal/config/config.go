// Package config loads and saves run configurations.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sroyc/windtrace/internal/flux"
	"github.com/sroyc/windtrace/internal/streamline"
	"github.com/sroyc/windtrace/internal/wind"
)

type Config struct {
	BlackHole BlackHoleConfig `yaml:"black_hole"`
	Disc      DiscConfig      `yaml:"disc"`
	Line      LineConfig      `yaml:"line"`
	Batch     BatchConfig     `yaml:"batch"`

	ForceModel string  `yaml:"force_model"` // full | gravityonly | debug
	Backend    string  `yaml:"backend"`     // adaptive | fixed
	Tolerance  float64 `yaml:"tolerance"`
	MaxSteps   int     `yaml:"max_steps"`
}

type BlackHoleConfig struct {
	M    float64 `yaml:"mass"` // solar masses
	Mdot float64 `yaml:"mdot"` // Eddington ratio
	Eta  float64 `yaml:"eta"`
	Fx   float64 `yaml:"fx"`
}

type DiscConfig struct {
	RhoShielding float64 `yaml:"rho_shielding"`
	T            float64 `yaml:"temperature"`
	RInit        float64 `yaml:"r_init"`
	RIn          float64 `yaml:"r_in"`
	ROut         float64 `yaml:"r_out"`
	RMin         float64 `yaml:"r_min"`
	RMax         float64 `yaml:"r_max"`
}

type LineConfig struct {
	R0   float64 `yaml:"r_0"`
	Z0   float64 `yaml:"z_0"`
	Rho0 float64 `yaml:"rho_0"`
	VR0  float64 `yaml:"v_r_0"` // cm/s
	VZ0  float64 `yaml:"v_z_0"` // cm/s
}

type BatchConfig struct {
	RLo     float64 `yaml:"r_lo"`
	RHi     float64 `yaml:"r_hi"`
	Lines   int     `yaml:"lines"`
	Workers int     `yaml:"workers"`
}

// Default mirrors the reference quasar run.
func Default() *Config {
	return &Config{
		BlackHole: BlackHoleConfig{M: 2e8, Mdot: 0.5, Eta: 0.057, Fx: 0.15},
		Disc: DiscConfig{
			RhoShielding: 2e8,
			T:            2e6,
			RInit:        200,
			RIn:          200,
			ROut:         1600,
			RMin:         6,
			RMax:         1600,
		},
		Line:       LineConfig{R0: 375, Z0: 10, Rho0: 2e8, VZ0: 1e7},
		Batch:      BatchConfig{RLo: 60, RHi: 1500, Lines: 30},
		ForceModel: "full",
		Backend:    "adaptive",
		Tolerance:  1e-6,
		MaxSteps:   5000,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
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

// DiscParams maps the config onto the wind context parameters.
func (c *Config) DiscParams() wind.DiscParams {
	return wind.DiscParams{
		M:            c.BlackHole.M,
		Mdot:         c.BlackHole.Mdot,
		Eta:          c.BlackHole.Eta,
		Fx:           c.BlackHole.Fx,
		T:            c.Disc.T,
		RhoShielding: c.Disc.RhoShielding,
		RInit:        c.Disc.RInit,
		RIn:          c.Disc.RIn,
		ROut:         c.Disc.ROut,
		RMin:         c.Disc.RMin,
		RMax:         c.Disc.RMax,
	}
}

// StreamlineConfig maps the config onto a streamline launch configuration.
func (c *Config) StreamlineConfig() (streamline.Config, error) {
	model, err := c.forceModel()
	if err != nil {
		return streamline.Config{}, err
	}
	return streamline.Config{
		R0:         c.Line.R0,
		Z0:         c.Line.Z0,
		Rho0:       c.Line.Rho0,
		T:          c.Disc.T,
		VR0:        c.Line.VR0,
		VZ0:        c.Line.VZ0,
		ForceModel: model,
		Tolerance:  c.Tolerance,
	}, nil
}

func (c *Config) forceModel() (streamline.ForceModel, error) {
	switch c.ForceModel {
	case "", "full":
		return streamline.Full, nil
	case "gravityonly":
		return streamline.GravityOnly, nil
	case "debug":
		return streamline.Debug, nil
	}
	return 0, fmt.Errorf("unknown force model %q", c.ForceModel)
}

// FluxBackend resolves the integral backend selection.
func (c *Config) FluxBackend() (flux.Backend, error) {
	switch c.Backend {
	case "", "adaptive":
		return flux.Adaptive, nil
	case "fixed":
		return flux.Fixed, nil
	}
	return 0, fmt.Errorf("unknown flux backend %q", c.Backend)
}
