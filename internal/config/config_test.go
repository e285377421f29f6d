package config

import (
	"path/filepath"
	"testing"

	"github.com/sroyc/windtrace/internal/flux"
	"github.com/sroyc/windtrace/internal/streamline"
)

func TestDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Line.R0 = 500
	cfg.ForceModel = "gravityonly"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Line.R0 != 500 {
		t.Errorf("Line.R0 = %g, want 500", loaded.Line.R0)
	}
	if loaded.ForceModel != "gravityonly" {
		t.Errorf("ForceModel = %q", loaded.ForceModel)
	}
	if loaded.BlackHole.M != 2e8 {
		t.Errorf("defaults not preserved under partial load: M = %g", loaded.BlackHole.M)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestStreamlineConfig(t *testing.T) {
	cfg := Default()
	cfg.ForceModel = "gravityonly"
	lineCfg, err := cfg.StreamlineConfig()
	if err != nil {
		t.Fatalf("StreamlineConfig: %v", err)
	}
	if lineCfg.ForceModel != streamline.GravityOnly {
		t.Errorf("force model = %v", lineCfg.ForceModel)
	}
	if lineCfg.R0 != 375 || lineCfg.Z0 != 10 || lineCfg.Rho0 != 2e8 {
		t.Errorf("launch state not mapped: %+v", lineCfg)
	}

	cfg.ForceModel = "banana"
	if _, err := cfg.StreamlineConfig(); err == nil {
		t.Fatal("expected error for unknown force model")
	}
}

func TestFluxBackend(t *testing.T) {
	cfg := Default()
	be, err := cfg.FluxBackend()
	if err != nil || be != flux.Adaptive {
		t.Errorf("default backend = %v, %v", be, err)
	}
	cfg.Backend = "fixed"
	be, err = cfg.FluxBackend()
	if err != nil || be != flux.Fixed {
		t.Errorf("fixed backend = %v, %v", be, err)
	}
	cfg.Backend = "banana"
	if _, err := cfg.FluxBackend(); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestDiscParams(t *testing.T) {
	p := Default().DiscParams()
	if p.M != 2e8 || p.Mdot != 0.5 || p.RIn != 200 || p.ROut != 1600 {
		t.Errorf("disc params not mapped: %+v", p)
	}
}
