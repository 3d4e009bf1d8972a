// Package config loads the mindmap configuration.
//
// Config file locations (priority order):
//  1. $MINDMAP_CONFIG
//  2. ./mindmap.yaml
//  3. $XDG_CONFIG_HOME/mindmap/config.yaml
//  4. ~/.config/mindmap/config.yaml
//  5. /etc/mindmap/config.yaml
//
// A missing file is not an error; every field has a default.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"mindmap/internal/autosave"
	"mindmap/internal/domain"
	"mindmap/internal/interaction"
	"mindmap/internal/layout"
	"mindmap/internal/viewport"
)

var validate = validator.New()

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Parse decodes, defaults and validates a YAML document
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return domain.Errorf(domain.ErrValidation, "invalid config: %v", err)
	}
	return nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.PromptTimeout == 0 {
		c.Server.PromptTimeout = Duration(2 * time.Minute)
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" && c.Database.Driver == "sqlite" {
		c.Database.Path = DefaultDatabasePath()
	}
	if c.Map.RootName == "" {
		c.Map.RootName = "Central idea"
	}
	if c.Viewport.Width == 0 {
		c.Viewport.Width = 960
	}
	if c.Viewport.Height == 0 {
		c.Viewport.Height = 600
	}

	ic := interaction.DefaultConfig()
	if c.Interaction.DoubleActivateWindow == 0 {
		c.Interaction.DoubleActivateWindow = Duration(ic.DoubleActivateWindow)
	}
	if c.Interaction.ConfirmDegree == 0 {
		c.Interaction.ConfirmDegree = ic.ConfirmDegree
	}
	if c.Interaction.ReleaseDelay == 0 {
		c.Interaction.ReleaseDelay = Duration(ic.ReleaseDelay)
	}
	if c.Interaction.ResetDuration == 0 {
		c.Interaction.ResetDuration = Duration(ic.ResetDuration)
	}
	if c.Interaction.DefaultLabel == "" {
		c.Interaction.DefaultLabel = ic.DefaultLabel
	}

	ac := autosave.DefaultConfig()
	if c.Persistence.Debounce == 0 {
		c.Persistence.Debounce = Duration(ac.Debounce)
	}
	if c.Persistence.SaveTimeout == 0 {
		c.Persistence.SaveTimeout = Duration(ac.SaveTimeout)
	}
	if c.Persistence.BreakerFailures == 0 {
		c.Persistence.BreakerFailures = ac.BreakerFailures
	}
	if c.Persistence.BreakerTimeout == 0 {
		c.Persistence.BreakerTimeout = Duration(ac.BreakerTimeout)
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Size returns the initial viewport size
func (v ViewportConfig) Size() viewport.Size {
	return viewport.Size{Width: v.Width, Height: v.Height}
}

// Layout converts the section to a simulator config centered on center
func (s SimulationConfig) Layout(center domain.Point) layout.Config {
	return layout.Config{
		LinkDistance:    s.LinkDistance,
		LinkStrength:    s.LinkStrength,
		ChargeStrength:  s.ChargeStrength,
		CollideRadius:   s.CollideRadius,
		CollideStrength: s.CollideStrength,
		Center:          center,
		VelocityDecay:   s.VelocityDecay,
		AlphaMin:        s.AlphaMin,
		AlphaDecay:      s.AlphaDecay,
		ReheatAlpha:     s.ReheatAlpha,
		DragAlphaTarget: s.DragAlphaTarget,
		FrameInterval:   s.FrameInterval.Duration(),
	}.WithDefaults()
}

// Controller converts the section to a controller config. Drag and reheat
// energies come from the simulation section.
func (i InteractionConfig) Controller(sim layout.Config) interaction.Config {
	return interaction.Config{
		DoubleActivateWindow: i.DoubleActivateWindow.Duration(),
		ConfirmDegree:        i.ConfirmDegree,
		ReleaseDelay:         i.ReleaseDelay.Duration(),
		ResetDuration:        i.ResetDuration.Duration(),
		DefaultLabel:         i.DefaultLabel,
		DragAlphaTarget:      sim.DragAlphaTarget,
		ReheatAlpha:          sim.ReheatAlpha,
	}
}

// Autosave converts the section to a saver config
func (p PersistenceConfig) Autosave() autosave.Config {
	return autosave.Config{
		Debounce:        p.Debounce.Duration(),
		SaveTimeout:     p.SaveTimeout.Duration(),
		BreakerFailures: p.BreakerFailures,
		BreakerTimeout:  p.BreakerTimeout.Duration(),
	}
}
