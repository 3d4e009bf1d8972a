package config

import (
	"time"
)

// Config is the root configuration structure
type Config struct {
	Version     int               `yaml:"version"`
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Map         MapConfig         `yaml:"map"`
	Viewport    ViewportConfig    `yaml:"viewport"`
	Simulation  SimulationConfig  `yaml:"simulation"`
	Interaction InteractionConfig `yaml:"interaction"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig holds HTTP settings
type ServerConfig struct {
	Addr        string   `yaml:"addr" validate:"required"`
	CORSOrigins []string `yaml:"cors_origins,omitempty"`
	// PromptTimeout bounds how long a rename or delete prompt stays open
	PromptTimeout Duration `yaml:"prompt_timeout" validate:"gte=0"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"oneof=sqlite memory"`
	Path   string `yaml:"path" validate:"required_if=Driver sqlite"`
}

// MapConfig holds mind map defaults
type MapConfig struct {
	RootName string `yaml:"root_name" validate:"required"`
}

// ViewportConfig is the initial drawing surface size
type ViewportConfig struct {
	Width  float64 `yaml:"width" validate:"gt=0"`
	Height float64 `yaml:"height" validate:"gt=0"`
}

// SimulationConfig tunes the force layout. Zero values take the layout
// defaults.
type SimulationConfig struct {
	LinkDistance    float64  `yaml:"link_distance,omitempty" validate:"gte=0"`
	LinkStrength    float64  `yaml:"link_strength,omitempty" validate:"gte=0"`
	ChargeStrength  float64  `yaml:"charge_strength,omitempty" validate:"lte=0"`
	CollideRadius   float64  `yaml:"collide_radius,omitempty" validate:"gte=0"`
	CollideStrength float64  `yaml:"collide_strength,omitempty" validate:"gte=0,lte=1"`
	VelocityDecay   float64  `yaml:"velocity_decay,omitempty" validate:"gte=0,lt=1"`
	AlphaMin        float64  `yaml:"alpha_min,omitempty" validate:"gte=0,lt=1"`
	AlphaDecay      float64  `yaml:"alpha_decay,omitempty" validate:"gte=0,lt=1"`
	ReheatAlpha     float64  `yaml:"reheat_alpha,omitempty" validate:"gte=0,lte=1"`
	DragAlphaTarget float64  `yaml:"drag_alpha_target,omitempty" validate:"gte=0,lte=1"`
	FrameInterval   Duration `yaml:"frame_interval,omitempty" validate:"gte=0"`
}

// InteractionConfig holds gesture timing
type InteractionConfig struct {
	DoubleActivateWindow Duration `yaml:"double_activate_window" validate:"gt=0"`
	ConfirmDegree        int      `yaml:"confirm_degree" validate:"gte=1"`
	ReleaseDelay         Duration `yaml:"release_delay" validate:"gte=0"`
	ResetDuration        Duration `yaml:"reset_duration" validate:"gte=0"`
	DefaultLabel         string   `yaml:"default_label" validate:"required"`
}

// PersistenceConfig tunes autosave
type PersistenceConfig struct {
	Debounce        Duration `yaml:"debounce" validate:"gte=0"`
	SaveTimeout     Duration `yaml:"save_timeout" validate:"gt=0"`
	BreakerFailures uint32   `yaml:"breaker_failures" validate:"gte=1"`
	BreakerTimeout  Duration `yaml:"breaker_timeout" validate:"gt=0"`
}

// LoggingConfig selects the log level and encoder
type LoggingConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
