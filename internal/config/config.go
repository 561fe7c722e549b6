// Package config handles spinner configuration loading and management.
package config

import (
	"fmt"

	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/catalog"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/engine"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/framing"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/identity"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/logger"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/normalize"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/notify"
	"github.com/DmitriyRudenskiy/360ModelSpinner/internal/turntable"
)

// Config holds all spinner settings.
type Config struct {
	Render   RenderConfig   `yaml:"render"`
	Framing  FramingConfig  `yaml:"framing"`
	Scaling  ScalingConfig  `yaml:"scaling"`
	Identity IdentityConfig `yaml:"identity"`
	Batch    BatchConfig    `yaml:"batch"`
	Logging  LoggingConfig  `yaml:"logging"`
	Notify   NotifyConfig   `yaml:"notify"`
	Catalog  CatalogConfig  `yaml:"catalog"`
}

// RenderConfig holds output image settings.
type RenderConfig struct {
	Engine      string  `yaml:"engine"`
	Device      string  `yaml:"device"`
	Samples     int     `yaml:"samples"`
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Format      string  `yaml:"format"`
	ColorMode   string  `yaml:"color_mode"`
	Transparent bool    `yaml:"transparent"`
	Exposure    float32 `yaml:"exposure"`
	Steps       int     `yaml:"steps"`      // Frames per turntable
	OutputDir   string  `yaml:"output_dir"` // Relative to each model's directory
}

// FramingConfig holds camera distance and light rig settings.
type FramingConfig struct {
	Policy            string  `yaml:"policy"` // "fov" or "multiple"
	Lens              float32 `yaml:"lens"`
	SensorWidth       float32 `yaml:"sensor_width"`
	Margin            float32 `yaml:"margin"`
	Multiple          float32 `yaml:"multiple"`
	MinDistance       float32 `yaml:"min_distance"`
	Rig               string  `yaml:"rig"` // "symmetric" or "three-point"
	LightEnergy       float32 `yaml:"light_energy"`
	ReferenceDistance float32 `yaml:"reference_distance"`
}

// ScalingConfig holds the model scale policy.
type ScalingConfig struct {
	Policy string  `yaml:"policy"` // "exact" or "clamped"
	Target float32 `yaml:"target"`
	Bound  float32 `yaml:"bound"`
	Lower  float32 `yaml:"lower"`
	Upper  float32 `yaml:"upper"` // 0 means unbounded
}

// IdentityConfig holds content hashing settings.
type IdentityConfig struct {
	Algorithm   string `yaml:"algorithm"`
	MaxAttempts int    `yaml:"max_attempts"`
}

// BatchConfig holds directory processing settings.
type BatchConfig struct {
	SkipCompleteModels bool `yaml:"skip_complete_models"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// NotifyConfig holds progress notification settings.
type NotifyConfig struct {
	MQTT MQTTConfig `yaml:"mqtt"`
}

// MQTTConfig enables the MQTT publisher.
type MQTTConfig struct {
	Enabled       bool `yaml:"enabled"`
	notify.Config `yaml:",inline"`
}

// CatalogConfig enables the Postgres render catalog.
type CatalogConfig struct {
	Enabled        bool `yaml:"enabled"`
	catalog.Config `yaml:",inline"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	fr := framing.DefaultSettings()
	sc := normalize.DefaultPolicy()
	return &Config{
		Render: RenderConfig{
			Engine:      "opengl",
			Device:      "gpu",
			Samples:     4,
			Width:       2048,
			Height:      2048,
			Format:      "PNG",
			ColorMode:   "RGBA",
			Transparent: true,
			Exposure:    1.5,
			Steps:       turntable.DefaultSteps,
			OutputDir:   turntable.DefaultOutputDir,
		},
		Framing: FramingConfig{
			Policy:            fr.Policy,
			Lens:              fr.Lens,
			SensorWidth:       fr.SensorWidth,
			Margin:            fr.Margin,
			Multiple:          fr.Multiple,
			MinDistance:       fr.MinDistance,
			Rig:               fr.Rig,
			LightEnergy:       fr.LightEnergy,
			ReferenceDistance: fr.ReferenceDistance,
		},
		Scaling: ScalingConfig{
			Policy: sc.Name,
			Target: sc.Target,
			Bound:  sc.Bound,
			Lower:  sc.Lower,
			Upper:  sc.Upper,
		},
		Identity: IdentityConfig{
			Algorithm:   string(identity.MD5),
			MaxAttempts: identity.DefaultMaxAttempts,
		},
		Batch: BatchConfig{
			SkipCompleteModels: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Notify: NotifyConfig{
			MQTT: MQTTConfig{Config: notify.DefaultConfig()},
		},
		Catalog: CatalogConfig{
			Config: catalog.DefaultConfig(),
		},
	}
}

// RenderSettings converts the render section for the engine.
func (c *Config) RenderSettings() engine.RenderSettings {
	r := c.Render
	return engine.RenderSettings{
		Engine:      r.Engine,
		Device:      r.Device,
		Samples:     r.Samples,
		Width:       r.Width,
		Height:      r.Height,
		Format:      r.Format,
		ColorMode:   r.ColorMode,
		Transparent: r.Transparent,
		Exposure:    r.Exposure,
	}
}

// FramingSettings converts the framing section.
func (c *Config) FramingSettings() framing.Settings {
	f := c.Framing
	return framing.Settings{
		Policy:            f.Policy,
		Lens:              f.Lens,
		SensorWidth:       f.SensorWidth,
		Margin:            f.Margin,
		Multiple:          f.Multiple,
		MinDistance:       f.MinDistance,
		Rig:               f.Rig,
		LightEnergy:       f.LightEnergy,
		ReferenceDistance: f.ReferenceDistance,
	}
}

// ScalingPolicy converts the scaling section.
func (c *Config) ScalingPolicy() normalize.Policy {
	s := c.Scaling
	return normalize.Policy{
		Name:   s.Policy,
		Target: s.Target,
		Bound:  s.Bound,
		Lower:  s.Lower,
		Upper:  s.Upper,
	}
}

// PipelineOptions assembles the per-file pipeline settings.
func (c *Config) PipelineOptions() turntable.Options {
	return turntable.Options{
		Steps:        c.Render.Steps,
		OutputDir:    c.Render.OutputDir,
		Render:       c.RenderSettings(),
		Framing:      c.FramingSettings(),
		Scaling:      c.ScalingPolicy(),
		SkipComplete: c.Batch.SkipCompleteModels,
	}
}

// Resolver builds the identity resolver for the given extensions.
func (c *Config) Resolver(extensions []string) *identity.Resolver {
	r := identity.NewResolver(identity.Algorithm(c.Identity.Algorithm), extensions)
	if c.Identity.MaxAttempts > 0 {
		r.MaxAttempts = c.Identity.MaxAttempts
	}
	return r
}

// Validate rejects settings that would fail or clip at render time.
func (c *Config) Validate() error {
	if err := c.PipelineOptions().Validate(); err != nil {
		return err
	}
	if _, err := identity.Algorithm(c.Identity.Algorithm).New(); err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	if c.Identity.MaxAttempts < 0 {
		return fmt.Errorf("identity: max_attempts must not be negative")
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.Notify.MQTT.Enabled && c.Notify.MQTT.Broker == "" {
		return fmt.Errorf("notify.mqtt: broker is required when enabled")
	}
	if c.Catalog.Enabled && c.Catalog.DSN == "" {
		return fmt.Errorf("catalog: dsn is required when enabled")
	}
	return nil
}
