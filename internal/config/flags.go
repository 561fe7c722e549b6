package config

// Overrides holds command-line values. Zero values leave the loaded
// configuration untouched.
type Overrides struct {
	ConfigPath string
	Debug      bool
	Steps      int
	Width      int
	Height     int
	Samples    int
	Framing    string
	Scaling    string
	OutputDir  string
	LogFile    string
	NoSkip     bool // Always import and set up the scene, even for fully cached models
}

// apply applies CLI flag overrides to the config.
func (o Overrides) apply(cfg *Config) {
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.Steps > 0 {
		cfg.Render.Steps = o.Steps
	}
	if o.Width > 0 {
		cfg.Render.Width = o.Width
	}
	if o.Height > 0 {
		cfg.Render.Height = o.Height
	}
	if o.Samples > 0 {
		cfg.Render.Samples = o.Samples
	}
	if o.Framing != "" {
		cfg.Framing.Policy = o.Framing
	}
	if o.Scaling != "" {
		cfg.Scaling.Policy = o.Scaling
	}
	if o.OutputDir != "" {
		cfg.Render.OutputDir = o.OutputDir
	}
	if o.LogFile != "" {
		cfg.Logging.LogFile = o.LogFile
	}
	if o.NoSkip {
		cfg.Batch.SkipCompleteModels = false
	}
}
