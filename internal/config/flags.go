package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile     = flag.String("log-file", "", "Also write logs to this rotating file")
	flagStrategy    = flag.String("strategy", "", "Compositing strategy: simple or stencil")
	flagGranularity = flag.Float64("granularity", 0, "Volume granularity in degrees")
	flagMaxAltitude = flag.Float64("max-altitude", 0, "Highest terrain altitude the volume must clear, meters")
	flagWindowed    = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen  = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth       = flag.Int("width", 0, "Window width")
	flagHeight      = flag.Int("height", 0, "Window height")
	flagScreenshots = flag.String("screenshots", "", "Directory for F12 captures")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags overrides cfg with every flag set to a non-zero value.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagStrategy != "" {
		cfg.Render.Strategy = *flagStrategy
	}
	if *flagGranularity > 0 {
		cfg.Volume.GranularityDegrees = *flagGranularity
	}
	if *flagMaxAltitude > 0 {
		cfg.Volume.MaxTerrainAltitude = *flagMaxAltitude
	}

	// -fullscreen wins when both are given.
	if *flagWindowed {
		cfg.Window.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Window.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagScreenshots != "" {
		cfg.Window.ScreenshotDir = *flagScreenshots
	}
}
