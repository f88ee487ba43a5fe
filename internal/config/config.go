// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Window   WindowConfig    `yaml:"window"`
	Volume   VolumeConfig    `yaml:"volume"`
	Render   RenderConfig    `yaml:"render"`
	Camera   CameraConfig    `yaml:"camera"`
	Polygons []PolygonConfig `yaml:"polygons"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title         string `yaml:"title"`
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
	Fullscreen    bool   `yaml:"fullscreen"`
	VSync         bool   `yaml:"vsync"`
	ScreenshotDir string `yaml:"screenshot_dir"` // F12 captures, empty for the working directory
}

// VolumeConfig holds the surface and shadow volume extrusion settings.
type VolumeConfig struct {
	Ellipsoid          string  `yaml:"ellipsoid"`            // wgs84 or sphere
	Radius             float64 `yaml:"radius"`               // sphere radius, meters
	GranularityDegrees float64 `yaml:"granularity_degrees"`  // tessellation step
	MaxTerrainAltitude float64 `yaml:"max_terrain_altitude"` // meters
}

// RenderConfig holds compositing settings.
type RenderConfig struct {
	Strategy          string    `yaml:"strategy"`   // simple or stencil
	FillColor         []float32 `yaml:"fill_color"` // RGBA, empty picks a random color per polygon
	AltitudeThreshold float32   `yaml:"altitude_threshold"`
	RampCoefficient   float32   `yaml:"ramp_coefficient"`
	GlobeSlices       int       `yaml:"globe_slices"`
	GlobeStacks       int       `yaml:"globe_stacks"`
}

// CameraConfig holds the initial camera placement.
type CameraConfig struct {
	StartHeight float64 `yaml:"start_height"` // meters
	FitPolygons bool    `yaml:"fit_polygons"`
}

// PolygonConfig is one polygon in degrees. Points are [lon, lat] or
// [lon, lat, height].
type PolygonConfig struct {
	Name  string        `yaml:"name"`
	Outer [][]float64   `yaml:"outer"`
	Holes [][][]float64 `yaml:"holes,omitempty"`
	Color []float32     `yaml:"color,omitempty"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:      "polyview",
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Volume: VolumeConfig{
			Ellipsoid:          "wgs84",
			Radius:             6378137.0,
			GranularityDegrees: 1.0,
			MaxTerrainAltitude: 8500.0,
		},
		Render: RenderConfig{
			Strategy:          "stencil",
			AltitudeThreshold: -100.0,
			RampCoefficient:   -2.0,
			GlobeSlices:       240,
			GlobeStacks:       120,
		},
		Camera: CameraConfig{
			StartHeight: 2.0e7,
			FitPolygons: true,
		},
		Polygons: []PolygonConfig{
			{
				Name: "canyon",
				Outer: [][]float64{
					{-112.6, 35.9}, {-111.4, 35.9}, {-111.4, 36.7}, {-112.6, 36.7},
				},
				Holes: [][][]float64{
					{{-112.2, 36.1}, {-111.8, 36.1}, {-112.0, 36.4}},
				},
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
