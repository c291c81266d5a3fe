package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/skittles/internal/units"
)

// DefaultConfigPath is the path to the example experiment configuration.
const DefaultConfigPath = "config/skittles.example.json"

// ExperimentConfig is the root configuration of a skittles trial. Fields are
// pointers so that omitted values fall back to the Get* defaults;
// ReleaseVelocityLookbackSamples has no default and must be set.
type ExperimentConfig struct {
	// Release gating
	AngleTolerance *float64 `json:"angle_tolerance,omitempty"` // radians

	// Oscillator
	BallMass       *float64 `json:"ball_mass,omitempty"`
	SpringConstant *float64 `json:"spring_constant,omitempty"`
	Frequency      *float64 `json:"frequency,omitempty"`
	RelaxationTime *float64 `json:"relaxation_time,omitempty"` // seconds

	ReleaseVelocityLookbackSamples *int `json:"release_velocity_lookback_samples,omitempty"`

	// Scene geometry, screen pixels
	InitialPaddleAngleDeg *float64    `json:"initial_paddle_angle_deg,omitempty"`
	TargetPosition        *[2]float64 `json:"target_position,omitempty"` // offset from screen centre
	TargetSize            *float64    `json:"target_size,omitempty"`
	ScreenSize            *[2]float64 `json:"screen_size,omitempty"`
	PaddleLength          *float64    `json:"paddle_length,omitempty"`
	BallRadius            *float64    `json:"ball_radius,omitempty"`
	PostSize              *float64    `json:"post_size,omitempty"`

	// Session
	ExpectedSensors    *int    `json:"expected_sensors,omitempty"`
	CalibrationTimeout *string `json:"calibration_timeout,omitempty"` // duration string like "20s"
	TickInterval       *string `json:"tick_interval,omitempty"`       // duration string like "16ms"

	Serial *SerialConfig `json:"serial,omitempty"`
}

// SerialConfig describes the tracker's serial connection.
type SerialConfig struct {
	Port     string `json:"port"`
	BaudRate int    `json:"baud_rate,omitempty"`
	DataBits int    `json:"data_bits,omitempty"`
	StopBits int    `json:"stop_bits,omitempty"`
	Parity   string `json:"parity,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyExperimentConfig returns an ExperimentConfig with all fields set to nil.
func EmptyExperimentConfig() *ExperimentConfig {
	return &ExperimentConfig{}
}

// LoadExperimentConfig loads an ExperimentConfig from a JSON file.
// The file must have a .json extension and be under the max file size.
func LoadExperimentConfig(path string) (*ExperimentConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyExperimentConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the example configuration from DefaultConfigPath,
// searching parent directories. Panics on failure; intended for test setup.
func MustLoadDefaultConfig() *ExperimentConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/<pkg>/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadExperimentConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *ExperimentConfig) Validate() error {
	if c.ReleaseVelocityLookbackSamples == nil {
		return fmt.Errorf("release_velocity_lookback_samples is required")
	}
	if *c.ReleaseVelocityLookbackSamples < 1 {
		return fmt.Errorf("release_velocity_lookback_samples must be at least 1, got %d", *c.ReleaseVelocityLookbackSamples)
	}

	positive := []struct {
		name string
		v    *float64
	}{
		{"angle_tolerance", c.AngleTolerance},
		{"ball_mass", c.BallMass},
		{"spring_constant", c.SpringConstant},
		{"frequency", c.Frequency},
		{"relaxation_time", c.RelaxationTime},
		{"target_size", c.TargetSize},
		{"paddle_length", c.PaddleLength},
		{"ball_radius", c.BallRadius},
		{"post_size", c.PostSize},
	}
	for _, p := range positive {
		if p.v == nil {
			continue
		}
		if math.IsNaN(*p.v) || math.IsInf(*p.v, 0) || *p.v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", p.name, *p.v)
		}
	}

	if c.ScreenSize != nil && (c.ScreenSize[0] <= 0 || c.ScreenSize[1] <= 0) {
		return fmt.Errorf("screen_size must be positive, got %v", *c.ScreenSize)
	}

	if c.ExpectedSensors != nil && *c.ExpectedSensors != 2 {
		return fmt.Errorf("expected_sensors must be 2 (pivot and tip), got %d", *c.ExpectedSensors)
	}

	for name, v := range map[string]*string{
		"calibration_timeout": c.CalibrationTimeout,
		"tick_interval":       c.TickInterval,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	return nil
}

// GetAngleTolerance returns the activation tolerance in radians.
func (c *ExperimentConfig) GetAngleTolerance() float64 {
	if c.AngleTolerance == nil {
		return 0.05 // default
	}
	return *c.AngleTolerance
}

// GetBallMass returns the ball_mass value or the default.
func (c *ExperimentConfig) GetBallMass() float64 {
	if c.BallMass == nil {
		return 0.1 // default
	}
	return *c.BallMass
}

// GetSpringConstant returns the spring_constant value or the default.
func (c *ExperimentConfig) GetSpringConstant() float64 {
	if c.SpringConstant == nil {
		return 1.0 // default
	}
	return *c.SpringConstant
}

// GetFrequency returns the oscillator angular frequency in rad/s.
func (c *ExperimentConfig) GetFrequency() float64 {
	if c.Frequency == nil {
		return 1.0 // default
	}
	return *c.Frequency
}

// GetRelaxationTime returns the oscillator decay time constant in seconds.
func (c *ExperimentConfig) GetRelaxationTime() float64 {
	if c.RelaxationTime == nil {
		return 20.0 // default
	}
	return *c.RelaxationTime
}

// GetLookbackSamples returns release_velocity_lookback_samples. Validate
// guarantees it is set; an unvalidated config yields 0.
func (c *ExperimentConfig) GetLookbackSamples() int {
	if c.ReleaseVelocityLookbackSamples == nil {
		return 0
	}
	return *c.ReleaseVelocityLookbackSamples
}

// GetInitialPaddleAngle returns the initial paddle angle converted to radians.
func (c *ExperimentConfig) GetInitialPaddleAngle() float64 {
	if c.InitialPaddleAngleDeg == nil {
		return 0
	}
	return units.DegreesToRadians(*c.InitialPaddleAngleDeg)
}

// GetTargetPosition returns the target offset from the screen centre.
func (c *ExperimentConfig) GetTargetPosition() [2]float64 {
	if c.TargetPosition == nil {
		return [2]float64{200, 200} // default
	}
	return *c.TargetPosition
}

// GetTargetSize returns the target radius.
func (c *ExperimentConfig) GetTargetSize() float64 {
	if c.TargetSize == nil {
		return 20 // default
	}
	return *c.TargetSize
}

// GetScreenSize returns the screen width and height.
func (c *ExperimentConfig) GetScreenSize() [2]float64 {
	if c.ScreenSize == nil {
		return [2]float64{1920, 1080} // default
	}
	return *c.ScreenSize
}

// GetPaddleLength returns the paddle_length value or the default.
func (c *ExperimentConfig) GetPaddleLength() float64 {
	if c.PaddleLength == nil {
		return 300 // default
	}
	return *c.PaddleLength
}

// GetBallRadius returns the ball_radius value or the default.
func (c *ExperimentConfig) GetBallRadius() float64 {
	if c.BallRadius == nil {
		return 10 // default
	}
	return *c.BallRadius
}

// GetPostSize returns the centre post radius.
func (c *ExperimentConfig) GetPostSize() float64 {
	if c.PostSize == nil {
		return 30 // default
	}
	return *c.PostSize
}

// GetExpectedSensors returns the number of tracker sensors on the joint.
func (c *ExperimentConfig) GetExpectedSensors() int {
	if c.ExpectedSensors == nil {
		return 2 // default
	}
	return *c.ExpectedSensors
}

// GetCalibrationTimeout parses and returns the CalibrationTimeout as a time.Duration.
func (c *ExperimentConfig) GetCalibrationTimeout() time.Duration {
	if c.CalibrationTimeout == nil || *c.CalibrationTimeout == "" {
		return 20 * time.Second // default
	}
	d, err := time.ParseDuration(*c.CalibrationTimeout)
	if err != nil {
		return 20 * time.Second // default on parse error
	}
	return d
}

// GetTickInterval parses and returns the TickInterval as a time.Duration.
func (c *ExperimentConfig) GetTickInterval() time.Duration {
	if c.TickInterval == nil || *c.TickInterval == "" {
		return 16 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.TickInterval)
	if err != nil {
		return 16 * time.Millisecond // default on parse error
	}
	return d
}

// GetSerial returns the serial connection settings, with the tracker's
// default baud rate when unset.
func (c *ExperimentConfig) GetSerial() SerialConfig {
	var s SerialConfig
	if c.Serial != nil {
		s = *c.Serial
	}
	if s.Port == "" {
		s.Port = "/dev/ttyUSB0"
	}
	if s.BaudRate == 0 {
		s.BaudRate = 115200
	}
	return s
}
