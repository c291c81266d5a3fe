package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	assert.Equal(t, 1, cfg.GetLookbackSamples())
	assert.InDelta(t, 0.05, cfg.GetAngleTolerance(), 1e-12)
	assert.Equal(t, [2]float64{1920, 1080}, cfg.GetScreenSize())
	assert.Equal(t, 20*time.Second, cfg.GetCalibrationTimeout())
	assert.Equal(t, "/dev/ttyUSB0", cfg.GetSerial().Port)
}

func TestLoadPartialConfigUsesDefaults(t *testing.T) {
	path := writeConfig(t, "partial.json", `{"release_velocity_lookback_samples": 3, "initial_paddle_angle_deg": 90}`)

	cfg, err := LoadExperimentConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.GetLookbackSamples())
	assert.InDelta(t, math.Pi/2, cfg.GetInitialPaddleAngle(), 1e-12)
	assert.InDelta(t, 1.0, cfg.GetSpringConstant(), 1e-12)
	assert.Equal(t, 16*time.Millisecond, cfg.GetTickInterval())
	assert.Equal(t, 2, cfg.GetExpectedSensors())
	assert.Equal(t, 115200, cfg.GetSerial().BaudRate)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"extension", "cfg.yaml", `{}`, ".json extension"},
		{"syntax", "cfg.json", `{`, "parse config JSON"},
		{"missing lookback", "cfg.json", `{"ball_mass": 1}`, "release_velocity_lookback_samples is required"},
		{"zero lookback", "cfg.json", `{"release_velocity_lookback_samples": 0}`, "at least 1"},
		{"negative mass", "cfg.json", `{"release_velocity_lookback_samples": 1, "ball_mass": -1}`, "ball_mass must be positive"},
		{"zero spring", "cfg.json", `{"release_velocity_lookback_samples": 1, "spring_constant": 0}`, "spring_constant must be positive"},
		{"sensors", "cfg.json", `{"release_velocity_lookback_samples": 1, "expected_sensors": 3}`, "expected_sensors"},
		{"timeout", "cfg.json", `{"release_velocity_lookback_samples": 1, "calibration_timeout": "soon"}`, "calibration_timeout"},
		{"screen", "cfg.json", `{"release_velocity_lookback_samples": 1, "screen_size": [0, 100]}`, "screen_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadExperimentConfig(writeConfig(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadRejectsLargeFile(t *testing.T) {
	body := `{"release_velocity_lookback_samples": 1, "pad": "` + strings.Repeat("x", 1024*1024) + `"}`
	_, err := LoadExperimentConfig(writeConfig(t, "big.json", body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestGettersOverride(t *testing.T) {
	cfg := EmptyExperimentConfig()
	cfg.ReleaseVelocityLookbackSamples = ptrInt(2)
	cfg.AngleTolerance = ptrFloat64(0.1)
	cfg.TickInterval = ptrString("bogus")
	cfg.CalibrationTimeout = ptrString("5s")

	assert.Equal(t, 2, cfg.GetLookbackSamples())
	assert.InDelta(t, 0.1, cfg.GetAngleTolerance(), 1e-12)
	assert.Equal(t, 16*time.Millisecond, cfg.GetTickInterval())
	assert.Equal(t, 5*time.Second, cfg.GetCalibrationTimeout())
	assert.Equal(t, 0, EmptyExperimentConfig().GetLookbackSamples())
}
