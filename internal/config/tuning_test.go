package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopwave/motionscript/internal/fsutil"
)

func TestEmptyTuningConfig(t *testing.T) {
	t.Parallel()
	cfg := EmptyTuningConfig()

	assert.Nil(t, cfg.SkipFrames)
	assert.Nil(t, cfg.MaxPlaybackFPS)
	assert.Nil(t, cfg.TrackingDirection)

	// Every Get* method must fall back to a sane default on a bare config.
	assert.Equal(t, 0, cfg.GetSkipFrames())
	assert.Equal(t, 60.0, cfg.GetMaxPlaybackFPS())
	assert.Equal(t, "y", cfg.GetTrackingDirection())
	assert.False(t, cfg.GetUseZoom())
	assert.Equal(t, 1.6, cfg.GetZoomFactor())
	assert.Equal(t, 1.0, cfg.GetPreviewScaling())
	assert.Equal(t, "flat", cfg.GetProjection())
	assert.Equal(t, 0, cfg.GetShiftTopPoints())
	assert.Equal(t, 0, cfg.GetShiftBottomPoints())
	assert.Equal(t, 0.0, cfg.GetTopPointsOffset())
	assert.Equal(t, 0.0, cfg.GetBottomPointsOffset())
	assert.Equal(t, 5.0, cfg.GetTopThreshold())
	assert.Equal(t, 5.0, cfg.GetBottomThreshold())
	assert.Equal(t, 30, cfg.GetMinFrames())
	assert.Equal(t, 2.0, cfg.GetAvgSecForLocalMinMaxExtraction())
	assert.Equal(t, 110.0, cfg.GetAdditionalPointsMergeTimeThresholdMs())
	assert.Equal(t, 10.0, cfg.GetAdditionalPointsMergeDistanceThreshold())
	assert.Equal(t, 20.0, cfg.GetDistanceMinimizationThreshold())
	assert.Equal(t, 1.2, cfg.GetHighSecondDerivativePointsThreshold())
	assert.Equal(t, 3, cfg.GetDirectionChangeFilterLen())

	assert.NoError(t, cfg.Validate())
}

func TestLoadTuningConfig(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("override.json", []byte(`{
		"skip_frames": 2,
		"tracking_direction": "x",
		"min_frames": 50,
		"direction_change_filter_len": 5
	}`), 0o644))

	cfg, err := LoadTuningConfig(fs, "override.json")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.GetSkipFrames())
	assert.Equal(t, "x", cfg.GetTrackingDirection())
	assert.Equal(t, 50, cfg.GetMinFrames())
	assert.Equal(t, 5, cfg.GetDirectionChangeFilterLen())
	// Untouched fields still report their defaults.
	assert.Equal(t, 60.0, cfg.GetMaxPlaybackFPS())
}

func TestLoadTuningConfigRejectsNonJSON(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()
	_, err := LoadTuningConfig(fs, "config.yaml")
	assert.Error(t, err)
}

func TestLoadTuningConfigRejectsMissingFile(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()
	_, err := LoadTuningConfig(fs, "missing.json")
	assert.Error(t, err)
}

func TestLoadTuningConfigRejectsInvalidJSON(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("bad.json", []byte(`{"skip_frames": `), 0o644))
	_, err := LoadTuningConfig(fs, "bad.json")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		cfg     *TuningConfig
		wantErr bool
	}{
		{name: "empty config is valid", cfg: &TuningConfig{}, wantErr: false},
		{name: "negative skip_frames", cfg: &TuningConfig{SkipFrames: ptrInt(-1)}, wantErr: true},
		{name: "negative max_playback_fps", cfg: &TuningConfig{MaxPlaybackFPS: ptrFloat64(-1)}, wantErr: true},
		{name: "bad tracking_direction", cfg: &TuningConfig{TrackingDirection: ptrString("z")}, wantErr: true},
		{name: "zoom_factor below 1.0", cfg: &TuningConfig{ZoomFactor: ptrFloat64(0.5)}, wantErr: true},
		{name: "negative min_frames", cfg: &TuningConfig{MinFrames: ptrInt(-5)}, wantErr: true},
		{name: "direction_change_filter_len below 1", cfg: &TuningConfig{DirectionChangeFilterLen: ptrInt(0)}, wantErr: true},
		{name: "non-positive avg_sec window", cfg: &TuningConfig{AvgSecForLocalMinMaxExtraction: ptrFloat64(0)}, wantErr: true},
		{name: "valid tracking_direction x", cfg: &TuningConfig{TrackingDirection: ptrString("x")}, wantErr: false},
		{name: "zoom enabled with sane factor", cfg: &TuningConfig{UseZoom: ptrBool(true), ZoomFactor: ptrFloat64(2.0)}, wantErr: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadTuningConfigRejectsLargeFile(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()
	large := make([]byte, 2*1024*1024)
	require.NoError(t, fs.WriteFile("large.json", large, 0o644))
	_, err := LoadTuningConfig(fs, "large.json")
	assert.Error(t, err)
}

func TestLoadTuningConfigFailsValidation(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile("invalid.json", []byte(`{"tracking_direction": "z"}`), 0o644))
	_, err := LoadTuningConfig(fs, "invalid.json")
	assert.Error(t, err)
}
