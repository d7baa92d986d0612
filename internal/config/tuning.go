package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/loopwave/motionscript/internal/fsutil"
	"github.com/loopwave/motionscript/internal/security"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// Its values match the fallbacks the Get* methods return for unset
// fields.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tuning parameters.
// The schema matches what an operator would hand-edit before a run, so
// the same JSON file doubles as on-disk defaults and a per-run override.
type TuningConfig struct {
	// Playback / decode params
	SkipFrames     *int     `json:"skip_frames,omitempty"`
	MaxPlaybackFPS *float64 `json:"max_playback_fps,omitempty"`

	// Tracking axis and projection params
	TrackingDirection *string  `json:"tracking_direction,omitempty"`
	UseZoom           *bool    `json:"use_zoom,omitempty"`
	ZoomFactor        *float64 `json:"zoom_factor,omitempty"`
	PreviewScaling    *float64 `json:"preview_scaling,omitempty"`
	Projection        *string  `json:"projection,omitempty"`

	// Manual shift params (signed frame offsets)
	ShiftTopPoints    *int `json:"shift_top_points,omitempty"`
	ShiftBottomPoints *int `json:"shift_bottom_points,omitempty"`

	// Extrema offset / snap-to-extreme params
	TopPointsOffset    *float64 `json:"top_points_offset,omitempty"`
	BottomPointsOffset *float64 `json:"bottom_points_offset,omitempty"`
	TopThreshold       *float64 `json:"top_threshold,omitempty"`
	BottomThreshold    *float64 `json:"bottom_threshold,omitempty"`

	// Emission gate
	MinFrames *int `json:"min_frames,omitempty"`

	// Signal processing params
	AvgSecForLocalMinMaxExtraction         *float64 `json:"avg_sec_for_local_min_max_extraction,omitempty"`
	AdditionalPointsMergeTimeThresholdMs   *float64 `json:"additional_points_merge_time_threshold_in_ms,omitempty"`
	AdditionalPointsMergeDistanceThreshold *float64 `json:"additional_points_merge_distance_threshold,omitempty"`
	DistanceMinimizationThreshold          *float64 `json:"distance_minimization_threshold,omitempty"`
	HighSecondDerivativePointsThreshold    *float64 `json:"high_second_derivative_points_threshold,omitempty"`
	DirectionChangeFilterLen               *int     `json:"direction_change_filter_len,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file using fs. The
// file is validated to ensure it has a .json extension, resolves inside
// the working directory or the system temp directory, and is under the
// max file size. Fields omitted from
// the JSON file retain their default values, so partial configs are safe.
func LoadTuningConfig(fs fsutil.FileSystem, path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	if err := security.ValidateExportPath(cleanPath); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	fileInfo, err := fs.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fs.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are self-consistent.
func (c *TuningConfig) Validate() error {
	if c.SkipFrames != nil && *c.SkipFrames < 0 {
		return fmt.Errorf("skip_frames must be non-negative, got %d", *c.SkipFrames)
	}
	if c.MaxPlaybackFPS != nil && *c.MaxPlaybackFPS < 0 {
		return fmt.Errorf("max_playback_fps must be non-negative, got %f", *c.MaxPlaybackFPS)
	}
	if c.TrackingDirection != nil && *c.TrackingDirection != "x" && *c.TrackingDirection != "y" {
		return fmt.Errorf("tracking_direction must be 'x' or 'y', got %q", *c.TrackingDirection)
	}
	if c.ZoomFactor != nil && *c.ZoomFactor < 1.0 {
		return fmt.Errorf("zoom_factor must be >= 1.0, got %f", *c.ZoomFactor)
	}
	if c.MinFrames != nil && *c.MinFrames < 0 {
		return fmt.Errorf("min_frames must be non-negative, got %d", *c.MinFrames)
	}
	if c.DirectionChangeFilterLen != nil && *c.DirectionChangeFilterLen < 1 {
		return fmt.Errorf("direction_change_filter_len must be >= 1, got %d", *c.DirectionChangeFilterLen)
	}
	if c.AvgSecForLocalMinMaxExtraction != nil && *c.AvgSecForLocalMinMaxExtraction <= 0 {
		return fmt.Errorf("avg_sec_for_local_min_max_extraction must be positive, got %f", *c.AvgSecForLocalMinMaxExtraction)
	}
	return nil
}

// GetSkipFrames returns the skip_frames value or the default.
func (c *TuningConfig) GetSkipFrames() int {
	if c.SkipFrames == nil {
		return 0
	}
	return *c.SkipFrames
}

// GetMaxPlaybackFPS returns the max_playback_fps value or the default.
func (c *TuningConfig) GetMaxPlaybackFPS() float64 {
	if c.MaxPlaybackFPS == nil {
		return 60.0
	}
	return *c.MaxPlaybackFPS
}

// GetTrackingDirection returns the tracking_direction value or the default.
func (c *TuningConfig) GetTrackingDirection() string {
	if c.TrackingDirection == nil {
		return "y"
	}
	return *c.TrackingDirection
}

// GetUseZoom returns the use_zoom value or the default.
func (c *TuningConfig) GetUseZoom() bool {
	if c.UseZoom == nil {
		return false
	}
	return *c.UseZoom
}

// GetZoomFactor returns the zoom_factor value or the default.
func (c *TuningConfig) GetZoomFactor() float64 {
	if c.ZoomFactor == nil {
		return 1.6
	}
	return *c.ZoomFactor
}

// GetPreviewScaling returns the preview_scaling value or the default.
func (c *TuningConfig) GetPreviewScaling() float64 {
	if c.PreviewScaling == nil {
		return 1.0
	}
	return *c.PreviewScaling
}

// GetProjection returns the projection value or the default.
func (c *TuningConfig) GetProjection() string {
	if c.Projection == nil {
		return "flat"
	}
	return *c.Projection
}

// GetShiftTopPoints returns the shift_top_points value or the default.
func (c *TuningConfig) GetShiftTopPoints() int {
	if c.ShiftTopPoints == nil {
		return 0
	}
	return *c.ShiftTopPoints
}

// GetShiftBottomPoints returns the shift_bottom_points value or the default.
func (c *TuningConfig) GetShiftBottomPoints() int {
	if c.ShiftBottomPoints == nil {
		return 0
	}
	return *c.ShiftBottomPoints
}

// GetTopPointsOffset returns the top_points_offset value or the default.
func (c *TuningConfig) GetTopPointsOffset() float64 {
	if c.TopPointsOffset == nil {
		return 0
	}
	return *c.TopPointsOffset
}

// GetBottomPointsOffset returns the bottom_points_offset value or the default.
func (c *TuningConfig) GetBottomPointsOffset() float64 {
	if c.BottomPointsOffset == nil {
		return 0
	}
	return *c.BottomPointsOffset
}

// GetTopThreshold returns the top_threshold value or the default.
func (c *TuningConfig) GetTopThreshold() float64 {
	if c.TopThreshold == nil {
		return 5.0
	}
	return *c.TopThreshold
}

// GetBottomThreshold returns the bottom_threshold value or the default.
func (c *TuningConfig) GetBottomThreshold() float64 {
	if c.BottomThreshold == nil {
		return 5.0
	}
	return *c.BottomThreshold
}

// GetMinFrames returns the min_frames value or the default.
func (c *TuningConfig) GetMinFrames() int {
	if c.MinFrames == nil {
		return 30
	}
	return *c.MinFrames
}

// GetAvgSecForLocalMinMaxExtraction returns the
// avg_sec_for_local_min_max_extraction value or the default.
func (c *TuningConfig) GetAvgSecForLocalMinMaxExtraction() float64 {
	if c.AvgSecForLocalMinMaxExtraction == nil {
		return 2.0
	}
	return *c.AvgSecForLocalMinMaxExtraction
}

// GetAdditionalPointsMergeTimeThresholdMs returns the
// additional_points_merge_time_threshold_in_ms value or the default.
func (c *TuningConfig) GetAdditionalPointsMergeTimeThresholdMs() float64 {
	if c.AdditionalPointsMergeTimeThresholdMs == nil {
		return 110.0
	}
	return *c.AdditionalPointsMergeTimeThresholdMs
}

// GetAdditionalPointsMergeDistanceThreshold returns the
// additional_points_merge_distance_threshold value or the default.
func (c *TuningConfig) GetAdditionalPointsMergeDistanceThreshold() float64 {
	if c.AdditionalPointsMergeDistanceThreshold == nil {
		return 10.0
	}
	return *c.AdditionalPointsMergeDistanceThreshold
}

// GetDistanceMinimizationThreshold returns the
// distance_minimization_threshold value or the default.
func (c *TuningConfig) GetDistanceMinimizationThreshold() float64 {
	if c.DistanceMinimizationThreshold == nil {
		return 20.0
	}
	return *c.DistanceMinimizationThreshold
}

// GetHighSecondDerivativePointsThreshold returns the
// high_second_derivative_points_threshold value or the default.
func (c *TuningConfig) GetHighSecondDerivativePointsThreshold() float64 {
	if c.HighSecondDerivativePointsThreshold == nil {
		return 1.2
	}
	return *c.HighSecondDerivativePointsThreshold
}

// GetDirectionChangeFilterLen returns the direction_change_filter_len
// value or the default.
func (c *TuningConfig) GetDirectionChangeFilterLen() int {
	if c.DirectionChangeFilterLen == nil {
		return 3
	}
	return *c.DirectionChangeFilterLen
}
