package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical defaults file.
// This is the single source of truth for all default values.
const DefaultConfigPath = "config/gridsnap.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Cluster sources accepted by cluster_source.
const (
	ClusterNone   = "none"
	ClusterKMeans = "kmeans"
	ClusterDBSCAN = "dbscan"
)

// Config is the root configuration of a snapping run. Every field is
// optional; the Get* methods supply defaults for omitted fields, so
// partial files are safe.
type Config struct {
	// Grid
	XDepth *int `json:"x_depth,omitempty" yaml:"x_depth,omitempty"`
	YDepth *int `json:"y_depth,omitempty" yaml:"y_depth,omitempty"`

	// Snapping
	AllowXSnap *bool    `json:"allow_x_snap,omitempty" yaml:"allow_x_snap,omitempty"`
	AllowYSnap *bool    `json:"allow_y_snap,omitempty" yaml:"allow_y_snap,omitempty"`
	Modes      []string `json:"modes,omitempty" yaml:"modes,omitempty"`
	Anchors    []string `json:"anchors,omitempty" yaml:"anchors,omitempty"`

	// Limits. Unset means unconstrained; there is no default.
	XLimit         *float64 `json:"x_limit,omitempty" yaml:"x_limit,omitempty"`
	YLimit         *float64 `json:"y_limit,omitempty" yaml:"y_limit,omitempty"`
	XRelativeLimit *float64 `json:"x_relative_limit,omitempty" yaml:"x_relative_limit,omitempty"`
	YRelativeLimit *float64 `json:"y_relative_limit,omitempty" yaml:"y_relative_limit,omitempty"`

	// Cluster-derived grid
	ClusterSource *string  `json:"cluster_source,omitempty" yaml:"cluster_source,omitempty"` // none, kmeans or dbscan
	ClusterAnchor *string  `json:"cluster_anchor,omitempty" yaml:"cluster_anchor,omitempty"`
	ClusterAxis   *string  `json:"cluster_axis,omitempty" yaml:"cluster_axis,omitempty"` // x, y or both
	ClusterK      *int     `json:"cluster_k,omitempty" yaml:"cluster_k,omitempty"`       // 0 picks per slide
	DBSCANEps     *float64 `json:"dbscan_eps,omitempty" yaml:"dbscan_eps,omitempty"`     // 0 derives from slide size
	DBSCANMinPts  *int     `json:"dbscan_min_pts,omitempty" yaml:"dbscan_min_pts,omitempty"`

	// Template recognition
	RecognizeTemplates *bool    `json:"recognize_templates,omitempty" yaml:"recognize_templates,omitempty"`
	Recognizer         *string  `json:"recognizer,omitempty" yaml:"recognizer,omitempty"`
	SizeThreshold      *float64 `json:"size_threshold,omitempty" yaml:"size_threshold,omitempty"`
	DiceThreshold      *float64 `json:"dice_threshold,omitempty" yaml:"dice_threshold,omitempty"`
	MinRepeat          *int     `json:"min_repeat,omitempty" yaml:"min_repeat,omitempty"`

	// Workers bounds per-object fan-out. 0 uses GOMAXPROCS.
	Workers *int `json:"workers,omitempty" yaml:"workers,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyConfig returns a Config with all fields unset.
func EmptyConfig() *Config {
	return &Config{}
}

// DefaultConfig returns a Config with every defaulted field filled in.
// Limits stay unset.
func DefaultConfig() *Config {
	c := EmptyConfig()
	return &Config{
		XDepth:             ptrInt(c.GetXDepth()),
		YDepth:             ptrInt(c.GetYDepth()),
		AllowXSnap:         ptrBool(c.GetAllowXSnap()),
		AllowYSnap:         ptrBool(c.GetAllowYSnap()),
		Modes:              c.GetModes(),
		Anchors:            c.GetAnchors(),
		ClusterSource:      ptrString(c.GetClusterSource()),
		ClusterAnchor:      ptrString(c.GetClusterAnchor()),
		ClusterAxis:        ptrString(c.GetClusterAxis()),
		ClusterK:           ptrInt(c.GetClusterK()),
		DBSCANEps:          ptrFloat64(c.GetDBSCANEps()),
		DBSCANMinPts:       ptrInt(c.GetDBSCANMinPts()),
		RecognizeTemplates: ptrBool(c.GetRecognizeTemplates()),
		Recognizer:         ptrString(c.GetRecognizer()),
		SizeThreshold:      ptrFloat64(c.GetSizeThreshold()),
		DiceThreshold:      ptrFloat64(c.GetDiceThreshold()),
		MinRepeat:          ptrInt(c.GetMinRepeat()),
		Workers:            ptrInt(c.GetWorkers()),
	}
}

// Load reads a Config from a .json, .yaml or .yml file under 1MB and
// validates it.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *Config {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/layout/pipeline/
		"../../../../" + DefaultConfigPath, // from internal/layout/storage/sqlite/
	}
	for _, path := range candidates {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// JSON returns the configuration as compact JSON, as stored with each run.
func (c *Config) JSON() string {
	b, err := json.Marshal(c)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// Validate checks the values that are set.
func (c *Config) Validate() error {
	for name, d := range map[string]*int{"x_depth": c.XDepth, "y_depth": c.YDepth} {
		if d != nil && *d < -1 {
			return fmt.Errorf("%s must be >= -1, got %d", name, *d)
		}
	}
	for _, m := range c.Modes {
		switch strings.ToLower(m) {
		case "x", "y", "joint":
		default:
			return fmt.Errorf("unknown mode %q (want x, y or joint)", m)
		}
	}
	limits := map[string]*float64{
		"x_limit":          c.XLimit,
		"y_limit":          c.YLimit,
		"x_relative_limit": c.XRelativeLimit,
		"y_relative_limit": c.YRelativeLimit,
	}
	for name, l := range limits {
		if l != nil && *l < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", name, *l)
		}
	}
	if c.ClusterSource != nil {
		switch *c.ClusterSource {
		case "", ClusterNone, ClusterKMeans, ClusterDBSCAN:
		default:
			return fmt.Errorf("unknown cluster_source %q", *c.ClusterSource)
		}
	}
	if c.ClusterK != nil && *c.ClusterK < 0 {
		return fmt.Errorf("cluster_k must be non-negative, got %d", *c.ClusterK)
	}
	if c.DBSCANEps != nil && *c.DBSCANEps < 0 {
		return fmt.Errorf("dbscan_eps must be non-negative, got %f", *c.DBSCANEps)
	}
	for name, th := range map[string]*float64{"size_threshold": c.SizeThreshold, "dice_threshold": c.DiceThreshold} {
		if th != nil && (*th < 0 || *th > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, *th)
		}
	}
	if c.MinRepeat != nil && *c.MinRepeat < 0 {
		return fmt.Errorf("min_repeat must be non-negative, got %d", *c.MinRepeat)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	return nil
}

// GetXDepth returns the x_depth value or the default.
func (c *Config) GetXDepth() int {
	if c.XDepth == nil {
		return 3 // default
	}
	return *c.XDepth
}

// GetYDepth returns the y_depth value or the default.
func (c *Config) GetYDepth() int {
	if c.YDepth == nil {
		return 3 // default
	}
	return *c.YDepth
}

func (c *Config) GetAllowXSnap() bool {
	if c.AllowXSnap == nil {
		return true
	}
	return *c.AllowXSnap
}

func (c *Config) GetAllowYSnap() bool {
	if c.AllowYSnap == nil {
		return true
	}
	return *c.AllowYSnap
}

// GetModes returns the axis modes to run, in order. The first mode flushes
// earlier candidates.
func (c *Config) GetModes() []string {
	if len(c.Modes) == 0 {
		return []string{"x", "y", "joint"}
	}
	return append([]string(nil), c.Modes...)
}

// GetAnchors returns the active anchor names.
func (c *Config) GetAnchors() []string {
	if len(c.Anchors) == 0 {
		return []string{"top-left", "top-right", "bottom-left", "bottom-right", "center"}
	}
	return append([]string(nil), c.Anchors...)
}

// Limits are returned as pointers; nil means unconstrained.
func (c *Config) GetXLimit() *float64         { return c.XLimit }
func (c *Config) GetYLimit() *float64         { return c.YLimit }
func (c *Config) GetXRelativeLimit() *float64 { return c.XRelativeLimit }
func (c *Config) GetYRelativeLimit() *float64 { return c.YRelativeLimit }

// GetClusterSource returns the cluster_source value or the default.
func (c *Config) GetClusterSource() string {
	if c.ClusterSource == nil || *c.ClusterSource == "" {
		return ClusterNone
	}
	return *c.ClusterSource
}

func (c *Config) GetClusterAnchor() string {
	if c.ClusterAnchor == nil || *c.ClusterAnchor == "" {
		return "center"
	}
	return *c.ClusterAnchor
}

func (c *Config) GetClusterAxis() string {
	if c.ClusterAxis == nil || *c.ClusterAxis == "" {
		return "both"
	}
	return *c.ClusterAxis
}

func (c *Config) GetClusterK() int {
	if c.ClusterK == nil {
		return 0
	}
	return *c.ClusterK
}

func (c *Config) GetDBSCANEps() float64 {
	if c.DBSCANEps == nil {
		return 0
	}
	return *c.DBSCANEps
}

func (c *Config) GetDBSCANMinPts() int {
	if c.DBSCANMinPts == nil {
		return 2 // default
	}
	return *c.DBSCANMinPts
}

func (c *Config) GetRecognizeTemplates() bool {
	if c.RecognizeTemplates == nil {
		return true
	}
	return *c.RecognizeTemplates
}

// GetRecognizer returns the recognizer preset name or the default.
func (c *Config) GetRecognizer() string {
	if c.Recognizer == nil || *c.Recognizer == "" {
		return "size"
	}
	return *c.Recognizer
}

func (c *Config) GetSizeThreshold() float64 {
	if c.SizeThreshold == nil {
		return 1.0
	}
	return *c.SizeThreshold
}

func (c *Config) GetDiceThreshold() float64 {
	if c.DiceThreshold == nil {
		return 1.0
	}
	return *c.DiceThreshold
}

// GetMinRepeat returns the min_repeat value or the default.
func (c *Config) GetMinRepeat() int {
	if c.MinRepeat == nil {
		return 2 // default
	}
	return *c.MinRepeat
}

func (c *Config) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}
