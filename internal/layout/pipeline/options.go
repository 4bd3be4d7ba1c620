package pipeline

import (
	"errors"
	"fmt"

	"github.com/banshee-data/gridsnap/internal/config"
	"github.com/banshee-data/gridsnap/internal/layout"
	"github.com/banshee-data/gridsnap/internal/layout/cluster"
	"github.com/banshee-data/gridsnap/internal/layout/recognize"
	"github.com/banshee-data/gridsnap/internal/layout/snapping"
)

// ErrNoModes is returned when a run has no axis mode to evaluate.
var ErrNoModes = errors.New("no snapping modes configured")

// Options controls a Run.
type Options struct {
	XDepth int
	YDepth int
	AllowX bool
	AllowY bool

	// Modes are evaluated in order against each grid. The first mode of the
	// basic grid flushes whatever candidates objects carried before.
	Modes   []layout.AxisMode
	Anchors layout.AnchorSet
	Limits  snapping.Limits

	// ClusterSource is config.ClusterNone, ClusterKMeans or ClusterDBSCAN.
	ClusterSource string
	ClusterAnchor layout.Anchor
	ClusterAxis   cluster.Axis
	KMeans        cluster.KMeansParams
	DBSCAN        cluster.DBSCANParams

	Recognize  bool
	Recognizer *recognize.Recognizer
	MinRepeat  int

	// Workers bounds every fan-out. 0 uses GOMAXPROCS.
	Workers int
}

// OptionsFromConfig converts cfg, which may be nil, into run options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	if cfg == nil {
		cfg = config.EmptyConfig()
	}
	if err := cfg.Validate(); err != nil {
		return Options{}, fmt.Errorf("invalid configuration: %w", err)
	}

	opts := Options{
		XDepth:        cfg.GetXDepth(),
		YDepth:        cfg.GetYDepth(),
		AllowX:        cfg.GetAllowXSnap(),
		AllowY:        cfg.GetAllowYSnap(),
		ClusterSource: cfg.GetClusterSource(),
		KMeans:        cluster.KMeansParams{K: cfg.GetClusterK()},
		DBSCAN:        cluster.DBSCANParams{Eps: cfg.GetDBSCANEps(), MinPts: cfg.GetDBSCANMinPts()},
		Recognize:     cfg.GetRecognizeTemplates(),
		MinRepeat:     cfg.GetMinRepeat(),
		Workers:       cfg.GetWorkers(),
		Limits: snapping.Limits{
			AbsX: cfg.GetXLimit(),
			AbsY: cfg.GetYLimit(),
			RelX: cfg.GetXRelativeLimit(),
			RelY: cfg.GetYRelativeLimit(),
		},
	}

	for _, name := range cfg.GetModes() {
		m, err := layout.ParseAxisMode(name)
		if err != nil {
			return Options{}, err
		}
		opts.Modes = append(opts.Modes, m)
	}

	var err error
	if opts.Anchors, err = layout.ParseAnchorSet(cfg.GetAnchors()); err != nil {
		return Options{}, err
	}
	if opts.ClusterAnchor, err = layout.ParseAnchor(cfg.GetClusterAnchor()); err != nil {
		return Options{}, fmt.Errorf("cluster_anchor: %w", err)
	}
	if opts.ClusterAxis, err = cluster.ParseAxis(cfg.GetClusterAxis()); err != nil {
		return Options{}, fmt.Errorf("cluster_axis: %w", err)
	}
	if opts.Recognizer, err = recognize.FromPreset(cfg.GetRecognizer(), cfg.GetSizeThreshold(), cfg.GetDiceThreshold()); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// DefaultOptions returns the options of an empty configuration.
func DefaultOptions() Options {
	opts, err := OptionsFromConfig(nil)
	if err != nil {
		panic(err)
	}
	return opts
}

// source returns the provenance tag of the cluster grid, or "" when none is
// configured.
func (o Options) source() string {
	switch o.ClusterSource {
	case config.ClusterKMeans:
		return snapping.SourceKMeans
	case config.ClusterDBSCAN:
		return snapping.SourceDBSCAN
	}
	return ""
}
