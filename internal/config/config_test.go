package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestEmptyConfig_Defaults(t *testing.T) {
	cfg := EmptyConfig()

	if got := cfg.GetXDepth(); got != 3 {
		t.Errorf("GetXDepth() = %d, want 3", got)
	}
	if got := cfg.GetYDepth(); got != 3 {
		t.Errorf("GetYDepth() = %d, want 3", got)
	}
	if !cfg.GetAllowXSnap() || !cfg.GetAllowYSnap() {
		t.Error("both axes should be allowed by default")
	}
	if got := cfg.GetModes(); len(got) != 3 || got[0] != "x" || got[2] != "joint" {
		t.Errorf("GetModes() = %v", got)
	}
	if got := cfg.GetAnchors(); len(got) != 5 {
		t.Errorf("GetAnchors() = %v, want all five anchors", got)
	}
	if cfg.GetXLimit() != nil || cfg.GetYRelativeLimit() != nil {
		t.Error("limits should be unset by default")
	}
	if got := cfg.GetClusterSource(); got != ClusterNone {
		t.Errorf("GetClusterSource() = %q", got)
	}
	if got := cfg.GetRecognizer(); got != "size" {
		t.Errorf("GetRecognizer() = %q", got)
	}
	if got := cfg.GetMinRepeat(); got != 2 {
		t.Errorf("GetMinRepeat() = %d, want 2", got)
	}
	if got := cfg.GetDBSCANMinPts(); got != 2 {
		t.Errorf("GetDBSCANMinPts() = %d, want 2", got)
	}
	if !cfg.GetRecognizeTemplates() {
		t.Error("recognition should be on by default")
	}
}

func TestGetModes_ReturnsCopy(t *testing.T) {
	cfg := &Config{Modes: []string{"x"}}
	got := cfg.GetModes()
	got[0] = "joint"
	assert.Equal(t, []string{"x"}, cfg.Modes)
}

func TestDefaultConfig_MatchesDefaultsFile(t *testing.T) {
	fromFile := MustLoadDefaultConfig()
	assert.Equal(t, DefaultConfig(), fromFile)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "cfg.json", `{"x_depth": 2, "x_limit": 12.5, "modes": ["joint"]}`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.GetXDepth())
	assert.Equal(t, 3, cfg.GetYDepth(), "omitted fields fall back to defaults")
	require.NotNil(t, cfg.GetXLimit())
	assert.InDelta(t, 12.5, *cfg.GetXLimit(), 1e-9)
	assert.Equal(t, []string{"joint"}, cfg.GetModes())
}

func TestLoad_YAML(t *testing.T) {
	body := strings.Join([]string{
		"y_depth: -1",
		"cluster_source: kmeans",
		"cluster_k: 4",
		"recognizer: size_dice",
		"dice_threshold: 0.8",
	}, "\n")
	for _, name := range []string{"cfg.yaml", "cfg.yml"} {
		cfg, err := Load(writeFile(t, name, body))
		require.NoError(t, err, name)
		assert.Equal(t, -1, cfg.GetYDepth())
		assert.Equal(t, ClusterKMeans, cfg.GetClusterSource())
		assert.Equal(t, 4, cfg.GetClusterK())
		assert.Equal(t, "size_dice", cfg.GetRecognizer())
		assert.InDelta(t, 0.8, cfg.GetDiceThreshold(), 1e-9)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"bad extension", "cfg.txt", "{}", "extension"},
		{"bad json", "cfg.json", "{", "parse config JSON"},
		{"bad yaml", "cfg.yaml", "x_depth: [", "parse config YAML"},
		{"depth below -1", "cfg.json", `{"x_depth": -2}`, "x_depth"},
		{"unknown mode", "cfg.json", `{"modes": ["diagonal"]}`, "unknown mode"},
		{"negative limit", "cfg.json", `{"y_relative_limit": -0.1}`, "y_relative_limit"},
		{"unknown source", "cfg.json", `{"cluster_source": "hdbscan"}`, "cluster_source"},
		{"threshold above one", "cfg.json", `{"size_threshold": 1.5}`, "size_threshold"},
		{"negative workers", "cfg.json", `{"workers": -1}`, "workers"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.body))
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_TooLarge(t *testing.T) {
	big := `{"recognizer": "` + strings.Repeat("a", maxFileSize) + `"}`
	_, err := Load(writeFile(t, "big.json", big))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestConfig_JSON(t *testing.T) {
	cfg := &Config{XDepth: ptrInt(1)}
	assert.JSONEq(t, `{"x_depth": 1}`, cfg.JSON())
}
