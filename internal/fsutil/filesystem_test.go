package fsutil

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestMemoryFileSystem_ReadWrite(t *testing.T) {
	m := NewMemoryFileSystem()
	data := []byte(`{"slides": []}`)

	if err := m.WriteFile("/decks/a.json", data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data[0] = 'X'

	got, err := m.ReadFile("/decks/./a.json")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != `{"slides": []}` {
		t.Errorf("ReadFile() = %q; stored data should not alias the input", got)
	}

	got[0] = 'Y'
	again, _ := m.ReadFile("/decks/a.json")
	if again[0] != '{' {
		t.Error("ReadFile should return a copy")
	}

	info, err := m.Stat("/decks/a.json")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Name() != "a.json" || info.Size() != int64(len(data)) || info.Mode() != 0o600 || info.IsDir() {
		t.Errorf("unexpected FileInfo %+v", info)
	}
}

func TestMemoryFileSystem_NotExist(t *testing.T) {
	m := NewMemoryFileSystem()
	if _, err := m.ReadFile("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile error = %v, want ErrNotExist", err)
	}
	if _, err := m.Stat("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat error = %v, want ErrNotExist", err)
	}
	if m.Exists("/missing") {
		t.Error("Exists(/missing) = true")
	}
}

func TestMemoryFileSystem_MkdirAll(t *testing.T) {
	m := NewMemoryFileSystem()
	if err := m.MkdirAll("/out/plots/slide_1", 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	for _, dir := range []string{"/out", "/out/plots", "/out/plots/slide_1"} {
		if !m.Exists(dir) {
			t.Errorf("%s should exist", dir)
		}
		info, err := m.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("Stat(%s) = %v, %v; want directory", dir, info, err)
		}
	}

	if err := m.WriteFile("/out/plots", nil, 0o644); !errors.Is(err, fs.ErrExist) {
		t.Errorf("writing over a directory: err = %v, want ErrExist", err)
	}
	_ = m.WriteFile("/out/file", nil, 0o644)
	if err := m.MkdirAll("/out/file/sub", 0o755); !errors.Is(err, fs.ErrExist) {
		t.Errorf("mkdir under a file: err = %v, want ErrExist", err)
	}
}

func TestMemoryFileSystem_Create(t *testing.T) {
	m := NewMemoryFileSystem()
	w, err := m.Create("/out/report.html")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !m.Exists("/out/report.html") {
		t.Error("Create should truncate the file immediately")
	}
	if _, err := w.Write([]byte("<html>")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := w.Write([]byte("</html>")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got, _ := m.ReadFile("/out/report.html"); len(got) != 0 {
		t.Errorf("data visible before Close: %q", got)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	got, _ := m.ReadFile("/out/report.html")
	if string(got) != "<html></html>" {
		t.Errorf("ReadFile() = %q", got)
	}
}

func TestMemoryFileSystem_Files(t *testing.T) {
	m := NewMemoryFileSystem()
	for _, name := range []string{"/out/b.png", "/out/a.png", "/out/sub/c.png", "/other/d.png"} {
		_ = m.WriteFile(name, []byte("x"), 0o644)
	}
	got := m.Files("/out")
	want := []string{"/out/a.png", "/out/b.png", "/out/sub/c.png"}
	if len(got) != len(want) {
		t.Fatalf("Files() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Files()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestOSFileSystem(t *testing.T) {
	var fsys FileSystem = OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "nested", "dir")

	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	path := filepath.Join(dir, "deck.json")
	if err := fsys.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !fsys.Exists(path) {
		t.Error("Exists() = false after WriteFile")
	}
	got, err := fsys.ReadFile(path)
	if err != nil || string(got) != "{}" {
		t.Errorf("ReadFile() = %q, %v", got, err)
	}

	w, err := fsys.Create(filepath.Join(dir, "plot.png"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	info, err := fsys.Stat(filepath.Join(dir, "plot.png"))
	if err != nil || info.Size() != 4 {
		t.Errorf("Stat() = %v, %v", info, err)
	}
	if fsys.Exists(filepath.Join(dir, "absent")) {
		t.Error("Exists() = true for a missing file")
	}
}

func TestInterfaces(t *testing.T) {
	var _ FileSystem = OSFileSystem{}
	var _ FileSystem = (*MemoryFileSystem)(nil)
}
