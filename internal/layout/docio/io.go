package docio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"sync"

	"github.com/banshee-data/gridsnap/internal/fsutil"
	"github.com/banshee-data/gridsnap/internal/layout/snapping"
	"github.com/banshee-data/gridsnap/internal/monitoring"
)

// MaxDocumentSize bounds the size of a document file.
const MaxDocumentSize = 64 * 1024 * 1024

// Reader loads documents.
type Reader struct {
	FS fsutil.FileSystem
}

// NewReader returns a Reader on fs, or on the OS filesystem when fs is nil.
func NewReader(fs fsutil.FileSystem) *Reader {
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	return &Reader{FS: fs}
}

// Read loads and validates the document at path.
func (r *Reader) Read(path string) (*Document, error) {
	clean := filepath.Clean(path)
	info, err := r.FS.Stat(clean)
	if err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}
	if info.Size() > MaxDocumentSize {
		return nil, fmt.Errorf("document too large: %d bytes (max %d)", info.Size(), MaxDocumentSize)
	}
	data, err := r.FS.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	doc, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", clean, err)
	}
	return doc, nil
}

// Decode parses and validates a document.
func Decode(rd io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(rd)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Encode writes doc as indented JSON.
func Encode(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Position is a committed top-left corner.
type Position struct {
	SlideIndex int
	ShapeIndex int
	Left       int
	Top        int
}

// Writer records committed positions and writes updated documents. It
// implements snapping.CommitSink and is safe for concurrent use.
type Writer struct {
	FS fsutil.FileSystem

	mu        sync.Mutex
	positions map[string]Position
}

var _ snapping.CommitSink = (*Writer)(nil)

// NewWriter returns a Writer on fs, or on the OS filesystem when fs is nil.
func NewWriter(fs fsutil.FileSystem) *Writer {
	if fs == nil {
		fs = fsutil.OSFileSystem{}
	}
	return &Writer{FS: fs, positions: make(map[string]Position)}
}

// Commit records the final position of one object.
func (w *Writer) Commit(_ context.Context, rec snapping.CommitRecord) error {
	w.mu.Lock()
	w.positions[rec.ObjectID] = Position{
		SlideIndex: rec.SlideIndex,
		ShapeIndex: rec.ShapeIndex,
		Left:       rec.Left,
		Top:        rec.Top,
	}
	w.mu.Unlock()
	return nil
}

// Positions returns a copy of the recorded positions keyed by full id.
func (w *Writer) Positions() map[string]Position {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]Position, len(w.positions))
	for k, v := range w.positions {
		out[k] = v
	}
	return out
}

// ApplyTo moves every shape of doc with a recorded position.
func (w *Writer) ApplyTo(doc *Document) error {
	pos := w.Positions()
	ids := make([]string, 0, len(pos))
	for id := range pos {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := pos[id]
		if err := doc.SetPosition(p.SlideIndex, p.ShapeIndex, p.Left, p.Top); err != nil {
			return err
		}
	}
	return nil
}

// Write applies the recorded positions to doc and writes it to path,
// creating parent directories.
func (w *Writer) Write(path string, doc *Document) error {
	if err := w.ApplyTo(doc); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	clean := filepath.Clean(path)
	if dir := filepath.Dir(clean); dir != "." {
		if err := w.FS.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := w.FS.WriteFile(clean, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	monitoring.Logf("docio: wrote %d positions to %s", len(w.Positions()), clean)
	return nil
}
