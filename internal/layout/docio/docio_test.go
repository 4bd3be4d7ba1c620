package docio

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gridsnap/internal/fsutil"
	"github.com/banshee-data/gridsnap/internal/layout"
	"github.com/banshee-data/gridsnap/internal/layout/snapping"
)

const sampleDoc = `{
  "slide_width": 1000,
  "slide_height": 500,
  "slides": [
    {"index": 0, "name": "Title", "shapes": [
      {"shape_id": 7, "name": "Logo", "kind": "Picture", "left": 10, "top": 20, "width": 100, "height": 50},
      {"shape_id": 9, "kind": "", "flags": {"text": true}, "left": 0, "top": 0, "width": 1, "height": 1}
    ]},
    {"index": 3, "shapes": [
      {"shape_id": 7, "kind": "table", "left": 5, "top": 6, "width": 7, "height": 8}
    ]}
  ]
}`

func TestDecode(t *testing.T) {
	t.Parallel()
	doc, err := Decode(strings.NewReader(sampleDoc))
	require.NoError(t, err)
	assert.Equal(t, 1000, doc.SlideWidth)
	require.Len(t, doc.Slides, 2)

	objs, err := doc.Objects(layout.AnchorSet{layout.Center})
	require.NoError(t, err)
	require.Len(t, objs, 3)

	assert.Equal(t, "0:0:7", objs[0].FullID())
	assert.Equal(t, layout.CategoryPicture, objs[0].Category())
	assert.Equal(t, "Logo", objs[0].Name())
	assert.Equal(t, layout.CategoryText, objs[1].Category(), "flags decide when kind is empty")
	assert.Equal(t, "3:0:7", objs[2].FullID())
	assert.Equal(t, layout.CategoryTable, objs[2].Category())
	assert.Equal(t, layout.AnchorSet{layout.Center}, objs[2].ActiveAnchors())
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
	}{
		{"not json", `{`},
		{"unknown field", `{"slide_width": 1, "slide_height": 1, "slides": [], "extra": 1}`},
		{"zero size", `{"slide_width": 0, "slide_height": 1, "slides": []}`},
		{"repeated slide", `{"slide_width": 1, "slide_height": 1, "slides": [{"index": 1, "shapes": []}, {"index": 1, "shapes": []}]}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestObjects_UnknownKind(t *testing.T) {
	t.Parallel()
	doc := &Document{SlideWidth: 1, SlideHeight: 1, Slides: []Slide{{Shapes: []Shape{{Kind: "SmartArt"}}}}}
	_, err := doc.Objects(nil)
	assert.ErrorIs(t, err, layout.ErrUnknownCategory)
}

func TestReader_Read(t *testing.T) {
	t.Parallel()
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile("/in/deck.json", []byte(sampleDoc), 0o644))

	doc, err := NewReader(mfs).Read("/in/deck.json")
	require.NoError(t, err)
	assert.Len(t, doc.Slides, 2)

	_, err = NewReader(mfs).Read("/in/missing.json")
	assert.Error(t, err)
}

func TestWriter_CommitAndWrite(t *testing.T) {
	t.Parallel()
	mfs := fsutil.NewMemoryFileSystem()
	doc, err := Decode(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	w := NewWriter(mfs)
	ctx := context.Background()
	require.NoError(t, w.Commit(ctx, snapping.CommitRecord{ObjectID: "0:0:7", SlideIndex: 0, ShapeIndex: 0, Left: 12, Top: 25}))
	require.NoError(t, w.Commit(ctx, snapping.CommitRecord{ObjectID: "3:0:7", SlideIndex: 3, ShapeIndex: 0, Left: 0, Top: 0}))
	assert.Len(t, w.Positions(), 2)

	require.NoError(t, w.Write("/out/deck.json", doc))
	assert.True(t, mfs.Exists("/out"))

	data, err := mfs.ReadFile("/out/deck.json")
	require.NoError(t, err)
	back, err := Decode(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, 12, back.Slides[0].Shapes[0].Left)
	assert.Equal(t, 25, back.Slides[0].Shapes[0].Top)
	assert.Equal(t, 0, back.Slides[1].Shapes[0].Left)
	assert.Equal(t, 0, back.Slides[0].Shapes[1].Top, "shapes without a commit are untouched")
}

func TestWriter_UnknownShape(t *testing.T) {
	t.Parallel()
	doc, err := Decode(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	w := NewWriter(fsutil.NewMemoryFileSystem())
	require.NoError(t, w.Commit(context.Background(), snapping.CommitRecord{ObjectID: "x", SlideIndex: 9, ShapeIndex: 0}))
	assert.ErrorIs(t, w.Write("/out.json", doc), ErrUnknownShape)
}

func TestDocument_Apply(t *testing.T) {
	t.Parallel()
	doc, err := Decode(strings.NewReader(sampleDoc))
	require.NoError(t, err)
	objs, err := doc.Objects(nil)
	require.NoError(t, err)

	objs[0].Translate(layout.Vector{DX: 5, DY: -5})
	require.NoError(t, objs[0].SetTemplateID("template_3"))
	virtual := layout.NewVirtualObject("template_3", layout.CategoryPicture, layout.Rect{})

	require.NoError(t, doc.Apply(append(objs, virtual)))
	assert.Equal(t, 15, doc.Slides[0].Shapes[0].Left)
	assert.Equal(t, 15, doc.Slides[0].Shapes[0].Top)
	assert.Equal(t, "template_3", doc.Slides[0].Shapes[0].TemplateID)
}

func TestObjectsBySlide(t *testing.T) {
	t.Parallel()
	doc, err := Decode(strings.NewReader(sampleDoc))
	require.NoError(t, err)
	objs, err := doc.Objects(nil)
	require.NoError(t, err)

	by := ObjectsBySlide(objs)
	assert.Len(t, by[0], 2)
	assert.Len(t, by[3], 1)
}
