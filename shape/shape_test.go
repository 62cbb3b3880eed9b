package shape

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/bloodmagesoftware/skel/geom"
)

func sample() *Document {
	return &Document{Polygons: []Polygon{
		{
			Name:  "room",
			Outer: Outline{{0, 0}, {10, 0}, {10, 10}, {0, 10}},
			Holes: []Outline{{{1, 3}, {3, 3}, {3, 1}, {1, 1}}},
		},
		{
			Outer: Outline{{20, 0}, {22.5, 0}, {22.5, 2}},
		},
	}}
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"room.yaml", "room.yml", "room.toml", "nested/room.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := sample().Save(path); err != nil {
				t.Fatalf("save: %v", err)
			}
			got := New()
			if err := got.Load(path); err != nil {
				t.Fatalf("load: %v", err)
			}
			if !reflect.DeepEqual(got, sample()) {
				t.Errorf("round trip: got %+v, want %+v", got, sample())
			}
		})
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{"a.yaml", YAML, false},
		{"a.YML", YAML, false},
		{"dir/a.toml", TOML, false},
		{"a.json", 0, true},
		{"a", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatOf(tt.path)
			if tt.err {
				if !errors.Is(err, ErrUnknownFormat) {
					t.Errorf("FormatOf(%q): got error %v, want ErrUnknownFormat", tt.path, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("FormatOf(%q): got %v, %v, want %v", tt.path, got, err, tt.want)
			}
		})
	}
}

func TestYAMLIndent(t *testing.T) {
	var buf bytes.Buffer
	if err := sample().Encode(&buf, YAML); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\n    - name: room\n") {
		t.Errorf("expected four space indentation, got:\n%s", buf.String())
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	for _, tt := range []struct {
		name   string
		format Format
		text   string
	}{
		{"yaml", YAML, "polygons:\n    - outline: []\n"},
		{"toml", TOML, "[[polygons]]\noutline = []\n"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if err := New().Decode(strings.NewReader(tt.text), tt.format); err == nil {
				t.Error("expected an error for an unknown field")
			}
		})
	}
}

func TestEmptyYAML(t *testing.T) {
	d := New()
	if err := d.Decode(strings.NewReader(""), YAML); err != nil {
		t.Fatalf("empty document: %v", err)
	}
	if len(d.Polygons) != 0 {
		t.Errorf("got %d polygons, want 0", len(d.Polygons))
	}
}

func TestNormalize(t *testing.T) {
	d := &Document{Polygons: []Polygon{{
		Outer: OutlineOf(geom.Contour{geom.Pt(0, 0), geom.Pt(0, 4), geom.Pt(4, 4), geom.Pt(4, 0)}),
		Holes: []Outline{OutlineOf(geom.Contour{geom.Pt(1, 1), geom.Pt(2, 1), geom.Pt(2, 2), geom.Pt(1, 2)})},
	}}}
	d.Normalize()
	p := d.Geom()[0]
	if !p.Outer.IsCCW() {
		t.Error("outer boundary should be counter-clockwise")
	}
	if p.Holes[0].IsCCW() {
		t.Error("hole should be clockwise")
	}
	if got, want := p.Area(), 15.0; got != want {
		t.Errorf("area: got %v, want %v", got, want)
	}
}
