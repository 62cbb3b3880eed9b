// Package shape reads and writes polygon documents. A document is YAML or
// TOML, chosen by file extension.
package shape

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/bloodmagesoftware/skel/geom"
)

// ErrUnknownFormat is returned for files that are neither YAML nor TOML.
var ErrUnknownFormat = errors.New("unknown shape format")

type Format int

const (
	YAML Format = iota
	TOML
)

func (f Format) String() string {
	if f == TOML {
		return "toml"
	}
	return "yaml"
}

type (
	Document struct {
		// Polygons are independent regions. They must not overlap.
		Polygons []Polygon `yaml:"polygons" toml:"polygons"`
	}

	Polygon struct {
		Name string `yaml:"name,omitempty" toml:"name,omitempty"`
		// Outer winds counter-clockwise, Holes clockwise. Loading does not
		// fix the winding, see Document.Normalize.
		Outer Outline   `yaml:"outer" toml:"outer"`
		Holes []Outline `yaml:"holes,omitempty" toml:"holes,omitempty"`
	}

	Outline []Vec2

	Vec2 struct {
		X float64 `yaml:"x" toml:"x"`
		Y float64 `yaml:"y" toml:"y"`
	}
)

func New() *Document {
	return &Document{Polygons: make([]Polygon, 0)}
}

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// IsShapeFile reports whether path has a shape file extension.
func IsShapeFile(path string) bool {
	_, err := FormatOf(path)
	return err == nil
}

func (d *Document) Save(path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	_ = os.MkdirAll(filepath.Dir(path), 0755)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return d.Encode(f, format)
}

func (d *Document) Load(path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return d.Decode(f, format)
}

// Encode writes the document with four space indentation.
func (d *Document) Encode(w io.Writer, format Format) error {
	if format == TOML {
		encoder := toml.NewEncoder(w)
		encoder.SetIndentTables(true)
		encoder.SetIndentSymbol("    ")
		return encoder.Encode(d)
	}

	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	encoder.SetIndent(4)

	return encoder.Encode(d)
}

func (d *Document) Decode(r io.Reader, format Format) error {
	if format == TOML {
		decoder := toml.NewDecoder(r)
		decoder.DisallowUnknownFields()
		return decoder.Decode(d)
	}

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(d); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Geom converts every polygon as stored, without fixing orientation.
func (d *Document) Geom() []geom.Polygon {
	out := make([]geom.Polygon, len(d.Polygons))
	for i, p := range d.Polygons {
		out[i] = p.Geom()
	}
	return out
}

// Normalize rewinds every outline so outer boundaries run counter-clockwise
// and holes clockwise.
func (d *Document) Normalize() {
	for i, p := range d.Polygons {
		d.Polygons[i] = FromGeom(p.Name, p.Geom().Normalize())
	}
}

func (p Polygon) Geom() geom.Polygon {
	out := geom.Polygon{Outer: p.Outer.Contour()}
	for _, h := range p.Holes {
		out.Holes = append(out.Holes, h.Contour())
	}
	return out
}

func FromGeom(name string, p geom.Polygon) Polygon {
	out := Polygon{Name: name, Outer: OutlineOf(p.Outer)}
	for _, h := range p.Holes {
		out.Holes = append(out.Holes, OutlineOf(h))
	}
	return out
}

func (o Outline) Contour() geom.Contour {
	c := make(geom.Contour, len(o))
	for i, v := range o {
		c[i] = geom.Pt(v.X, v.Y)
	}
	return c
}

func OutlineOf(c geom.Contour) Outline {
	o := make(Outline, len(c))
	for i, p := range c {
		o[i] = Vec2{X: p.X, Y: p.Y}
	}
	return o
}
