package formatter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bloodmagesoftware/skel/shape"
)

// Format rewrites every shape file under dir in canonical form.
func Format(dir string) error {
	fmt.Println("Formatting shape files...")

	changed := 0
	err := walk(dir, func(path string, current, canonical []byte) error {
		if bytes.Equal(current, canonical) {
			return nil
		}
		changed++
		return os.WriteFile(path, canonical, 0644)
	})
	if err != nil {
		return err
	}

	fmt.Printf("✅ Formatting completed, %d files changed\n", changed)
	return nil
}

// Check reports shape files under dir that are not in canonical form
// without modifying them.
func Check(dir string) error {
	fmt.Println("Checking shape file formatting...")

	var unformatted []string
	err := walk(dir, func(path string, current, canonical []byte) error {
		if !bytes.Equal(current, canonical) {
			unformatted = append(unformatted, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if len(unformatted) > 0 {
		for _, path := range unformatted {
			fmt.Println("  " + path)
		}
		return fmt.Errorf("checking format: %d shape files need skel fmt", len(unformatted))
	}

	fmt.Println("✅ Format check completed")
	return nil
}

func walk(dir string, visit func(path string, current, canonical []byte) error) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !shape.IsShapeFile(path) {
			return nil
		}
		format, err := shape.FormatOf(path)
		if err != nil {
			return err
		}
		current, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		canonical, err := Canonical(current, format)
		if err != nil {
			return fmt.Errorf("formatting %s: %w", path, err)
		}
		return visit(path, current, canonical)
	})
}

// Canonical decodes a shape document and encodes it again with repeated
// points removed, outer boundaries counter-clockwise and holes clockwise.
func Canonical(data []byte, format shape.Format) ([]byte, error) {
	doc := shape.New()
	if err := doc.Decode(bytes.NewReader(data), format); err != nil {
		return nil, err
	}
	for i, p := range doc.Polygons {
		p.Outer = dedupe(p.Outer)
		for j, h := range p.Holes {
			p.Holes[j] = dedupe(h)
		}
		doc.Polygons[i] = p
	}
	doc.Normalize()

	var buf bytes.Buffer
	if err := doc.Encode(&buf, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// dedupe drops points equal to their predecessor, including a closing point
// that repeats the first one.
func dedupe(o shape.Outline) shape.Outline {
	out := make(shape.Outline, 0, len(o))
	for _, v := range o {
		if len(out) > 0 && out[len(out)-1] == v {
			continue
		}
		out = append(out, v)
	}
	for len(out) > 1 && out[0] == out[len(out)-1] {
		out = out[:len(out)-1]
	}
	return out
}
