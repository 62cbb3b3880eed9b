package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bloodmagesoftware/skel/geom"
	"github.com/bloodmagesoftware/skel/shape"
)

func TestOffsetDocument(t *testing.T) {
	doc := shape.New()
	doc.Polygons = append(doc.Polygons,
		shape.FromGeom("yard", geom.Polygon{Outer: geom.Contour{
			geom.Pt(20, 0), geom.Pt(24, 0), geom.Pt(24, 4), geom.Pt(20, 4),
		}}),
		shape.FromGeom("", exampleShape()),
	)
	k := geom.NewFloatKernel(1e-9)

	in, err := offsetDocument(doc, []float64{0.25}, false, k)
	require.NoError(t, err)
	require.Len(t, in.Polygons, 2)
	assert.Equal(t, "yard@0.25", in.Polygons[0].Name)
	assert.InDelta(t, 12.25, in.Polygons[0].Geom().Area(), 1e-9)
	assert.Equal(t, "polygon1@0.25", in.Polygons[1].Name)
	assert.Len(t, in.Polygons[1].Holes, 1)

	out, err := offsetDocument(doc, []float64{0.5, 1}, true, k)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(out.Polygons), 2)
	assert.Equal(t, "yard@0.5", out.Polygons[0].Name)
	assert.InDelta(t, 36, out.Polygons[1].Geom().Area(), 1e-9)
	assert.Equal(t, "yard@1", out.Polygons[1].Name)
}
