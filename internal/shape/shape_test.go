package shape

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeShapefile(t *testing.T, shapes ...shp.Shape) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "claim.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	for _, s := range shapes {
		w.Write(s)
	}
	w.Close()
	return path
}

func TestPolygonFromShapefile(t *testing.T) {
	poly := &shp.Polygon{
		Box:       shp.Box{MinX: -46.63, MinY: -23.55, MaxX: -46.62, MaxY: -23.54},
		NumParts:  1,
		NumPoints: 4,
		Parts:     []int32{0},
		Points: []shp.Point{
			{X: -46.63, Y: -23.55},
			{X: -46.62, Y: -23.55},
			{X: -46.62, Y: -23.54},
			{X: -46.63, Y: -23.55},
		},
	}
	path := writeShapefile(t, poly)

	ring, err := PolygonFromShapefile(path)
	require.NoError(t, err)
	assert.Equal(t, [][2]float64{
		{-46.63, -23.55}, {-46.62, -23.55}, {-46.62, -23.54}, {-46.63, -23.55},
	}, ring)
}

func TestPolygonFromShapefileClosesRing(t *testing.T) {
	poly := &shp.Polygon{
		Box:       shp.Box{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1},
		NumParts:  1,
		NumPoints: 3,
		Parts:     []int32{0},
		Points: []shp.Point{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1},
		},
	}
	path := writeShapefile(t, poly)

	ring, err := PolygonFromShapefile(path)
	require.NoError(t, err)
	require.Len(t, ring, 4)
	assert.Equal(t, ring[0], ring[len(ring)-1])
}

func TestPolygonFromShapefileFirstPartOnly(t *testing.T) {
	poly := &shp.Polygon{
		Box:       shp.Box{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10},
		NumParts:  2,
		NumPoints: 8,
		Parts:     []int32{0, 4},
		Points: []shp.Point{
			{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 0},
			{X: 2, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 4}, {X: 2, Y: 2},
		},
	}
	path := writeShapefile(t, poly)

	ring, err := PolygonFromShapefile(path)
	require.NoError(t, err)
	assert.Equal(t, [][2]float64{
		{0, 0}, {10, 0}, {10, 10}, {0, 0},
	}, ring)
}

func TestPolygonFromShapefileEmpty(t *testing.T) {
	path := writeShapefile(t)

	_, err := PolygonFromShapefile(path)
	assert.ErrorContains(t, err, "no polygon found")
}

func TestPolygonFromShapefileMissing(t *testing.T) {
	_, err := PolygonFromShapefile(filepath.Join(t.TempDir(), "nope.shp"))
	assert.Error(t, err)
}
