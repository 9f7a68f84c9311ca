// Package shape reads claim polygons out of ESRI shapefiles, the format
// most land-survey tooling exports.
package shape

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
)

// PolygonFromShapefile reads the first polygon shape from the file at path
// and returns its outer ring as lon/lat pairs, closed (first vertex
// repeated last). Multi-part polygons contribute only their first ring;
// holes are not claimable area.
func PolygonFromShapefile(path string) ([][2]float64, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "shape: open %s", path)
	}
	defer r.Close()

	for r.Next() {
		_, s := r.Shape()
		poly, ok := s.(*shp.Polygon)
		if !ok {
			continue
		}
		ring := firstRing(poly)
		if len(ring) == 0 {
			continue
		}
		return closeRing(ring), nil
	}
	return nil, eris.Errorf("shape: no polygon found in %s", path)
}

// firstRing extracts the vertices of the first part of a polygon.
func firstRing(p *shp.Polygon) [][2]float64 {
	if p == nil || len(p.Points) == 0 {
		return nil
	}
	end := int32(len(p.Points))
	if p.NumParts > 1 {
		end = p.Parts[1]
	}
	ring := make([][2]float64, 0, end)
	for _, pt := range p.Points[:end] {
		ring = append(ring, [2]float64{pt.X, pt.Y})
	}
	return ring
}

// closeRing ensures the ring's last vertex repeats its first.
func closeRing(ring [][2]float64) [][2]float64 {
	if len(ring) == 0 || ring[0] == ring[len(ring)-1] {
		return ring
	}
	return append(ring, ring[0])
}
