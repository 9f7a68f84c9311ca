package claim

import (
	"math"

	"github.com/twpayne/go-geom"
)

// minPolygonVertices is the smallest number of distinct vertices that can
// enclose an area.
const minPolygonVertices = 3

// ValidatePolygon checks that ring is a closed polygon with at least three
// distinct vertices. A ring whose first and last vertices differ is treated
// as unclosed rather than silently closed; the drawing tool is responsible
// for closing the ring before submission.
func ValidatePolygon(ring [][2]float64) error {
	if len(ring) == 0 {
		return NewValidationError("location.polygon", "polygon is required")
	}
	if ring[0] != ring[len(ring)-1] {
		return NewValidationError("location.polygon", "polygon ring is not closed")
	}

	distinct := map[[2]float64]struct{}{}
	for _, v := range ring[:len(ring)-1] {
		if math.Abs(v[0]) > 180 || math.Abs(v[1]) > 90 {
			return NewValidationError("location.polygon", "vertex outside lon/lat range")
		}
		distinct[v] = struct{}{}
	}
	if len(distinct) < minPolygonVertices {
		return NewValidationError("location.polygon", "polygon needs at least 3 distinct vertices")
	}
	return nil
}

// PolygonArea returns the planar area of the ring in square degrees.
// Advisory only, used for registry reporting; the authoritative claimed
// area is the contributor-supplied area_unit.
func PolygonArea(ring [][2]float64) float64 {
	if len(ring) < minPolygonVertices+1 {
		return 0
	}
	flat := make([]float64, 0, len(ring)*2)
	for _, v := range ring {
		flat = append(flat, v[0], v[1])
	}
	poly := geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})
	return math.Abs(poly.Area())
}
