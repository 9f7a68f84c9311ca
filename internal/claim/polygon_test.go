package claim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePolygon(t *testing.T) {
	tests := []struct {
		name    string
		ring    [][2]float64
		wantErr string
	}{
		{
			name:    "empty",
			ring:    nil,
			wantErr: "polygon is required",
		},
		{
			name:    "unclosed ring",
			ring:    [][2]float64{{0, 0}, {1, 0}, {1, 1}},
			wantErr: "not closed",
		},
		{
			name:    "too few distinct vertices",
			ring:    [][2]float64{{0, 0}, {1, 1}, {0, 0}},
			wantErr: "at least 3 distinct vertices",
		},
		{
			name:    "duplicate vertices do not count",
			ring:    [][2]float64{{0, 0}, {1, 1}, {1, 1}, {0, 0}},
			wantErr: "at least 3 distinct vertices",
		},
		{
			name:    "longitude out of range",
			ring:    [][2]float64{{181, 0}, {1, 0}, {1, 1}, {181, 0}},
			wantErr: "outside lon/lat range",
		},
		{
			name:    "latitude out of range",
			ring:    [][2]float64{{0, 91}, {1, 0}, {1, 1}, {0, 91}},
			wantErr: "outside lon/lat range",
		},
		{
			name: "valid triangle",
			ring: [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 0}},
		},
		{
			name: "valid quad",
			ring: [][2]float64{{-46.63, -23.55}, {-46.62, -23.55}, {-46.62, -23.54}, {-46.63, -23.54}, {-46.63, -23.55}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePolygon(tt.ring)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, IsValidation(err))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestPolygonArea(t *testing.T) {
	unit := [][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}
	assert.InDelta(t, 1.0, PolygonArea(unit), 1e-9)

	// Winding order must not flip the sign.
	reversed := [][2]float64{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}
	assert.InDelta(t, 1.0, PolygonArea(reversed), 1e-9)

	assert.Zero(t, PolygonArea(nil))
	assert.Zero(t, PolygonArea([][2]float64{{0, 0}, {1, 1}, {0, 0}}))
}
