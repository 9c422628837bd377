package obstacle

import (
	"fmt"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/aldien03/OBN-Source-Planner-QGIS-Plugin/internal/geom"
)

// LoadGeoJSON parses exclusion-zone polygons from a GeoJSON feature
// collection in a planar projected CRS. A numeric "buffer" property on a
// feature overrides defaultBuffer for that zone. Degenerate (zero-area)
// rings are skipped.
func LoadGeoJSON(data []byte, defaultBuffer float64) ([]*Obstacle, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("obstacle: parse geojson: %w", err)
	}

	var obstacles []*Obstacle
	id := 0
	for _, feature := range fc.Features {
		buffer := defaultBuffer
		if v, ok := feature.Properties["buffer"]; ok {
			if f, ok := v.(float64); ok && f >= 0 {
				buffer = f
			}
		}

		var rings []orb.Ring
		switch g := feature.Geometry.(type) {
		case orb.Polygon:
			if len(g) > 0 {
				rings = append(rings, g[0]) // outer ring only
			}
		case orb.MultiPolygon:
			for _, poly := range g {
				if len(poly) > 0 {
					rings = append(rings, poly[0])
				}
			}
		default:
			continue
		}

		for _, ring := range rings {
			if math.Abs(planar.Area(ring)) < 1e-9 {
				continue
			}
			o, err := New(id, ringToPolygon(ring), buffer)
			if err != nil {
				return nil, err
			}
			obstacles = append(obstacles, o)
			id++
		}
	}
	return obstacles, nil
}

// LoadGeoJSONFile reads and parses one GeoJSON file of exclusion zones.
func LoadGeoJSONFile(path string, defaultBuffer float64) ([]*Obstacle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("obstacle: read %s: %w", path, err)
	}
	return LoadGeoJSON(data, defaultBuffer)
}

// ringToPolygon converts an orb ring, dropping the closing duplicate vertex.
func ringToPolygon(ring orb.Ring) geom.Polygon {
	n := len(ring)
	if n > 1 && ring[0] == ring[n-1] {
		n--
	}
	vertices := make([]geom.Point, n)
	for i := 0; i < n; i++ {
		vertices[i] = geom.Point{X: ring[i].X(), Y: ring[i].Y()}
	}
	return geom.Polygon{Vertices: vertices}
}

// PolylineToGeoJSON wraps a planned polyline as a GeoJSON LineString
// feature for the rendering/export layer.
func PolylineToGeoJSON(points []geom.Point, properties map[string]interface{}) *geojson.Feature {
	ls := make(orb.LineString, len(points))
	for i, p := range points {
		ls[i] = orb.Point{p.X, p.Y}
	}
	feature := geojson.NewFeature(ls)
	for k, v := range properties {
		feature.Properties[k] = v
	}
	feature.Properties["length"] = planar.Length(ls)
	return feature
}
