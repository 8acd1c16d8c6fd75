// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"
)

// featureCollection is the root GeoJSON structure
type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

// feature is one GeoJSON feature; Geometry marshals itself as GeoJSON
type feature struct {
	Type       string         `json:"type"`
	Geometry   geom.Geometry  `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// exportGeoJSON writes the run data to a GeoJSON file.
// Callers must hold the write lock.
func (b *Backend) exportGeoJSON() error {
	collection := b.buildCollection()

	// Build filename
	runName := strings.ReplaceAll(b.run.Name, " ", "_")
	runName = strings.ReplaceAll(runName, ":", "_")
	timestamp := b.run.StartTime.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.geojson.gz", runName, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.geojson", runName, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write file
	if b.cfg.CompressOutput {
		if err := b.writeGzipJSON(outputPath, collection); err != nil {
			return err
		}
	} else {
		if err := b.writeJSON(outputPath, collection); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildCollection() featureCollection {
	collection := featureCollection{
		Type:     "FeatureCollection",
		Features: make([]feature, 0, len(b.pedestrians)+len(b.densityCells)),
	}

	// One LineString feature per pedestrian trajectory
	for _, pedID := range b.order {
		record := b.pedestrians[pedID]

		times := make([]int64, 0, len(record.Points))
		coords := make([]float64, 0, len(record.Points)*2)
		for _, p := range record.Points {
			coords = append(coords, p.Position.X, p.Position.Y)
			times = append(times, p.SimTimeMs)
		}

		var g geom.Geometry
		if len(record.Points) >= 2 {
			seq := geom.NewSequence(coords, geom.DimXY)
			g = geom.NewLineString(seq).AsGeometry()
		} else {
			// A pedestrian that never moved still gets its start position
			start := record.Pedestrian.StartPosition
			g = geom.NewPoint(geom.Coordinates{XY: geom.XY{X: start.X, Y: start.Y}}).AsGeometry()
		}

		collection.Features = append(collection.Features, feature{
			Type:     "Feature",
			Geometry: g,
			Properties: map[string]any{
				"kind":           "trajectory",
				"pedId":          record.Pedestrian.PedID,
				"crowd":          record.Pedestrian.CrowdName,
				"normalDesired":  record.Pedestrian.NormalDesired,
				"maximumDesired": record.Pedestrian.MaximumDesired,
				"route":          record.Pedestrian.Route,
				"timesMs":        times,
			},
		})
	}

	// One Polygon feature per density sample
	for _, dc := range b.densityCells {
		x0, y0 := dc.Origin.X, dc.Origin.Y
		x1, y1 := x0+dc.CellSize, y0+dc.CellSize
		ring := geom.NewLineString(geom.NewSequence([]float64{
			x0, y0,
			x1, y0,
			x1, y1,
			x0, y1,
			x0, y0,
		}, geom.DimXY))

		collection.Features = append(collection.Features, feature{
			Type:     "Feature",
			Geometry: geom.NewPolygon([]geom.LineString{ring}).AsGeometry(),
			Properties: map[string]any{
				"kind":      "density",
				"simTimeMs": dc.SimTimeMs,
				"col":       dc.Col,
				"row":       dc.Row,
				"count":     dc.Count,
				"density":   dc.Density,
			},
		})
	}

	return collection
}

func (b *Backend) writeJSON(path string, data featureCollection) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func (b *Backend) writeGzipJSON(path string, data featureCollection) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
