// internal/storage/memory/export_test.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/geo-mart/ABPedSim/internal/config"
	"github.com/geo-mart/ABPedSim/pkg/core"
	"github.com/geo-mart/ABPedSim/pkg/vec"
)

func populatedBackend(t *testing.T, cfg config.MemoryConfig) *Backend {
	t.Helper()
	b := New(cfg)
	run := &core.Run{Name: "morning rush", StartTime: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	scene := &core.Scene{Name: "station"}
	if err := b.StartRun(run, scene); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}

	b.AddPedestrian(&core.Pedestrian{
		PedID:          "p1",
		CrowdName:      "commuters",
		NormalDesired:  1.2,
		MaximumDesired: 1.56,
		StartPosition:  vec.V{X: 10, Y: 20},
		Route:          []string{"entrance", "platform"},
	})
	b.RecordTrajectoryPoint(&core.TrajectoryPoint{PedID: "p1", SimTimeMs: 0, Position: vec.V{X: 10, Y: 20}})
	b.RecordTrajectoryPoint(&core.TrajectoryPoint{PedID: "p1", SimTimeMs: 50, Position: vec.V{X: 10.06, Y: 20}})

	// single-point pedestrian exports as a Point geometry
	b.AddPedestrian(&core.Pedestrian{PedID: "p2", StartPosition: vec.V{X: 5, Y: 5}})

	b.RecordDensityCell(&core.DensityCell{
		SimTimeMs: 1000,
		Col:       2, Row: 3,
		Count:    4,
		Density:  0.04,
		CellSize: 10,
		Origin:   vec.V{X: 20, Y: 30},
	})
	return b
}

func decodeExport(t *testing.T, path string, compressed bool) map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening export: %v", err)
	}
	defer f.Close()

	var doc map[string]any
	if compressed {
		gz, err := gzip.NewReader(f)
		if err != nil {
			t.Fatalf("gzip reader: %v", err)
		}
		defer gz.Close()
		if err := json.NewDecoder(gz).Decode(&doc); err != nil {
			t.Fatalf("decoding export: %v", err)
		}
	} else {
		if err := json.NewDecoder(f).Decode(&doc); err != nil {
			t.Fatalf("decoding export: %v", err)
		}
	}
	return doc
}

func TestEndRun_ExportsGeoJSON(t *testing.T) {
	dir := t.TempDir()
	b := populatedBackend(t, config.MemoryConfig{OutputDir: dir})

	if err := b.EndRun(); err != nil {
		t.Fatalf("EndRun failed: %v", err)
	}

	path := b.GetExportedFilePath()
	if path == "" {
		t.Fatal("export path is empty")
	}
	if filepath.Ext(path) != ".geojson" {
		t.Errorf("expected .geojson extension, got %s", path)
	}

	doc := decodeExport(t, path, false)
	if doc["type"] != "FeatureCollection" {
		t.Errorf("expected FeatureCollection, got %v", doc["type"])
	}

	features, ok := doc["features"].([]any)
	if !ok {
		t.Fatal("features missing")
	}
	// two pedestrians plus one density cell
	if len(features) != 3 {
		t.Fatalf("expected 3 features, got %d", len(features))
	}

	var lineStrings, points, polygons int
	for _, raw := range features {
		f := raw.(map[string]any)
		geomType := f["geometry"].(map[string]any)["type"].(string)
		props := f["properties"].(map[string]any)
		switch geomType {
		case "LineString":
			lineStrings++
			if props["kind"] != "trajectory" {
				t.Errorf("LineString kind = %v", props["kind"])
			}
			if props["pedId"] != "p1" {
				t.Errorf("LineString pedId = %v", props["pedId"])
			}
			if props["crowd"] != "commuters" {
				t.Errorf("LineString crowd = %v", props["crowd"])
			}
			times := props["timesMs"].([]any)
			if len(times) != 2 {
				t.Errorf("expected 2 timestamps, got %d", len(times))
			}
		case "Point":
			points++
			if props["pedId"] != "p2" {
				t.Errorf("Point pedId = %v", props["pedId"])
			}
		case "Polygon":
			polygons++
			if props["kind"] != "density" {
				t.Errorf("Polygon kind = %v", props["kind"])
			}
			if props["count"] != float64(4) {
				t.Errorf("Polygon count = %v", props["count"])
			}
		default:
			t.Errorf("unexpected geometry type %s", geomType)
		}
	}
	if lineStrings != 1 || points != 1 || polygons != 1 {
		t.Errorf("feature mix LineString=%d Point=%d Polygon=%d", lineStrings, points, polygons)
	}
}

func TestEndRun_ExportsCompressed(t *testing.T) {
	dir := t.TempDir()
	b := populatedBackend(t, config.MemoryConfig{OutputDir: dir, CompressOutput: true})

	if err := b.EndRun(); err != nil {
		t.Fatalf("EndRun failed: %v", err)
	}

	path := b.GetExportedFilePath()
	if filepath.Ext(path) != ".gz" {
		t.Errorf("expected .gz extension, got %s", path)
	}

	doc := decodeExport(t, path, true)
	if doc["type"] != "FeatureCollection" {
		t.Errorf("expected FeatureCollection, got %v", doc["type"])
	}
}

func TestExport_SanitizesRunName(t *testing.T) {
	dir := t.TempDir()
	b := New(config.MemoryConfig{OutputDir: dir})
	run := &core.Run{Name: "rush hour: v2", StartTime: time.Now()}
	if err := b.StartRun(run, &core.Scene{Name: "station"}); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
	if err := b.EndRun(); err != nil {
		t.Fatalf("EndRun failed: %v", err)
	}

	base := filepath.Base(b.GetExportedFilePath())
	for _, c := range base {
		if c == ' ' || c == ':' {
			t.Errorf("export filename contains unsafe character: %q", base)
			break
		}
	}
}
