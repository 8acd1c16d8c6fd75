// internal/storage/memory/memory_test.go
package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/geo-mart/ABPedSim/internal/config"
	"github.com/geo-mart/ABPedSim/internal/storage"
	"github.com/geo-mart/ABPedSim/pkg/core"
	"github.com/geo-mart/ABPedSim/pkg/vec"
)

// Verify Backend implements storage.Backend interface
var _ storage.Backend = (*Backend)(nil)

// Verify Backend implements storage.Uploadable interface
var _ storage.Uploadable = (*Backend)(nil)

func TestNew(t *testing.T) {
	cfg := config.MemoryConfig{
		OutputDir:      "/tmp/test",
		CompressOutput: true,
	}
	b := New(cfg)

	if b == nil {
		t.Fatal("New returned nil")
	}
	if b.cfg.OutputDir != "/tmp/test" {
		t.Errorf("expected OutputDir=/tmp/test, got %s", b.cfg.OutputDir)
	}
	if !b.cfg.CompressOutput {
		t.Error("expected CompressOutput=true")
	}
	if b.pedestrians == nil {
		t.Error("pedestrians map not initialized")
	}
}

func TestInitAndClose(t *testing.T) {
	b := New(config.MemoryConfig{})

	if err := b.Init(); err != nil {
		t.Errorf("Init failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func startTestRun(t *testing.T, b *Backend) {
	t.Helper()
	run := &core.Run{Name: "test run", StartTime: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), Tag: "test"}
	scene := &core.Scene{Name: "plaza"}
	if err := b.StartRun(run, scene); err != nil {
		t.Fatalf("StartRun failed: %v", err)
	}
}

func TestStartRun_ResetsCollections(t *testing.T) {
	b := New(config.MemoryConfig{})
	startTestRun(t, b)

	b.AddPedestrian(&core.Pedestrian{PedID: "p1"})
	b.RecordTrajectoryPoint(&core.TrajectoryPoint{PedID: "p1", SimTimeMs: 50})
	b.RecordDensityCell(&core.DensityCell{SimTimeMs: 1000})

	startTestRun(t, b)

	if len(b.pedestrians) != 0 {
		t.Errorf("expected pedestrians reset, got %d", len(b.pedestrians))
	}
	if len(b.densityCells) != 0 {
		t.Errorf("expected density cells reset, got %d", len(b.densityCells))
	}
}

func TestAddPedestrianAndRecord(t *testing.T) {
	b := New(config.MemoryConfig{})
	startTestRun(t, b)

	ped := &core.Pedestrian{
		PedID:         "p1",
		CrowdName:     "commuters",
		StartPosition: vec.V{X: 1, Y: 2},
	}
	if err := b.AddPedestrian(ped); err != nil {
		t.Fatalf("AddPedestrian failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		tp := &core.TrajectoryPoint{
			PedID:     "p1",
			SimTimeMs: int64(i) * 50,
			Position:  vec.V{X: float64(i), Y: 0},
		}
		if err := b.RecordTrajectoryPoint(tp); err != nil {
			t.Fatalf("RecordTrajectoryPoint failed: %v", err)
		}
	}

	record := b.pedestrians["p1"]
	if record == nil {
		t.Fatal("pedestrian record missing")
	}
	if len(record.Points) != 3 {
		t.Errorf("expected 3 points, got %d", len(record.Points))
	}
}

func TestRecordTrajectoryPoint_UnknownPedestrian(t *testing.T) {
	b := New(config.MemoryConfig{})
	startTestRun(t, b)

	err := b.RecordTrajectoryPoint(&core.TrajectoryPoint{PedID: "ghost"})
	if err == nil {
		t.Error("expected error for unknown pedestrian")
	}
}

func TestEndRun_NoActiveRun(t *testing.T) {
	b := New(config.MemoryConfig{})
	if err := b.EndRun(); err == nil {
		t.Error("expected error when no run is active")
	}
}

func TestGetExportMetadata(t *testing.T) {
	b := New(config.MemoryConfig{})
	startTestRun(t, b)

	b.AddPedestrian(&core.Pedestrian{PedID: "p1"})
	b.RecordTrajectoryPoint(&core.TrajectoryPoint{PedID: "p1", SimTimeMs: 4500})

	meta := b.GetExportMetadata()
	if meta.RunName != "test run" {
		t.Errorf("unexpected run name %q", meta.RunName)
	}
	if meta.SceneName != "plaza" {
		t.Errorf("unexpected scene name %q", meta.SceneName)
	}
	if meta.DurationSec != 4.5 {
		t.Errorf("expected duration 4.5, got %v", meta.DurationSec)
	}
}

func TestConcurrentRecording(t *testing.T) {
	b := New(config.MemoryConfig{})
	startTestRun(t, b)

	for i := 0; i < 4; i++ {
		b.AddPedestrian(&core.Pedestrian{PedID: pedID(i)})
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.RecordTrajectoryPoint(&core.TrajectoryPoint{PedID: id, SimTimeMs: int64(j) * 50})
			}
		}(pedID(i))
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		if got := len(b.pedestrians[pedID(i)].Points); got != 100 {
			t.Errorf("pedestrian %s: expected 100 points, got %d", pedID(i), got)
		}
	}
}

func pedID(i int) string {
	return string(rune('a' + i))
}
