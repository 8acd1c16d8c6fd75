// Package config loads the simulation configuration from a JSON file via
// viper and exposes typed views of the sections the services consume.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// StorageConfig selects and configures the recording backend.
type StorageConfig struct {
	Type   string        `json:"type" mapstructure:"type"`
	Memory MemoryConfig  `json:"memory" mapstructure:"memory"`
	SQLite SQLiteConfig  `json:"sqlite" mapstructure:"sqlite"`
	Flush  time.Duration `json:"flushInterval" mapstructure:"flushInterval"`
}

// MemoryConfig holds in-memory/JSON storage backend settings.
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds the local database settings.
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
}

// SimulationConfig holds the run loop and solver settings.
type SimulationConfig struct {
	Integrator        string
	ForceModel        string
	TimeStep          float64
	RefreshIntervalMs int64
	FastForwardFactor float64
	Workers           int
	Seed              uint64
}

// CrowdConfig holds the desired velocity distribution.
type CrowdConfig struct {
	NormalMean    float64
	NormalStdDev  float64
	MaximumMean   float64
	MaximumStdDev float64
}

// WayfindingConfig holds the gate geometry and the empirical thresholds.
type WayfindingConfig struct {
	GateHalfLength     float64
	GateExtensionRatio float64
	CourseAngleRad     float64
	ReuseDistance      float64
	ReuseIntervalMs    int64
	GateProximity      float64
}

// GridConfig holds the density grid settings.
type GridConfig struct {
	Enabled          bool
	CellSize         float64
	UpdateIntervalMs int64
}

// StreamConfig holds the WebSocket position streaming settings.
type StreamConfig struct {
	Enabled bool
	URL     string
	Secret  string
}

// IngestConfig holds the scenario input file locations.
type IngestConfig struct {
	PedestriansFile string
	RoutesFile      string
	BoundariesFile  string
	// SourceEPSG is the EPSG code the input coordinates are in. Inputs in
	// 4326 are reprojected to the metric 3857 plane.
	SourceEPSG int
}

// Load reads configuration from a JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("sim.integrator", "semi-implicit-euler")
	viper.SetDefault("sim.forceModel", "buzna")
	viper.SetDefault("sim.timeStep", 0.05)
	viper.SetDefault("sim.refreshIntervalMs", 50)
	viper.SetDefault("sim.fastForwardFactor", 1.0)
	viper.SetDefault("sim.workers", 0)
	viper.SetDefault("sim.seed", 1)

	viper.SetDefault("crowd.normalMean", 1.2)
	viper.SetDefault("crowd.normalStdDev", 0.3)
	viper.SetDefault("crowd.maximumMean", 1.56)
	viper.SetDefault("crowd.maximumStdDev", 0.3)

	viper.SetDefault("wayfinding.gateHalfLength", 4.0)
	viper.SetDefault("wayfinding.gateExtensionRatio", 1.2)
	viper.SetDefault("wayfinding.courseAngleRad", 0.0175)
	viper.SetDefault("wayfinding.reuseDistance", 5.0)
	viper.SetDefault("wayfinding.reuseIntervalMs", 5000)
	viper.SetDefault("wayfinding.gateProximity", 0.6)

	viper.SetDefault("grid.enabled", true)
	viper.SetDefault("grid.cellSize", 10.0)
	viper.SetDefault("grid.updateIntervalMs", 1000)

	viper.SetDefault("ingest.pedestriansFile", "./scenario/pedestrians.csv")
	viper.SetDefault("ingest.routesFile", "./scenario/routes.csv")
	viper.SetDefault("ingest.boundariesFile", "./scenario/boundaries.csv")
	viper.SetDefault("ingest.sourceEPSG", 3857)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.flushInterval", "1s")
	viper.SetDefault("storage.memory.outputDir", "./recordings")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "abpedsim")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "abpedsim-metrics")

	viper.SetDefault("api.serverUrl", "http://localhost:5000")
	viper.SetDefault("api.secret", "")
	viper.SetDefault("api.uploadExports", false)

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("stream.enabled", false)
	viper.SetDefault("stream.url", "ws://localhost:5001/ingest")
	viper.SetDefault("stream.secret", "")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "abpedsim")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetConfigName("abpedsim.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}
	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetSimulationConfig returns the run loop settings.
func GetSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Integrator:        viper.GetString("sim.integrator"),
		ForceModel:        viper.GetString("sim.forceModel"),
		TimeStep:          viper.GetFloat64("sim.timeStep"),
		RefreshIntervalMs: viper.GetInt64("sim.refreshIntervalMs"),
		FastForwardFactor: viper.GetFloat64("sim.fastForwardFactor"),
		Workers:           viper.GetInt("sim.workers"),
		Seed:              viper.GetUint64("sim.seed"),
	}
}

// GetCrowdConfig returns the desired velocity distribution settings.
func GetCrowdConfig() CrowdConfig {
	return CrowdConfig{
		NormalMean:    viper.GetFloat64("crowd.normalMean"),
		NormalStdDev:  viper.GetFloat64("crowd.normalStdDev"),
		MaximumMean:   viper.GetFloat64("crowd.maximumMean"),
		MaximumStdDev: viper.GetFloat64("crowd.maximumStdDev"),
	}
}

// GetWayfindingConfig returns the gate and threshold settings.
func GetWayfindingConfig() WayfindingConfig {
	return WayfindingConfig{
		GateHalfLength:     viper.GetFloat64("wayfinding.gateHalfLength"),
		GateExtensionRatio: viper.GetFloat64("wayfinding.gateExtensionRatio"),
		CourseAngleRad:     viper.GetFloat64("wayfinding.courseAngleRad"),
		ReuseDistance:      viper.GetFloat64("wayfinding.reuseDistance"),
		ReuseIntervalMs:    viper.GetInt64("wayfinding.reuseIntervalMs"),
		GateProximity:      viper.GetFloat64("wayfinding.gateProximity"),
	}
}

// GetGridConfig returns the density grid settings.
func GetGridConfig() GridConfig {
	return GridConfig{
		Enabled:          viper.GetBool("grid.enabled"),
		CellSize:         viper.GetFloat64("grid.cellSize"),
		UpdateIntervalMs: viper.GetInt64("grid.updateIntervalMs"),
	}
}

// GetIngestConfig returns the scenario input settings.
func GetIngestConfig() IngestConfig {
	return IngestConfig{
		PedestriansFile: viper.GetString("ingest.pedestriansFile"),
		RoutesFile:      viper.GetString("ingest.routesFile"),
		BoundariesFile:  viper.GetString("ingest.boundariesFile"),
		SourceEPSG:      viper.GetInt("ingest.sourceEPSG"),
	}
}

// GetStorageConfig returns the recording backend settings.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:  viper.GetString("storage.type"),
		Flush: viper.GetDuration("storage.flushInterval"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
	}
}

// GetStreamConfig returns the WebSocket streaming settings.
func GetStreamConfig() StreamConfig {
	return StreamConfig{
		Enabled: viper.GetBool("stream.enabled"),
		URL:     viper.GetString("stream.url"),
		Secret:  viper.GetString("stream.secret"),
	}
}

// GetOTelConfig returns the OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}
