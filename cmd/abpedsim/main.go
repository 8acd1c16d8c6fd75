package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/geo-mart/ABPedSim/internal/api"
	"github.com/geo-mart/ABPedSim/internal/cache"
	"github.com/geo-mart/ABPedSim/internal/channel"
	"github.com/geo-mart/ABPedSim/internal/config"
	"github.com/geo-mart/ABPedSim/internal/crowd"
	"github.com/geo-mart/ABPedSim/internal/dispatcher"
	"github.com/geo-mart/ABPedSim/internal/force"
	"github.com/geo-mart/ABPedSim/internal/handlers"
	"github.com/geo-mart/ABPedSim/internal/influx"
	"github.com/geo-mart/ABPedSim/internal/ingest"
	"github.com/geo-mart/ABPedSim/internal/integrator"
	"github.com/geo-mart/ABPedSim/internal/logging"
	"github.com/geo-mart/ABPedSim/internal/monitor"
	intOtel "github.com/geo-mart/ABPedSim/internal/otel"
	"github.com/geo-mart/ABPedSim/internal/runctx"
	"github.com/geo-mart/ABPedSim/internal/sim"
	"github.com/geo-mart/ABPedSim/internal/storage"
	"github.com/geo-mart/ABPedSim/internal/storage/factory"
	"github.com/geo-mart/ABPedSim/internal/wayfinding"
	"github.com/geo-mart/ABPedSim/internal/worker"
	"github.com/geo-mart/ABPedSim/pkg/core"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// EngineVersion and BuildDate can be set at build time via ldflags
var (
	EngineVersion string = "0.0.1"
	BuildDate     string = "unknown"

	ServiceName string = "abpedsim"
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	// PedestrianCache holds the pedestrians registered with the current run
	PedestrianCache *cache.PedestrianCache = cache.NewPedestrianCache()

	// RouteCache maps named waypoints from the routes file to positions
	RouteCache *cache.RouteCache = cache.NewRouteCache()

	SessionStartTime time.Time = time.Now()

	// Services
	handlerService  *handlers.Service
	workerManager   *worker.Manager
	monitorService  *monitor.Service
	eventDispatcher *dispatcher.Dispatcher
	influxManager   *influx.Manager
	runContext      *runctx.Context
	simulator       *sim.Simulator

	storageBackend storage.Backend
)

func main() {
	configDir := flag.String("config", ".", "directory containing abpedsim.cfg.json")
	runName := flag.String("run", "", "run name (defaults to the session timestamp)")
	runTag := flag.String("tag", "", "free-form tag stored with the run")
	duration := flag.Float64("duration", 0, "maximum simulated seconds, 0 runs until every route is finished")
	realtime := flag.Bool("realtime", false, "drive the simulation from the wall clock instead of stepping as fast as possible")
	flag.Parse()

	// stdout logging until the config names a log file
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(*configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "dir", *configDir)
	}

	logFile := setupLogging()
	if logFile != nil {
		defer logFile.Close()
	}
	Logger.Info("Starting up...", "version", EngineVersion, "build", BuildDate)

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	// scenario
	loader := ingest.NewLoader(config.GetIngestConfig(), RouteCache, Logger)
	scenario, err := loader.LoadScenario()
	if err != nil {
		Logger.Error("Failed to load scenario", "error", err)
		os.Exit(1)
	}

	simulator, err = buildSimulator(scenario)
	if err != nil {
		Logger.Error("Failed to build simulator", "error", err)
		os.Exit(1)
	}
	if err := simulator.Validate(); err != nil {
		Logger.Error("Scenario failed validation", "error", err)
		os.Exit(1)
	}

	// storage backend
	storageCfg := config.GetStorageConfig()
	storageBackend, err = factory.NewBackend(storageCfg, config.GetStreamConfig(), Logger)
	if err != nil {
		Logger.Error("Failed to create storage backend", "error", err)
		os.Exit(1)
	}
	if err := storageBackend.Init(); err != nil {
		Logger.Error("Failed to initialize storage backend", "error", err)
		os.Exit(1)
	}
	defer storageBackend.Close()

	// performance metrics
	if viper.GetBool("influx.enabled") {
		influxManager = influx.NewManager(zlog,
			filepath.Join(viper.GetString("logsDir"), "influx_backup.gz"))
		if err := influxManager.Connect(); err != nil {
			Logger.Warn("InfluxDB unavailable, performance metrics disabled", "error", err)
			influxManager = nil
		} else {
			defer influxManager.Close()
		}
	}

	runContext = runctx.NewContext()
	gridCfg := config.GetGridConfig()
	workerManager = worker.NewManager(worker.Dependencies{
		PedestrianCache: PedestrianCache,
		LogManager:      SlogManager,
	}, storageBackend, simulator, gridCfg.UpdateIntervalMs)

	// runtime control
	eventDispatcher, err = dispatcher.New(logging.NewDispatcherLogger(zlog))
	if err != nil {
		Logger.Error("Failed to create dispatcher", "error", err)
		os.Exit(1)
	}
	handlerService = handlers.NewService(handlers.Dependencies{
		Sim:        simulator,
		LogManager: SlogManager,
	})
	handlerService.RegisterHandlers(eventDispatcher)

	monitorService = monitor.NewService(monitor.Dependencies{
		LogManager:    SlogManager,
		RunContext:    runContext,
		WorkerManager: workerManager,
		Sim:           simulator,
		Influx:        influxManager,
		OutputDir:     storageCfg.Memory.OutputDir,
	})
	if err := os.MkdirAll(storageCfg.Memory.OutputDir, 0755); err != nil {
		Logger.Warn("Failed to create output directory", "error", err)
	}
	if err := monitorService.Start(); err != nil {
		Logger.Warn("Failed to start status monitor", "error", err)
	}
	defer monitorService.Stop()

	// open the run
	simCfg := config.GetSimulationConfig()
	ingestCfg := config.GetIngestConfig()
	name := *runName
	if name == "" {
		name = "run " + SessionStartTime.Format("20060102_150405")
	}
	run := &core.Run{
		Name:          name,
		StartTime:     time.Now(),
		TimeStep:      simCfg.TimeStep,
		Integrator:    simCfg.Integrator,
		ForceModel:    simCfg.ForceModel,
		Seed:          simCfg.Seed,
		EngineVersion: EngineVersion,
		Tag:           *runTag,
	}
	scene := &core.Scene{
		Name:        sceneName(ingestCfg),
		SourceEPSG:  ingestCfg.SourceEPSG,
		BoundaryWKT: scenario.BoundaryWKT,
	}
	if err := workerManager.StartRun(run, scene); err != nil {
		Logger.Error("Failed to start run", "error", err)
		os.Exit(1)
	}
	runContext.SetRun(run, scene)
	SlogManager.SetContextProvider(func() []slog.Attr {
		return []slog.Attr{slog.String("run", runContext.GetRun().Name)}
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	commands := channel.New[dispatcher.Event](64)
	go readCommands(commands, cancel)

	if err := runLoop(ctx, commands, simCfg, *duration, *realtime); err != nil && ctx.Err() == nil {
		Logger.Error("Run loop failed", "error", err)
	}

	if err := workerManager.EndRun(); err != nil {
		Logger.Error("Failed to end run", "error", err)
	}
	end := time.Now()
	run.EndTime = &end
	Logger.Info("Run finished",
		"run", run.Name,
		"ticks", simulator.TickCount(),
		"avgTick", simulator.AverageTickDuration())

	uploadExport()

	if OTelProvider != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = OTelProvider.Shutdown(shutdownCtx)
	}
}

// setupLogging switches from stdout to the session log file, wiring OTel
// and GELF sinks when enabled.
func setupLogging() *os.File {
	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		Logger.Error("Failed to create logs directory", "error", err, "path", logsDir)
		return nil
	}

	logPath := logging.LogFilePath(logsDir, ServiceName, SessionStartTime)
	logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", logPath)
		return nil
	}

	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:        otelCfg.Enabled,
			ServiceName:    otelCfg.ServiceName,
			ServiceVersion: EngineVersion,
			BatchTimeout:   otelCfg.BatchTimeout,
			LogWriter:      logFile,
			Endpoint:       otelCfg.Endpoint,
			Insecure:       otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		}
	}
	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}

	var extra []slog.Handler
	if viper.GetBool("graylog.enabled") {
		gelf, err := logging.NewGelfHandler(viper.GetString("graylog.address"), slog.LevelInfo)
		if err != nil {
			Logger.Error("Failed to connect to graylog", "error", err)
		} else {
			extra = append(extra, gelf)
		}
	}

	SlogManager.Setup(logFile, viper.GetString("logLevel"), otelLogProvider, extra...)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", logPath)
	return logFile
}

// buildSimulator assembles the simulator from the loaded scenario and the
// configured solver stack.
func buildSimulator(scenario *ingest.Scenario) (*sim.Simulator, error) {
	simCfg := config.GetSimulationConfig()

	model, err := force.ByName(simCfg.ForceModel)
	if err != nil {
		return nil, err
	}
	integ, err := integrator.ByName(simCfg.Integrator)
	if err != nil {
		return nil, err
	}

	cfg := sim.Config{
		RefreshIntervalMs: simCfg.RefreshIntervalMs,
		FastForwardFactor: simCfg.FastForwardFactor,
	}
	gridCfg := config.GetGridConfig()
	if gridCfg.Enabled {
		cfg.GridCellSize = gridCfg.CellSize
		cfg.GridUpdateIntervalMs = gridCfg.UpdateIntervalMs
	}

	boundaries := scenario.Boundaries(model.MaxBoundaryInteractionDistance())
	s, err := sim.New(boundaries, cfg, Logger)
	if err != nil {
		return nil, err
	}

	wayCfg := config.GetWayfindingConfig()
	gate := wayfinding.GateConfig{
		HalfLength:     wayCfg.GateHalfLength,
		ExtensionRatio: wayCfg.GateExtensionRatio,
	}
	thresholds := wayfinding.Thresholds{
		CourseAngleRad:  wayCfg.CourseAngleRad,
		ReuseDistance:   wayCfg.ReuseDistance,
		ReuseIntervalMs: wayCfg.ReuseIntervalMs,
		GateProximity:   wayCfg.GateProximity,
	}
	crowdCfg := config.GetCrowdConfig()
	dist := crowd.VelocityDistribution{
		NormalMean:    crowdCfg.NormalMean,
		NormalStdDev:  crowdCfg.NormalStdDev,
		MaximumMean:   crowdCfg.MaximumMean,
		MaximumStdDev: crowdCfg.MaximumStdDev,
	}

	for _, crowdName := range scenario.CrowdNames() {
		opts := []crowd.Option{crowd.WithSeed(simCfg.Seed), crowd.WithLogger(Logger)}
		if simCfg.Workers > 0 {
			opts = append(opts, crowd.WithWorkers(simCfg.Workers))
		}
		c := crowd.New(crowdName, model, integ, dist, opts...)
		for _, spec := range scenario.PedestriansIn(crowdName) {
			route, err := wayfinding.BuildRoute(spec.Start, spec.Route, gate, s.Obstacles())
			if err != nil {
				return nil, fmt.Errorf("pedestrian %s: %w", spec.ID, err)
			}
			follower := wayfinding.NewFollowWaypoints(route, s.Boundaries(), thresholds, Logger)
			c.Add(spec.ID, spec.Start, follower)
		}
		s.AddCrowd(c)
	}
	return s, nil
}

// runLoop drives the simulation, recording every tick and dispatching
// control commands between ticks.
func runLoop(ctx context.Context, commands channel.Channel[dispatcher.Event], simCfg config.SimulationConfig, maxSeconds float64, realtime bool) error {
	maxSimMs := int64(maxSeconds * 1000)
	clock := simulator.Clock()

	if realtime {
		clock.AdvanceNow()
	}
	ticker := time.NewTicker(time.Duration(simCfg.RefreshIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	var timeMs int64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-commands.Receive():
			dispatchCommand(e)
			continue
		default:
		}

		if realtime {
			<-ticker.C
			simNow := clock.AdvanceNow()
			dt := float64(simNow-timeMs) / 1000
			if dt <= 0 {
				continue
			}
			if err := tickOnce(simNow, dt); err != nil {
				return err
			}
			timeMs = simNow
		} else {
			if clock.Paused() {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			timeMs += int64(simCfg.TimeStep * 1000)
			if err := tickOnce(timeMs, simCfg.TimeStep); err != nil {
				return err
			}
		}

		if simulator.Finished() {
			Logger.Info("All routes finished", "simTimeMs", timeMs)
			return nil
		}
		if maxSimMs > 0 && timeMs >= maxSimMs {
			Logger.Info("Simulated duration reached", "simTimeMs", timeMs)
			return nil
		}
	}
}

func tickOnce(timeMs int64, dt float64) error {
	start := time.Now()
	if err := simulator.Tick(timeMs, dt); err != nil {
		Logger.Error("Tick failed", "simTimeMs", timeMs, "error", err)
	}
	return workerManager.RecordTick(timeMs, time.Since(start))
}

// readCommands feeds stdin lines into the dispatcher queue. Lines are a
// command word followed by arguments, for example "factor 4" or "pause".
func readCommands(commands channel.Sender[dispatcher.Event], cancel context.CancelFunc) {
	wordToCommand := map[string]string{
		"pause":      handlers.CmdPause,
		"resume":     handlers.CmdResume,
		"factor":     handlers.CmdSetFactor,
		"integrator": handlers.CmdSetIntegrator,
		"model":      handlers.CmdSetForceModel,
		"resample":   handlers.CmdResample,
		"status":     handlers.CmdStatus,
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		word := strings.ToLower(fields[0])
		if word == "quit" || word == "stop" {
			cancel()
			return
		}
		command, ok := wordToCommand[word]
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown command %q\n", word)
			continue
		}
		ok = commands.TrySend(dispatcher.Event{
			Command:   command,
			Args:      fields[1:],
			Timestamp: time.Now(),
		})
		if !ok {
			fmt.Fprintln(os.Stderr, "command queue full, dropped")
		}
	}
}

func dispatchCommand(e dispatcher.Event) {
	result, err := eventDispatcher.Dispatch(e)
	if err != nil {
		fmt.Fprintf(os.Stderr, "command failed: %v\n", err)
		return
	}
	if result != nil {
		fmt.Printf("%+v\n", result)
	}
}

// sceneName derives a scene label from the boundaries file name.
func sceneName(cfg config.IngestConfig) string {
	base := filepath.Base(cfg.BoundariesFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// uploadExport sends the exported recording to the viewer frontend when
// the backend produced one and uploads are enabled.
func uploadExport() {
	up, ok := storageBackend.(storage.Uploadable)
	if !ok || !viper.GetBool("api.uploadExports") {
		return
	}
	path := up.GetExportedFilePath()
	if path == "" {
		return
	}

	client := api.New(viper.GetString("api.serverUrl"), viper.GetString("api.secret"))
	if err := client.Healthcheck(); err != nil {
		Logger.Warn("Viewer frontend is offline, skipping upload", "error", err)
		return
	}
	if err := client.Upload(path, up.GetExportMetadata()); err != nil {
		Logger.Error("Failed to upload recording", "error", err, "path", path)
		return
	}
	Logger.Info("Recording uploaded", "path", path)
}
