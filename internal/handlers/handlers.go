// Package handlers wires runtime control commands to the simulator. The
// dispatcher routes command strings here; each handler validates its
// arguments and applies the change.
package handlers

import (
	"fmt"
	"strconv"

	"github.com/geo-mart/ABPedSim/internal/crowd"
	"github.com/geo-mart/ABPedSim/internal/dispatcher"
	"github.com/geo-mart/ABPedSim/internal/logging"
	"github.com/geo-mart/ABPedSim/internal/sim"
)

// Command name constants understood by the control surface.
const (
	CmdPause         = ":PAUSE:"
	CmdResume        = ":RESUME:"
	CmdSetFactor     = ":SET:FACTOR:"
	CmdSetIntegrator = ":SET:INTEGRATOR:"
	CmdSetForceModel = ":SET:MODEL:"
	CmdResample      = ":RESAMPLE:"
	CmdStatus        = ":STATUS:"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Sim        *sim.Simulator
	LogManager *logging.SlogManager
}

// Service provides handler methods for runtime control commands
type Service struct {
	deps Dependencies
}

// NewService creates a new handler service
func NewService(deps Dependencies) *Service {
	return &Service{deps: deps}
}

// Status describes the running simulation for the status command.
type Status struct {
	SimTimeMs       int64   `json:"simTimeMs"`
	Factor          float64 `json:"factor"`
	Paused          bool    `json:"paused"`
	Finished        bool    `json:"finished"`
	TickCount       int64   `json:"tickCount"`
	PedestrianCount int     `json:"pedestrianCount"`
}

// RegisterHandlers registers all control handlers with the dispatcher.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	d.Register(CmdPause, s.handlePause, dispatcher.Logged())
	d.Register(CmdResume, s.handleResume, dispatcher.Logged())
	d.Register(CmdSetFactor, s.handleSetFactor, dispatcher.Logged())
	d.Register(CmdSetIntegrator, s.handleSetIntegrator, dispatcher.Logged())
	d.Register(CmdSetForceModel, s.handleSetForceModel, dispatcher.Logged())
	d.Register(CmdResample, s.handleResample, dispatcher.Logged())
	d.Register(CmdStatus, s.handleStatus)
}

func (s *Service) handlePause(e dispatcher.Event) (any, error) {
	s.deps.Sim.Clock().Pause()
	s.deps.LogManager.Logger().Info("simulation paused")
	return "paused", nil
}

func (s *Service) handleResume(e dispatcher.Event) (any, error) {
	s.deps.Sim.Clock().Resume()
	s.deps.LogManager.Logger().Info("simulation resumed")
	return "resumed", nil
}

func (s *Service) handleSetFactor(e dispatcher.Event) (any, error) {
	if len(e.Args) < 1 {
		return nil, fmt.Errorf("setFactor requires a factor argument")
	}
	factor, err := strconv.ParseFloat(e.Args[0], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid factor %q: %w", e.Args[0], err)
	}
	if factor <= 0 {
		return nil, fmt.Errorf("factor must be positive, got %v", factor)
	}
	s.deps.Sim.Clock().SetFactor(factor)
	s.deps.LogManager.Logger().Info("fast forward factor changed", "factor", factor)
	return factor, nil
}

func (s *Service) handleSetIntegrator(e dispatcher.Event) (any, error) {
	if len(e.Args) < 1 {
		return nil, fmt.Errorf("setIntegrator requires a name argument")
	}
	if err := s.deps.Sim.SetIntegrator(e.Args[0]); err != nil {
		return nil, err
	}
	return e.Args[0], nil
}

func (s *Service) handleSetForceModel(e dispatcher.Event) (any, error) {
	if len(e.Args) < 1 {
		return nil, fmt.Errorf("setModel requires a name argument")
	}
	if err := s.deps.Sim.SetForceModel(e.Args[0]); err != nil {
		return nil, err
	}
	return e.Args[0], nil
}

// handleResample re-draws every desired walking speed from new Gaussian
// parameters. Args: normalMean, normalStdDev, maximumMean, maximumStdDev.
func (s *Service) handleResample(e dispatcher.Event) (any, error) {
	if len(e.Args) < 4 {
		return nil, fmt.Errorf("resample requires 4 arguments, got %d", len(e.Args))
	}
	values := make([]float64, 4)
	for i, arg := range e.Args[:4] {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid distribution parameter %q: %w", arg, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("distribution parameter must be positive, got %v", v)
		}
		values[i] = v
	}
	dist := crowd.VelocityDistribution{
		NormalMean:    values[0],
		NormalStdDev:  values[1],
		MaximumMean:   values[2],
		MaximumStdDev: values[3],
	}
	s.deps.Sim.SetVelocityDistribution(dist)
	return dist, nil
}

func (s *Service) handleStatus(e dispatcher.Event) (any, error) {
	clock := s.deps.Sim.Clock()
	count := 0
	for _, c := range s.deps.Sim.Crowds() {
		count += c.Size()
	}
	return Status{
		SimTimeMs:       clock.Now(),
		Factor:          clock.Factor(),
		Paused:          clock.Paused(),
		Finished:        s.deps.Sim.Finished(),
		TickCount:       s.deps.Sim.TickCount(),
		PedestrianCount: count,
	}, nil
}
