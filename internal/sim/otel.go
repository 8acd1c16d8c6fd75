package sim

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/geo-mart/ABPedSim/internal/sim"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// metrics holds the simulator instruments. They stay no-ops until a
// metric exporter is configured on the global provider.
type metrics struct {
	ticks        metric.Int64Counter
	tickDuration metric.Float64Histogram
	pedestrians  metric.Int64ObservableGauge
}

func newMetrics(s *Simulator) (*metrics, error) {
	m := meter()
	var (
		sm  metrics
		err error
	)

	sm.ticks, err = m.Int64Counter(
		"sim.ticks",
		metric.WithDescription("Total executed simulation ticks"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick counter: %w", err)
	}

	sm.tickDuration, err = m.Float64Histogram(
		"sim.tick.duration",
		metric.WithDescription("Wall time per tick"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick duration histogram: %w", err)
	}

	sm.pedestrians, err = m.Int64ObservableGauge(
		"sim.pedestrians",
		metric.WithDescription("Pedestrians still on route"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating pedestrian gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			var active int64
			for _, c := range s.Crowds() {
				for _, p := range c.Pedestrians() {
					if p.Wayfinding().Destination() != nil {
						active++
					}
				}
			}
			o.ObserveInt64(sm.pedestrians, active)
			return nil
		},
		sm.pedestrians,
	)
	if err != nil {
		return nil, fmt.Errorf("registering pedestrian callback: %w", err)
	}

	return &sm, nil
}

func (sm *metrics) recordTick(wallMs float64) {
	if sm == nil {
		return
	}
	ctx := context.Background()
	sm.ticks.Add(ctx, 1)
	sm.tickDuration.Record(ctx, wallMs)
}
