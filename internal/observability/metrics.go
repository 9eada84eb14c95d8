package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IndexCollector bundles Prometheus metrics for command execution and the
// size of the spatial indexes.
type IndexCollector struct {
	gatherer prometheus.Gatherer

	Commands         *prometheus.CounterVec
	CommandDurations *prometheus.HistogramVec
	Rollbacks        *prometheus.CounterVec

	Cities       prometheus.Gauge
	MappedCities prometheus.Gauge
	Roads        prometheus.Gauge
	Airports     prometheus.Gauge
	Terminals    prometheus.Gauge
	Metropoles   prometheus.Gauge
}

// NewIndexCollector registers index metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewIndexCollector(reg prometheus.Registerer) (*IndexCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	commands, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "metromap_commands_total",
		Help: "Total number of executed commands, labeled by command and outcome.",
	}, []string{"command", "status"}), "metromap_commands_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "metromap_command_duration_seconds",
		Help:    "Command execution latency in seconds.",
		Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"command"}), "metromap_command_duration_seconds")
	if err != nil {
		return nil, err
	}

	rollbacks, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "metromap_rollbacks_total",
		Help: "Speculative index mutations undone, labeled by the rejecting rule.",
	}, []string{"reason"}), "metromap_rollbacks_total")
	if err != nil {
		return nil, err
	}

	gauges := []struct {
		name string
		help string
		dst  *prometheus.Gauge
	}{
		{"metromap_cities", "Current number of cities in the dictionary.", nil},
		{"metromap_mapped_cities", "Current number of cities present in the global index.", nil},
		{"metromap_roads", "Current number of mapped roads, terminal roads included.", nil},
		{"metromap_airports", "Current number of mapped airports.", nil},
		{"metromap_terminals", "Current number of mapped terminals.", nil},
		{"metromap_metropoles", "Current number of metropoles.", nil},
	}
	c := &IndexCollector{
		gatherer:         gatherer,
		Commands:         commands,
		CommandDurations: durations,
		Rollbacks:        rollbacks,
	}
	gauges[0].dst = &c.Cities
	gauges[1].dst = &c.MappedCities
	gauges[2].dst = &c.Roads
	gauges[3].dst = &c.Airports
	gauges[4].dst = &c.Terminals
	gauges[5].dst = &c.Metropoles
	for _, g := range gauges {
		gauge, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: g.name, Help: g.help}), g.name)
		if err != nil {
			return nil, err
		}
		*g.dst = gauge
	}
	return c, nil
}

// ObserveCommand records one executed command.
func (c *IndexCollector) ObserveCommand(command, status string, elapsed time.Duration) {
	if c == nil {
		return
	}
	if c.Commands != nil {
		c.Commands.WithLabelValues(command, status).Inc()
	}
	if c.CommandDurations != nil {
		c.CommandDurations.WithLabelValues(command).Observe(elapsed.Seconds())
	}
}

// SetIndexCounts satisfies the state metrics recorder so MapState can
// drive gauge values directly from its mutators.
func (c *IndexCollector) SetIndexCounts(cities, mappedCities, roads, airports, terminals, metropoles int) {
	if c == nil {
		return
	}
	set := func(g prometheus.Gauge, v int) {
		if g != nil {
			g.Set(float64(v))
		}
	}
	set(c.Cities, cities)
	set(c.MappedCities, mappedCities)
	set(c.Roads, roads)
	set(c.Airports, airports)
	set(c.Terminals, terminals)
	set(c.Metropoles, metropoles)
}

// RecordRollback counts an undone mutation.
func (c *IndexCollector) RecordRollback(reason string) {
	if c == nil || c.Rollbacks == nil {
		return
	}
	c.Rollbacks.WithLabelValues(reason).Inc()
}

// WriteTextfile dumps every gathered metric to path in the Prometheus
// text format, for node_exporter's textfile collector.
func (c *IndexCollector) WriteTextfile(path string) error {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if err := prometheus.WriteToTextfile(path, gatherer); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
