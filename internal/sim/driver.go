package sim

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danielpatrickdp/mirror-console/internal/contradiction"
	"github.com/danielpatrickdp/mirror-console/internal/gate"
	"github.com/danielpatrickdp/mirror-console/internal/history"
	"github.com/danielpatrickdp/mirror-console/internal/telemetry"
)

// #region driver-config
// DriverConfig holds the clock cadence and buffer sizes.
type DriverConfig struct {
	Period      time.Duration `yaml:"period"`
	HistorySize int           `yaml:"history_size"`
	NodeCount   int           `yaml:"node_count"`
}

// DefaultDriverConfig returns a 50ms tick, 100-frame history and 40 nodes.
func DefaultDriverConfig() DriverConfig {
	return DriverConfig{
		Period:      50 * time.Millisecond,
		HistorySize: history.DefaultCapacity,
		NodeCount:   40,
	}
}

// #endregion driver-config

// #region driver-struct
// Driver is the only owner of simulation state. Each tick is one atomic
// transition that ends by publishing a fresh immutable snapshot.
type Driver struct {
	config    DriverConfig
	source    FrameSource
	gate      *gate.Gate
	scheduler *contradiction.Scheduler
	nodeNoise telemetry.Noise
	logger    *log.Logger

	mu        sync.Mutex
	running   bool
	tick      int64
	gateState gate.State
	active    *contradiction.Event
	history   *history.Ring[telemetry.MetricFrame]
	nodes     []Node

	snapshot atomic.Pointer[SimulationState]
	wake     chan struct{}

	subMu   sync.Mutex
	subs    map[int]chan *SimulationState
	nextSub int
}

// Option customizes a Driver.
type Option func(*Driver)

// WithLogger routes driver logs to l.
func WithLogger(l *log.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// WithNodes replaces the initial node layout.
func WithNodes(nodes []Node) Option {
	return func(d *Driver) { d.nodes = nodes }
}

// #endregion driver-struct

// #region constructor
// NewDriver creates a stopped driver at tick 0 with the gate in NO-GO.
// nodeNoise drives node layout and activity jitter and is kept separate
// from the frame source's noise.
func NewDriver(config DriverConfig, source FrameSource, g *gate.Gate, scheduler *contradiction.Scheduler, nodeNoise telemetry.Noise, opts ...Option) *Driver {
	d := &Driver{
		config:    config,
		source:    source,
		gate:      g,
		scheduler: scheduler,
		nodeNoise: nodeNoise,
		logger:    log.Default(),
		gateState: gate.Initial(),
		history:   history.NewRing[telemetry.MetricFrame](config.HistorySize),
		wake:      make(chan struct{}, 1),
		subs:      make(map[int]chan *SimulationState),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.nodes == nil {
		d.nodes = NewNodes(config.NodeCount, nodeNoise)
	}
	d.snapshot.Store(d.snapshotLocked())
	return d
}

// #endregion constructor

// #region accessors
// Snapshot returns the latest published state.
func (d *Driver) Snapshot() *SimulationState {
	return d.snapshot.Load()
}

// Running reports whether the clock is advancing.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Config returns the driver configuration.
func (d *Driver) Config() DriverConfig {
	return d.config
}

// GateConfig returns the thresholds the driver gates on.
func (d *Driver) GateConfig() gate.GateConfig {
	return d.gate.Config()
}

// #endregion accessors

// #region toggle
// ToggleRunning flips the run state. It is the only run control: counters
// are zeroed, the gate is forced to STABILIZING (starting) or NO-GO
// (stopping), any active contradiction is cleared, and the tick counter is
// left untouched.
func (d *Driver) ToggleRunning() *SimulationState {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.running = !d.running
	d.gateState = gate.Reset(d.running)
	d.active = nil

	snap := d.snapshotLocked()
	d.publishLocked(snap)
	d.logger.Printf("[SIM] run toggled: running=%v frame=%d gate=%s", d.running, d.tick, d.gateState.Status)

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return snap
}

// #endregion toggle

// #region step
// Step performs one tick: generate, gate, schedule, derive node activity,
// push history, publish. When stopped it does nothing and reports false.
func (d *Driver) Step() (*SimulationState, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return d.snapshot.Load(), false
	}

	t := d.tick
	frame := d.source.Frame(t)

	decision := d.gate.Evaluate(d.gateState, frame)
	if decision.Transitioned {
		d.logger.Printf("[GATE] tick=%d %s -> %s: %s", t, d.gateState.Status, decision.Next.Status, decision.Reason)
	}
	d.gateState = decision.Next

	next := d.scheduler.Next(t, d.active)
	switch {
	case d.active == nil && next != nil:
		d.logger.Printf("[SIM] tick=%d contradiction raised id=%s", t, next.ID)
	case d.active != nil && next == nil:
		d.logger.Printf("[SIM] tick=%d contradiction cleared id=%s", t, d.active.ID)
	}
	d.active = next

	d.nodes = deriveActivity(d.nodes, frame, d.nodeNoise)
	d.history.Push(frame)
	d.tick = t + 1

	snap := d.snapshotLocked()
	d.publishLocked(snap)
	return snap, true
}

// #endregion step

// #region run
// Run drives Step on the configured period until ctx is done. While the
// driver is stopped no ticker exists; Run blocks until ToggleRunning wakes it.
func (d *Driver) Run(ctx context.Context) {
	for {
		if !d.Running() {
			select {
			case <-ctx.Done():
				return
			case <-d.wake:
				continue
			}
		}
		if !d.runTicks(ctx) {
			return
		}
	}
}

// runTicks ticks until the driver stops (true) or ctx ends (false).
func (d *Driver) runTicks(ctx context.Context) bool {
	ticker := time.NewTicker(d.config.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-d.wake:
			if !d.Running() {
				return true
			}
		case <-ticker.C:
			if _, ok := d.Step(); !ok {
				return true
			}
		}
	}
}

// #endregion run

// #region subscribe
// Subscribe returns a channel that receives every published snapshot,
// starting with the current one. Delivery never blocks the tick: a full
// buffer drops its oldest pending snapshot. cancel closes the channel.
func (d *Driver) Subscribe(buffer int) (<-chan *SimulationState, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan *SimulationState, buffer)

	d.subMu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = ch
	ch <- d.snapshot.Load()
	d.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			d.subMu.Lock()
			delete(d.subs, id)
			close(ch)
			d.subMu.Unlock()
		})
	}
	return ch, cancel
}

// #endregion subscribe

// #region publish
// snapshotLocked copies owned state into a new snapshot. Caller holds mu.
func (d *Driver) snapshotLocked() *SimulationState {
	return &SimulationState{
		IsRunning:             d.running,
		CurrentFrame:          d.tick,
		GateStatus:            d.gateState.Status,
		ConsecutiveGoFrames:   d.gateState.ConsecutiveGo,
		ConsecutiveNoGoFrames: d.gateState.ConsecutiveNoGo,
		Metrics:               d.history.Slice(),
		Nodes:                 d.nodes,
		ActiveContradiction:   d.active,
	}
}

// publishLocked swaps the snapshot pointer and fans out. Caller holds mu,
// which keeps delivery order equal to transition order.
func (d *Driver) publishLocked(snap *SimulationState) {
	d.snapshot.Store(snap)

	d.subMu.Lock()
	defer d.subMu.Unlock()
	for _, ch := range d.subs {
		deliver(ch, snap)
	}
}

func deliver(ch chan *SimulationState, snap *SimulationState) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

// #endregion publish
