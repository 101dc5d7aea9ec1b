package testbench

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/rs/xid"
	"github.com/sarchlab/memverify/config"
	"github.com/sarchlab/memverify/datarecording"
	"github.com/sarchlab/memverify/driver"
	"github.com/sarchlab/memverify/dut"
	"github.com/sarchlab/memverify/monitor"
	"github.com/sarchlab/memverify/monitoring"
	"github.com/sarchlab/memverify/refmodel"
	"github.com/sarchlab/memverify/scoreboard"
	"github.com/sarchlab/memverify/sequence"
	"github.com/sarchlab/memverify/signal"
	"github.com/sarchlab/memverify/sim"
	"github.com/sarchlab/memverify/timing"
	"github.com/sarchlab/memverify/tracing"
)

// Builder can be used to build a testbench.
type Builder struct {
	name     string
	cfg      config.Config
	dut      signal.DUT
	provider sequence.Provider
	hooks    []sim.Hook
	recorder datarecording.DataRecorder
	server   *monitoring.Server
	logger   *log.Logger
}

// MakeBuilder creates a builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		name: "TB",
		cfg:  config.Defaults(),
	}
}

// WithName sets the name prefix of the components.
func (b Builder) WithName(name string) Builder {
	b.name = name
	return b
}

// WithConfig sets the options of the run.
func (b Builder) WithConfig(c config.Config) Builder {
	b.cfg = c
	return b
}

// WithDUT sets the device under test. A fault-free dut.Memory is used if not
// set.
func (b Builder) WithDUT(d signal.DUT) Builder {
	b.dut = d
	return b
}

// WithProvider sets the stimulus. If not set, the stimulus is derived from
// the mode of the configuration.
func (b Builder) WithProvider(p sequence.Provider) Builder {
	b.provider = p
	return b
}

// WithPolicy sets how the scoreboard correlates observations with
// predictions.
func (b Builder) WithPolicy(p scoreboard.Policy) Builder {
	b.cfg.Policy = p
	return b
}

// WithTickBudget limits the number of ticks of the run. Zero means that the
// run ends only after the stimulus is exhausted and drained.
func (b Builder) WithTickBudget(n uint64) Builder {
	b.cfg.TickBudget = n
	return b
}

// WithHook adds a hook to every component of the testbench.
func (b Builder) WithHook(h sim.Hook) Builder {
	b.hooks = append(append([]sim.Hook(nil), b.hooks...), h)
	return b
}

// WithRecorder records the stimulus, the verdicts, and the outcome of the run
// into the recorder.
func (b Builder) WithRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

// WithMonitoringServer registers the testbench to a monitoring server.
func (b Builder) WithMonitoringServer(s *monitoring.Server) Builder {
	b.server = s
	return b
}

// WithLogger prints the activity of the testbench into the logger.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

// Build creates the testbench. It returns an error if the configuration is
// invalid.
func (b Builder) Build() (*Testbench, error) {
	sim.NameMustBeValid(b.name)

	err := b.cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	tb := &Testbench{
		name:  b.name,
		cfg:   b.cfg,
		runID: xid.New().String(),
	}

	tb.provider, tb.seed, err = b.buildProvider()
	if err != nil {
		return nil, err
	}

	if _, ok := tb.provider.(*sequence.Stress); ok {
		tb.cfg.Mode = config.ModeStress
	}

	tb.dut = b.dut
	if tb.dut == nil {
		tb.dut = dut.MakeBuilder().Build(b.name + ".DUT")
	}

	b.buildComponents(tb)
	b.connectHooks(tb)
	b.connectServer(tb)

	return tb, nil
}

func (b Builder) buildProvider() (sequence.Provider, int64, error) {
	seed := b.cfg.Seed

	if b.provider != nil {
		if s, ok := b.provider.(*sequence.Stress); ok {
			if b.cfg.TickBudget == 0 {
				return nil, 0, errors.New(
					"a stress sequence never runs out, a tick budget is required")
			}

			seed = s.Seed()
		}

		return b.provider, seed, nil
	}

	switch b.cfg.Mode {
	case config.ModeStress:
		if seed == 0 {
			seed = time.Now().UnixNano()
		}

		return sequence.NewStress(b.cfg.StressConstraints(), seed), seed, nil
	default:
		p, err := sequence.Pattern(b.cfg.Directed)
		if err != nil {
			return nil, 0, err
		}

		return p, seed, nil
	}
}

func (b Builder) buildComponents(tb *Testbench) {
	tb.clock = timing.NewClock(b.cfg.Freq)
	tb.clock.SetTickBudget(b.cfg.TickBudget)

	tb.bus = signal.NewBus(tb.dut)
	tb.queue = scoreboard.NewExpectedQueue(
		b.name+".ExpectedQueue", b.cfg.QueueCapacity)
	tb.model = refmodel.NewModel(b.name+".Model", tb.queue)
	tb.scoreboard = scoreboard.NewScoreboard(
		b.name+".Scoreboard", tb.queue, b.cfg.Policy)

	tb.driver = driver.NewDriver(b.name+".Driver", tb.clock, tb.bus, tb.model)
	tb.driver.SetResetCycles(b.cfg.ResetCycles)
	tb.driver.SetPendingCounter(tb.scoreboard)

	tb.edgeName = b.name + ".Edge"
	tb.clock.Register(tb.edgeName, timing.PhaseEdge)

	tb.monitor = monitor.NewMonitor(b.name+".Monitor", tb.clock, tb.bus)
	tb.monitor.Subscribe(tb.scoreboard)

	tb.sequencer = sequence.NewSequencer(b.name + ".Sequencer")

	tb.clock.AcceptHook(sim.HookFunc(tb.onTick))
}

func (b Builder) connectHooks(tb *Testbench) {
	if b.logger != nil {
		logHook := tracing.NewLogHook(b.logger, b.cfg.Freq, b.cfg.Verbose)
		tb.model.AcceptHook(logHook)
		tb.driver.AcceptHook(logHook)
		tb.scoreboard.AcceptHook(logHook)
	}

	if b.recorder != nil {
		tb.dbRecorder = tracing.NewDBRecorder(b.recorder, tb.runID)
		tb.driver.AcceptHook(tb.dbRecorder)
		tb.scoreboard.AcceptHook(tb.dbRecorder)
	}

	for _, h := range b.hooks {
		tb.clock.AcceptHook(h)
		tb.model.AcceptHook(h)
		tb.driver.AcceptHook(h)
		tb.monitor.AcceptHook(h)
		tb.scoreboard.AcceptHook(h)
	}
}

func (b Builder) connectServer(tb *Testbench) {
	if b.server == nil {
		return
	}

	s := b.server
	s.RegisterClock(tb.clock)
	s.RegisterComponent(tb.model)
	s.RegisterComponent(tb.driver)
	s.RegisterComponent(tb.monitor)
	s.RegisterComponent(tb.scoreboard)
	s.RegisterComponent(tb.sequencer)
	s.RegisterBuffer(tb.queue.Buffer())
	s.RegisterSummary(func() any { return tb.Snapshot() })

	tb.scoreboard.AcceptHook(s)

	if b.cfg.TickBudget > 0 {
		tb.progress = s.CreateProgressBar(b.name, b.cfg.TickBudget)
	}

	tb.server = s
}
