// Package config holds the options of a verification run and loads them from
// YAML files and environment variables.
package config

import (
	"errors"
	"fmt"

	"github.com/sarchlab/memverify/scoreboard"
	"github.com/sarchlab/memverify/sequence"
	"github.com/sarchlab/memverify/sim"
)

// Mode selects how the stimulus is generated.
type Mode string

// The modes of a run.
const (
	ModeDirected Mode = "directed"
	ModeStress   Mode = "stress"
)

// Config holds the options of a run.
type Config struct {
	// Stimulus
	Mode     Mode   `yaml:"mode"`
	Directed string `yaml:"directed"` // Pattern name, directed mode only
	Seed     int64  `yaml:"seed"`     // 0 picks a seed at run time

	WriteProbability float64 `yaml:"write_probability"`
	ReadProbability  float64 `yaml:"read_probability"`
	IdleProbability  float64 `yaml:"idle_probability"`
	DataMin          uint8   `yaml:"data_min"`
	DataMax          uint8   `yaml:"data_max"`

	// Run length
	TickBudget  uint64 `yaml:"tick_budget"` // 0 for no limit
	ResetCycles uint64 `yaml:"reset_cycles"`
	DrainCycles uint64 `yaml:"drain_cycles"` // Used when TickBudget is 0

	// Checking
	Policy        scoreboard.Policy `yaml:"policy"`
	QueueCapacity int               `yaml:"queue_capacity"`

	Freq sim.Freq `yaml:"freq"`

	// Outputs
	RecordPath  string `yaml:"record_path"` // Empty disables recording
	Verbose     bool   `yaml:"verbose"`
	MonitorPort int    `yaml:"monitor_port"` // -1 disables, 0 random port
}

// Defaults returns a Config with sane defaults.
func Defaults() Config {
	stress := sequence.DefaultStressConstraints()

	return Config{
		Mode:             ModeDirected,
		Directed:         "fill-readback",
		WriteProbability: stress.WriteProbability,
		ReadProbability:  stress.ReadProbability,
		IdleProbability:  stress.IdleProbability,
		DataMin:          stress.DataMin,
		DataMax:          stress.DataMax,
		TickBudget:       10000,
		ResetCycles:      1,
		DrainCycles:      32,
		Policy:           scoreboard.PolicyLenient,
		QueueCapacity:    64,
		Freq:             1 * sim.GHz,
		MonitorPort:      -1,
	}
}

// Validate checks that the options are consistent.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeDirected:
		if _, err := sequence.Pattern(c.Directed); err != nil {
			return err
		}
	case ModeStress:
		if c.TickBudget == 0 {
			return errors.New("stress mode requires a tick budget > 0")
		}
	default:
		return fmt.Errorf("mode must be %q or %q, got %q",
			ModeDirected, ModeStress, c.Mode)
	}

	if err := c.StressConstraints().Validate(); err != nil {
		return err
	}

	if _, err := scoreboard.ParsePolicy(string(c.Policy)); err != nil {
		return err
	}

	if c.QueueCapacity <= 0 {
		return fmt.Errorf("queue capacity must be > 0")
	}

	if c.Freq <= 0 {
		return fmt.Errorf("freq must be > 0")
	}

	if c.MonitorPort != -1 && c.MonitorPort != 0 &&
		(c.MonitorPort < 1000 || c.MonitorPort > 65535) {
		return fmt.Errorf("monitor port must be -1, 0 or in [1000, 65535]")
	}

	return nil
}

// StressConstraints returns the constraints of the stress mode.
func (c Config) StressConstraints() sequence.StressConstraints {
	return sequence.StressConstraints{
		WriteProbability: c.WriteProbability,
		ReadProbability:  c.ReadProbability,
		IdleProbability:  c.IdleProbability,
		DataMin:          c.DataMin,
		DataMax:          c.DataMax,
	}
}
