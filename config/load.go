package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/memverify/scoreboard"
	"github.com/sarchlab/memverify/sim"
)

// EnvPrefix is the prefix of the environment variables that override the
// options.
const EnvPrefix = "MEMVERIFY_"

// LoadFile reads a YAML file on top of the defaults. Unknown keys are errors.
func LoadFile(path string) (Config, error) {
	c := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err = dec.Decode(&c)
	if err != nil {
		return c, fmt.Errorf("cannot parse %s: %w", path, err)
	}

	return c, nil
}

// ApplyEnv overlays the MEMVERIFY_* variables on the config. The variables
// are read from the given dotenv files first and then from the process
// environment, which takes precedence.
func ApplyEnv(c Config, files ...string) (Config, error) {
	vars := map[string]string{}

	if len(files) > 0 {
		fromFiles, err := godotenv.Read(files...)
		if err != nil {
			return c, err
		}

		vars = fromFiles
	}

	for _, s := range setters {
		if v, found := os.LookupEnv(EnvPrefix + s.key); found {
			vars[EnvPrefix+s.key] = v
		}
	}

	for _, s := range setters {
		v, found := vars[EnvPrefix+s.key]
		if !found {
			continue
		}

		err := s.set(&c, v)
		if err != nil {
			return c, fmt.Errorf("%s%s: %w", EnvPrefix, s.key, err)
		}
	}

	return c, nil
}

type setter struct {
	key string
	set func(c *Config, v string) error
}

var setters = []setter{
	{"MODE", func(c *Config, v string) error {
		c.Mode = Mode(v)
		return nil
	}},
	{"DIRECTED", func(c *Config, v string) error {
		c.Directed = v
		return nil
	}},
	{"SEED", func(c *Config, v string) (err error) {
		c.Seed, err = strconv.ParseInt(v, 0, 64)
		return err
	}},
	{"WRITE_PROBABILITY", parseFloat(func(c *Config) *float64 {
		return &c.WriteProbability
	})},
	{"READ_PROBABILITY", parseFloat(func(c *Config) *float64 {
		return &c.ReadProbability
	})},
	{"IDLE_PROBABILITY", parseFloat(func(c *Config) *float64 {
		return &c.IdleProbability
	})},
	{"DATA_MIN", parseByte(func(c *Config) *uint8 { return &c.DataMin })},
	{"DATA_MAX", parseByte(func(c *Config) *uint8 { return &c.DataMax })},
	{"TICK_BUDGET", parseUint(func(c *Config) *uint64 { return &c.TickBudget })},
	{"RESET_CYCLES", parseUint(func(c *Config) *uint64 { return &c.ResetCycles })},
	{"DRAIN_CYCLES", parseUint(func(c *Config) *uint64 { return &c.DrainCycles })},
	{"POLICY", func(c *Config, v string) (err error) {
		c.Policy, err = scoreboard.ParsePolicy(v)
		return err
	}},
	{"FREQ", func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		c.Freq = sim.Freq(f)

		return err
	}},
	{"RECORD_PATH", func(c *Config, v string) error {
		c.RecordPath = v
		return nil
	}},
	{"VERBOSE", func(c *Config, v string) (err error) {
		c.Verbose, err = strconv.ParseBool(v)
		return err
	}},
	{"MONITOR_PORT", func(c *Config, v string) (err error) {
		c.MonitorPort, err = strconv.Atoi(v)
		return err
	}},
}

func parseFloat(field func(c *Config) *float64) func(*Config, string) error {
	return func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}

		*field(c) = f

		return nil
	}
}

func parseUint(field func(c *Config) *uint64) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 0, 64)
		if err != nil {
			return err
		}

		*field(c) = n

		return nil
	}
}

func parseByte(field func(c *Config) *uint8) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 0, 8)
		if err != nil {
			return err
		}

		*field(c) = uint8(n)

		return nil
	}
}
