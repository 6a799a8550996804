// Package config reads the benchmark configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Engines that can be benchmarked
var Engines = []string{"postgres", "sqlite3", "riak", "automerge", "memory"}

// One engine to benchmark. The whole node is also handed to the engine, so engine-specific keys
// (e.g. "bucket" for riak) can sit next to the common ones.
type Target struct {
	Name       string
	Engine     string
	Connection []string
	Output     string
	// Raw YAML of this target, decoded again by the engine
	Data []byte `yaml:"-"`
}

type Config struct {
	DataSizes  []int `yaml:"dataSizes"`
	Iterations int
	Pause      time.Duration
	Extended   bool
	Seed       int64
	Targets    []Target `yaml:"-"`
}

// Returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		DataSizes:  []int{10, 100, 1000, 10000},
		Iterations: 3,
		Pause:      time.Second,
	}
}

// Returns the default output file name of a run started at t
func DefaultOutput(t time.Time) string {
	return fmt.Sprintf("db_performance_test_%s.json", t.Format("20060102_150405"))
}

// Reads a YAML configuration file on top of the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	config := Default()

	var raw struct {
		Config  `yaml:",inline"`
		Targets []yaml.Node
	}
	raw.Config = *config
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	*config = raw.Config
	config.Targets = nil
	for i := range raw.Targets {
		var target Target
		if err := raw.Targets[i].Decode(&target); err != nil {
			return nil, errors.Wrapf(err, "decode target %d", i)
		}
		targetData, err := yaml.Marshal(&raw.Targets[i])
		if err != nil {
			return nil, errors.Wrapf(err, "encode target %d", i)
		}
		target.Data = targetData
		config.Targets = append(config.Targets, target)
	}

	return config, nil
}

// Checks the configuration and fills the target defaults (name, output file)
func (c *Config) Validate(now time.Time) error {
	if len(c.DataSizes) == 0 {
		return errors.New("at least one data size is required")
	}
	for _, size := range c.DataSizes {
		if size <= 0 {
			return errors.Errorf("invalid data size %d", size)
		}
	}
	if c.Iterations <= 0 {
		return errors.Errorf("invalid number of iterations %d", c.Iterations)
	}
	if c.Pause < 0 {
		return errors.Errorf("invalid pause %s", c.Pause)
	}
	if len(c.Targets) == 0 {
		return errors.New("at least one target is required")
	}

	outputs := map[string]bool{}
	for i := range c.Targets {
		target := &c.Targets[i]
		if !knownEngine(target.Engine) {
			return errors.Errorf("unknown engine %q (known: %v)", target.Engine, Engines)
		}
		if target.Name == "" {
			target.Name = target.Engine
		}
		if target.Output == "" {
			if len(c.Targets) == 1 {
				target.Output = DefaultOutput(now)
			} else {
				target.Output = fmt.Sprintf("%s_logs_%s.json", target.Name, now.Format("20060102_150405"))
			}
		}
		if outputs[target.Output] {
			return errors.Errorf("output file %s is used by more than one target", target.Output)
		}
		outputs[target.Output] = true
	}

	return nil
}

func knownEngine(engine string) bool {
	for _, e := range Engines {
		if e == engine {
			return true
		}
	}
	return false
}
