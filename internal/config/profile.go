package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/mirror-console/internal/audit"
	"github.com/danielpatrickdp/mirror-console/internal/chat"
	"github.com/danielpatrickdp/mirror-console/internal/console"
	"github.com/danielpatrickdp/mirror-console/internal/contradiction"
	"github.com/danielpatrickdp/mirror-console/internal/gate"
	"github.com/danielpatrickdp/mirror-console/internal/sim"
	"github.com/danielpatrickdp/mirror-console/internal/telemetry"
)

// #region profile
// Profile is the engine tuning file. Keys left out of the YAML keep their
// defaults.
type Profile struct {
	Generator telemetry.GeneratorConfig     `yaml:"generator"`
	Gate      gate.GateConfig               `yaml:"gate"`
	Scheduler contradiction.SchedulerConfig `yaml:"scheduler"`
	Driver    sim.DriverConfig              `yaml:"driver"`
	Audit     audit.AuditConfig             `yaml:"audit"`
	Chat      chat.SessionConfig            `yaml:"chat"`
	Console   console.ConsoleConfig         `yaml:"console"`
}

// DefaultProfile returns every package's defaults.
func DefaultProfile() Profile {
	return Profile{
		Generator: telemetry.DefaultGeneratorConfig(),
		Gate:      gate.DefaultGateConfig(),
		Scheduler: contradiction.DefaultSchedulerConfig(),
		Driver:    sim.DefaultDriverConfig(),
		Audit:     audit.DefaultAuditConfig(),
		Chat:      chat.DefaultSessionConfig(),
		Console:   console.DefaultConsoleConfig(),
	}
}

// LoadProfile overlays the YAML file at path on the defaults. An empty
// path returns the defaults.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", path, err)
	}
	return p, nil
}

// Validate rejects settings the engine cannot run with.
func (p Profile) Validate() error {
	var errs []error
	if p.Gate.ConfirmFrames < 1 {
		errs = append(errs, errors.New("gate.confirm_frames must be >= 1"))
	}
	if p.Gate.FailFrames < 1 {
		errs = append(errs, errors.New("gate.fail_frames must be >= 1"))
	}
	if p.Scheduler.TriggerEvery < 0 || p.Scheduler.ClearEvery < 0 {
		errs = append(errs, errors.New("scheduler moduli must be >= 0"))
	}
	if p.Driver.Period <= 0 {
		errs = append(errs, errors.New("driver.period must be > 0"))
	}
	if p.Driver.HistorySize < 1 {
		errs = append(errs, errors.New("driver.history_size must be >= 1"))
	}
	if p.Driver.NodeCount < 0 {
		errs = append(errs, errors.New("driver.node_count must be >= 0"))
	}
	return errors.Join(errs...)
}

// Marshal renders the profile as YAML.
func (p Profile) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}
	return out, nil
}

// #endregion profile
