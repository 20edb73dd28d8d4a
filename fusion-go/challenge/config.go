package challenge

import (
	yaml "gopkg.in/yaml.v2"

	"github.com/fusionbench/fusionbench/fusion-golib/errors"
	"github.com/fusionbench/fusionbench/fusion-golib/fileutil"
)

// GroupSchema names one diagnostic group to fetch. A schema may declare the
// group's time axis explicitly; groups without a declaration fall back to the
// first axis of each variable whose name begins with "time", then to "time"
// itself.
type GroupSchema struct {
	Name    string `yaml:"name" json:"name"`
	TimeDim string `yaml:"time_dim,omitempty" json:"time_dim,omitempty"`
}

// Config collects everything one challenge build needs. The zero value is not
// usable; start from DefaultConfig.
type Config struct {
	ShotIDs   []int64       `yaml:"shot_ids" json:"shot_ids"`
	Seed      int64         `yaml:"seed" json:"seed"`
	TrainSize int           `yaml:"train_size" json:"train_size"`
	TestSize  int           `yaml:"test_size" json:"test_size"`
	Groups    []GroupSchema `yaml:"groups" json:"groups"`

	TargetGroup string `yaml:"target_group" json:"target_group"`
	TargetVar   string `yaml:"target_var" json:"target_var"`
	TimeAxis    string `yaml:"time_axis" json:"time_axis"`
	RadiusAxis  string `yaml:"radius_axis" json:"radius_axis"`

	Level int `yaml:"level" json:"level"`

	// OverrideJoin restores the historical concatenation behavior of taking
	// the first shot's non-time axes without validating the rest agree.
	OverrideJoin bool `yaml:"override_join" json:"override_join"`
}

// DefaultConfig reproduces the original challenge build.
func DefaultConfig() Config {
	return Config{
		ShotIDs:   []int64{15585, 15212, 15010, 14998, 30410, 30418, 30420},
		Seed:      7,
		TrainSize: 5,
		TestSize:  2,
		Groups: []GroupSchema{
			{Name: "magnetics"},
			{Name: "soft_x_rays"},
			{Name: "spectrometer_visible"},
			{Name: "thomson_scattering"},
		},
		TargetGroup: "equilibrium",
		TargetVar:   "psi",
		TimeAxis:    "time",
		RadiusAxis:  "major_radius",
		Level:       2,
	}
}

// LoadConfig reads a YAML config over the defaults, so files only need to
// name the fields they change.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := fileutil.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate reports every problem with the config, not just the first.
func (c Config) Validate() error {
	var errs errors.Errors
	fail := func(format string, args ...interface{}) {
		errs = errors.Append(errs, errors.Errorf(format, args...))
	}

	if len(c.ShotIDs) == 0 {
		fail("no shot ids")
	}
	if c.TrainSize <= 0 || c.TestSize <= 0 {
		fail("train size %d and test size %d must both be positive", c.TrainSize, c.TestSize)
	} else if c.TrainSize+c.TestSize != len(c.ShotIDs) {
		fail("train size %d + test size %d must cover the %d shots", c.TrainSize, c.TestSize, len(c.ShotIDs))
	}
	if len(c.Groups) == 0 {
		fail("no measurement groups")
	}
	seen := make(map[string]bool, len(c.Groups))
	for _, g := range c.Groups {
		switch {
		case g.Name == "":
			fail("measurement group with empty name")
		case seen[g.Name]:
			fail("measurement group %s listed twice", g.Name)
		case g.Name == c.TargetGroup:
			fail("measurement group list must not contain the target group %s", c.TargetGroup)
		}
		seen[g.Name] = true
	}
	if c.TargetGroup == "" {
		fail("no target group")
	}
	if c.TargetVar == "" {
		fail("no target variable")
	}
	if c.TimeAxis == "" {
		fail("no time axis name")
	}
	if c.RadiusAxis == "" {
		fail("no radius axis name")
	}
	if c.Level <= 0 {
		fail("data level %d must be positive", c.Level)
	}

	if errs == nil {
		return nil
	}
	return errs
}
