package achievement

import "strings"

// DependencyMode controls how a program outcome rollup treats a course outcome
// achievement that has never been computed for the enrollment.
type DependencyMode string

const (
	// DependencyTransitive computes the missing course outcome row inside the
	// same enrollment transaction before rolling up.
	DependencyTransitive DependencyMode = "transitive"
	// DependencyStrict fails the rollup with a ConsistencyError.
	DependencyStrict DependencyMode = "strict"
)

func ParseDependencyMode(s string) (DependencyMode, bool) {
	switch DependencyMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", DependencyTransitive:
		return DependencyTransitive, true
	case DependencyStrict:
		return DependencyStrict, true
	default:
		return "", false
	}
}

type Config struct {
	// WeightEpsilon is the tolerance for template weights summing to 100.
	WeightEpsilon float64 `yaml:"weight_epsilon"`
	// DefaultCourseOutcomeThreshold applies when a plan has no explicit row.
	DefaultCourseOutcomeThreshold  float64 `yaml:"default_course_outcome_threshold"`
	DefaultProgramOutcomeThreshold float64 `yaml:"default_program_outcome_threshold"`
	// BestEffort downgrades a template weight-sum violation to a warning.
	BestEffort           bool           `yaml:"best_effort"`
	DependencyMode       DependencyMode `yaml:"dependency_mode"`
	RecomputeConcurrency int            `yaml:"recompute_concurrency"`
}

func DefaultConfig() Config {
	return Config{
		WeightEpsilon:                  0.01,
		DefaultCourseOutcomeThreshold:  60,
		DefaultProgramOutcomeThreshold: 60,
		DependencyMode:                 DependencyTransitive,
		RecomputeConcurrency:           4,
	}
}

// withDefaults fills unset fields. A zero Config is DefaultConfig, so a
// caller that sets any field owns both thresholds, zero included.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c == (Config{}) {
		return d
	}
	if c.WeightEpsilon <= 0 {
		c.WeightEpsilon = d.WeightEpsilon
	}
	if c.DefaultCourseOutcomeThreshold < 0 || c.DefaultCourseOutcomeThreshold > 100 {
		c.DefaultCourseOutcomeThreshold = d.DefaultCourseOutcomeThreshold
	}
	if c.DefaultProgramOutcomeThreshold < 0 || c.DefaultProgramOutcomeThreshold > 100 {
		c.DefaultProgramOutcomeThreshold = d.DefaultProgramOutcomeThreshold
	}
	if mode, ok := ParseDependencyMode(string(c.DependencyMode)); ok {
		c.DependencyMode = mode
	} else {
		c.DependencyMode = d.DependencyMode
	}
	if c.RecomputeConcurrency <= 0 {
		c.RecomputeConcurrency = d.RecomputeConcurrency
	}
	return c
}
