package policy

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"underwriting-agent/domain"
)

// Direction says which side of the threshold passes.
type Direction string

const (
	AtMost  Direction = "at_most"
	AtLeast Direction = "at_least"
)

// RatioRule is the policy check for one ratio. HardLimit, when set, marks
// the point past which a failure becomes critical: above it for at_most
// rules, below it for at_least rules.
type RatioRule struct {
	Threshold float64   `yaml:"threshold"`
	Direction Direction `yaml:"direction"`
	HardLimit *float64  `yaml:"hard_limit,omitempty"`
}

// Satisfied reports whether value passes the rule.
func (r RatioRule) Satisfied(value float64) bool {
	if r.Direction == AtLeast {
		return value >= r.Threshold
	}
	return value <= r.Threshold
}

// Critical reports whether value breaches the hard limit. A rule without a
// hard limit never produces a critical failure.
func (r RatioRule) Critical(value float64) bool {
	if r.HardLimit == nil {
		return false
	}
	if r.Direction == AtLeast {
		return value < *r.HardLimit
	}
	return value > *r.HardLimit
}

// Requirement renders the check for display, e.g. "≤ 28%" or "≥ 1.2".
func (r RatioRule) Requirement(percent bool) string {
	op := "≤"
	if r.Direction == AtLeast {
		op = "≥"
	}
	value := strconv.FormatFloat(r.Threshold, 'f', -1, 64)
	if percent {
		return fmt.Sprintf("%s %s%%", op, value)
	}
	return fmt.Sprintf("%s %s", op, value)
}

// Policy is the full threshold table plus the qualitative documentation
// requirement for self-employed borrowers.
type Policy struct {
	Rules               map[domain.Ratio]RatioRule `yaml:"rules"`
	MinIncomeProofYears int                        `yaml:"min_income_proof_years"`
}

func hardLimit(v float64) *float64 { return &v }

// Default returns the compiled-in underwriting policy.
func Default() Policy {
	return Policy{
		Rules: map[domain.Ratio]RatioRule{
			domain.RatioDTI:               {Threshold: 28, Direction: AtMost, HardLimit: hardLimit(50)},
			domain.RatioBackEndDTI:        {Threshold: 36, Direction: AtMost, HardLimit: hardLimit(50)},
			domain.RatioLTV:               {Threshold: 80, Direction: AtMost, HardLimit: hardLimit(95)},
			domain.RatioCreditUtilization: {Threshold: 30, Direction: AtMost, HardLimit: hardLimit(80)},
			domain.RatioSavingsToIncome:   {Threshold: 10, Direction: AtLeast},
			domain.RatioNetWorthToIncome:  {Threshold: 50, Direction: AtLeast},
			domain.RatioDSCR:              {Threshold: 1.2, Direction: AtLeast, HardLimit: hardLimit(0.90)},
		},
		MinIncomeProofYears: 2,
	}
}

// Load reads a policy file and merges it over the defaults, so a file only
// needs to list the rules it changes. An empty path or a missing file
// yields the default policy.
func Load(path string) (Policy, error) {
	p := Default()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return Policy{}, fmt.Errorf("policy read: %w", err)
	}

	var file Policy
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Policy{}, fmt.Errorf("policy unmarshal: %w", err)
	}
	for name, rule := range file.Rules {
		p.Rules[name] = rule
	}
	if file.MinIncomeProofYears > 0 {
		p.MinIncomeProofYears = file.MinIncomeProofYears
	}

	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

var knownRatios = map[domain.Ratio]bool{
	domain.RatioDTI:               true,
	domain.RatioBackEndDTI:        true,
	domain.RatioLTV:               true,
	domain.RatioCreditUtilization: true,
	domain.RatioSavingsToIncome:   true,
	domain.RatioNetWorthToIncome:  true,
	domain.RatioDSCR:              true,
}

// Validate checks that every rule names a known ratio and is internally
// consistent.
func (p Policy) Validate() error {
	for name, rule := range p.Rules {
		if !knownRatios[name] {
			return fmt.Errorf("policy: unknown ratio %q", name)
		}
		if rule.Direction != AtMost && rule.Direction != AtLeast {
			return fmt.Errorf("policy: ratio %q has invalid direction %q", name, rule.Direction)
		}
		if rule.Threshold <= 0 {
			return fmt.Errorf("policy: ratio %q has non-positive threshold", name)
		}
		if rule.HardLimit != nil {
			if rule.Direction == AtMost && *rule.HardLimit < rule.Threshold {
				return fmt.Errorf("policy: ratio %q hard limit below threshold", name)
			}
			if rule.Direction == AtLeast && *rule.HardLimit > rule.Threshold {
				return fmt.Errorf("policy: ratio %q hard limit above threshold", name)
			}
		}
	}
	if p.MinIncomeProofYears < 0 {
		return fmt.Errorf("policy: negative min_income_proof_years")
	}
	return nil
}
