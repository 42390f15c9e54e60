package membership

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Plan identifies a membership tier.
type Plan string

const (
	PlanEntry    Plan = "entry"
	PlanSilver   Plan = "silver"
	PlanGold     Plan = "gold"
	PlanPlatinum Plan = "platinum"
)

// KnownPlans lists the plan identifiers in tier order.
var KnownPlans = []Plan{PlanEntry, PlanSilver, PlanGold, PlanPlatinum}

// Rule is the price and validity window of a plan.
type Rule struct {
	Amount    int `yaml:"amount" json:"amount"`
	ValidDays int `yaml:"valid_days" json:"validDays"`
}

// Rules is the plan table. It is built once and never mutated afterwards.
type Rules struct {
	byPlan map[Plan]Rule
}

var defaultRules = map[Plan]Rule{
	PlanEntry:    {Amount: 1180, ValidDays: 90},
	PlanSilver:   {Amount: 1770, ValidDays: 120},
	PlanGold:     {Amount: 2950, ValidDays: 180},
	PlanPlatinum: {Amount: 5900, ValidDays: 365},
}

// DefaultRules returns the built-in plan table.
func DefaultRules() Rules {
	r, _ := NewRules(nil)
	return r
}

// NewRules starts from the built-in table and applies overrides. Only the
// known plans may be overridden and every override must be positive.
func NewRules(overrides map[string]Rule) (Rules, error) {
	m := make(map[Plan]Rule, len(defaultRules))
	for p, r := range defaultRules {
		m[p] = r
	}
	for name, r := range overrides {
		p, ok := ParsePlan(name)
		if !ok {
			return Rules{}, fmt.Errorf("unknown plan %q", name)
		}
		if r.Amount <= 0 || r.ValidDays <= 0 {
			return Rules{}, fmt.Errorf("plan %q: amount and valid_days must be positive", name)
		}
		m[p] = r
	}
	return Rules{byPlan: m}, nil
}

// LoadRules reads plan overrides from a YAML file shaped as
//
//	gold:
//	  amount: 2950
//	  valid_days: 180
//
// An empty path yields the built-in table.
func LoadRules(path string) (Rules, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultRules(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read plan rules: %w", err)
	}
	var overrides map[string]Rule
	if err := yaml.Unmarshal(b, &overrides); err != nil {
		return Rules{}, fmt.Errorf("parse plan rules: %w", err)
	}
	return NewRules(overrides)
}

// ParsePlan reports whether name is one of the known plans, ignoring case
// and surrounding spaces.
func ParsePlan(name string) (Plan, bool) {
	p := Plan(strings.ToLower(strings.TrimSpace(name)))
	for _, k := range KnownPlans {
		if p == k {
			return p, true
		}
	}
	return "", false
}

// Resolve returns the plan and its rule, falling back to entry for missing
// or unrecognised names.
func (r Rules) Resolve(name string) (Plan, Rule) {
	p, ok := ParsePlan(name)
	if !ok {
		p = PlanEntry
	}
	rule, ok := r.byPlan[p]
	if !ok {
		rule = defaultRules[p]
	}
	return p, rule
}

// Table returns a copy of the plan table.
func (r Rules) Table() map[Plan]Rule {
	out := make(map[Plan]Rule, len(KnownPlans))
	for _, p := range KnownPlans {
		_, out[p] = r.Resolve(string(p))
	}
	return out
}
