package aclgate

import (
	"strconv"

	"github.com/aclgate/aclgate/conf"
)

// Wildcard matches any resource or action when used as a pattern in a rule
// triple. It carries no special meaning as a role pattern.
const Wildcard = "*"

// Effect is the verdict a rule block assigns to its matching triples.
type Effect int

const (
	Allow Effect = iota
	Deny
)

func (e Effect) String() string {
	switch e {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		panic("unreachable")
	}
}

// Strategy selects how matches across the ruleset are aggregated into a
// single decision.
type Strategy int

const (
	// FirstMatch returns the effect of the earliest matching triple, or the
	// configured mismatch decision if nothing matched.
	FirstMatch Strategy = iota
	// AllAllow allows only if no matching triple denies.
	AllAllow
	// AnyAllow allows as soon as one matching triple allows.
	AnyAllow
)

func (s Strategy) String() string {
	switch s {
	case FirstMatch:
		return "FIRST_MATCH"
	case AllAllow:
		return "ALL_ALLOW"
	case AnyAllow:
		return "ANY_ALLOW"
	default:
		panic("unreachable")
	}
}

func parseStrategy(s string) (Strategy, error) {
	switch s {
	case "FIRST_MATCH":
		return FirstMatch, nil
	case "ALL_ALLOW":
		return AllAllow, nil
	case "ANY_ALLOW":
		return AnyAllow, nil
	default:
		return 0, configErrorf("unsupported rule_policy strategy: %s", s)
	}
}

// MembershipIndex maps a container name to the members declared under it.
// Members may themselves be container names, and the resulting graph is not
// required to be acyclic.
type MembershipIndex map[string][]string

// Triple is a single (role, resource, action) pattern of a rule block. The
// resource and action patterns may be [Wildcard].
type Triple struct {
	Role     string `cbor:"role"`
	Resource string `cbor:"resource"`
	Action   string `cbor:"action"`
}

// RuleBlock is one allow- or deny-list of a rule, kept in declaration order.
type RuleBlock struct {
	Effect  Effect   `cbor:"effect"`
	Triples []Triple `cbor:"triples"`
}

// Rule is a named, ordered sequence of allow/deny blocks. Rules declared as a
// plain list carry positional names "1", "2", ...
type Rule struct {
	Name   string      `cbor:"name"`
	Blocks []RuleBlock `cbor:"blocks"`
}

// RulePolicy configures the aggregation of rule matches. MismatchDecision is
// only consulted under [FirstMatch]; the other strategies have fixed
// exhaustion verdicts.
type RulePolicy struct {
	Strategy         Strategy `cbor:"strategy"`
	MismatchDecision bool     `cbor:"mismatch_decision"`
}

// Policy is an immutable policy document. It is built once by [NewPolicy] and
// never mutated afterwards, so [Policy.Check] is safe for concurrent use
// without synchronization.
type Policy struct {
	Groups     MembershipIndex `cbor:"groups"`
	Roles      MembershipIndex `cbor:"roles"`
	Resources  MembershipIndex `cbor:"resources"`
	Rules      []Rule          `cbor:"rules"`
	RulePolicy RulePolicy      `cbor:"rule_policy"`
}

// NewPolicy builds a policy from an already-parsed generic config tree (see
// the conf-package for the parsing collaborator). All sections are optional;
// a malformed section or an unknown strategy returns a [*ConfigError].
func NewPolicy(root conf.Value) (*Policy, error) {
	tree, ok := root.(*conf.Map)
	if !ok {
		return nil, configErrorf("policy document must be a table at the top level")
	}
	p := &Policy{
		RulePolicy: RulePolicy{Strategy: FirstMatch, MismatchDecision: true},
	}
	var err error
	if p.Groups, err = membershipIndex(tree, "groups"); err != nil {
		return nil, err
	}
	if p.Roles, err = membershipIndex(tree, "roles"); err != nil {
		return nil, err
	}
	if p.Resources, err = membershipIndex(tree, "resources"); err != nil {
		return nil, err
	}
	if p.Rules, err = ruleList(tree); err != nil {
		return nil, err
	}
	if err = p.loadRulePolicy(tree); err != nil {
		return nil, err
	}
	return p, nil
}

func membershipIndex(tree *conf.Map, section string) (MembershipIndex, error) {
	idx := MembershipIndex{}
	v, ok := tree.Get(section)
	if !ok {
		return idx, nil
	}
	m, ok := v.(*conf.Map)
	if !ok {
		return nil, configErrorf("[%s] must be a table of member lists", section)
	}
	for _, name := range m.Keys() {
		members, _ := m.Get(name)
		list, err := stringList(members)
		if err != nil {
			return nil, configErrorf("[%s] %s must be a list of names", section, name)
		}
		idx[name] = list
	}
	return idx, nil
}

func stringList(v conf.Value) ([]string, error) {
	list, ok := v.([]conf.Value)
	if !ok {
		return nil, configErrorf("expected a list of strings")
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		s, ok := e.(string)
		if !ok {
			return nil, configErrorf("expected a list of strings")
		}
		out = append(out, s)
	}
	return out, nil
}

// ruleList normalizes both supported rule-collection shapes, a name->rule
// table and a plain list of rules, into one ordered sequence. List entries
// are labeled 1, 2, 3, ... as used verbatim in reason strings.
func ruleList(tree *conf.Map) ([]Rule, error) {
	v, ok := tree.Get("rules")
	if !ok {
		return nil, nil
	}
	switch rules := v.(type) {
	case *conf.Map:
		out := make([]Rule, 0, rules.Len())
		for _, name := range rules.Keys() {
			body, _ := rules.Get(name)
			rule, err := newRule(name, body)
			if err != nil {
				return nil, err
			}
			out = append(out, rule)
		}
		return out, nil
	case []conf.Value:
		out := make([]Rule, 0, len(rules))
		for i, body := range rules {
			rule, err := newRule(strconv.Itoa(i+1), body)
			if err != nil {
				return nil, err
			}
			out = append(out, rule)
		}
		return out, nil
	default:
		return nil, configErrorf("[rules] must be a table or a list of rules")
	}
}

func newRule(name string, body conf.Value) (Rule, error) {
	m, ok := body.(*conf.Map)
	if !ok {
		return Rule{}, configErrorf("[rules.%s] must be a table", name)
	}
	rule := Rule{Name: name}
	for _, key := range m.Keys() {
		var effect Effect
		switch key {
		case "allow":
			effect = Allow
		case "deny":
			effect = Deny
		default:
			// unknown keys are skipped for forward-compatibility
			continue
		}
		v, _ := m.Get(key)
		triples, err := tripleList(name, key, v)
		if err != nil {
			return Rule{}, err
		}
		rule.Blocks = append(rule.Blocks, RuleBlock{Effect: effect, Triples: triples})
	}
	return rule, nil
}

func tripleList(rule, key string, v conf.Value) ([]Triple, error) {
	list, ok := v.([]conf.Value)
	if !ok {
		return nil, configErrorf("[rules.%s] %s must be a list of [role, resource, action] triples", rule, key)
	}
	triples := make([]Triple, 0, len(list))
	for _, e := range list {
		entry, err := stringList(e)
		if err != nil || len(entry) != 3 {
			return nil, configErrorf("[rules.%s] %s entries must be [role, resource, action] triples", rule, key)
		}
		triples = append(triples, Triple{Role: entry[0], Resource: entry[1], Action: entry[2]})
	}
	return triples, nil
}

func (p *Policy) loadRulePolicy(tree *conf.Map) error {
	v, ok := tree.Get("rule_policy")
	if !ok {
		return nil
	}
	m, ok := v.(*conf.Map)
	if !ok {
		return configErrorf("[rule_policy] must be a table")
	}
	if sv, ok := m.Get("strategy"); ok {
		s, ok := sv.(string)
		if !ok {
			return configErrorf("[rule_policy] strategy must be a string")
		}
		strategy, err := parseStrategy(s)
		if err != nil {
			return err
		}
		p.RulePolicy.Strategy = strategy
	}
	if dv, ok := m.Get("mismatch_decision"); ok {
		d, ok := dv.(string)
		if !ok {
			return configErrorf("[rule_policy] mismatch_decision must be a string")
		}
		switch d {
		case "allow":
			p.RulePolicy.MismatchDecision = true
		case "deny":
			p.RulePolicy.MismatchDecision = false
		default:
			return configErrorf("[rule_policy] mismatch_decision must be 'allow' or 'deny', got %q", d)
		}
	}
	return nil
}
