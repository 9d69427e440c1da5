package aclgate

import "fmt"

// Check reports whether subject may perform action on resource, together with
// a human-readable reason. Unknown subjects, resources and actions are valid
// inputs; they simply match nothing but themselves and fall through to the
// strategy's exhaustion verdict.
func (p *Policy) Check(subject, resource, action string) (bool, string) {
	roles := p.rolesFor(subject)
	resources := p.Resources.closure(resource)
	strategy := p.RulePolicy.Strategy

	for _, rule := range p.Rules {
		for _, block := range rule.Blocks {
			for _, t := range block.Triples {
				if !t.matches(roles, resources, action) {
					continue
				}
				isAllowed := block.Effect == Allow
				switch strategy {
				case FirstMatch:
					return isAllowed, firstMatchReason(rule.Name, t, isAllowed)
				case AnyAllow:
					if isAllowed {
						return true, fmt.Sprintf("[rules.%s] %q is allowed to do %q on %q", rule.Name, t.Role, t.Action, t.Resource)
					}
				case AllAllow:
					if !isAllowed {
						return false, fmt.Sprintf("[rules.%s] %q is not allowed to do %q on %q", rule.Name, t.Role, t.Action, t.Resource)
					}
				default:
					panic("unreachable")
				}
			}
		}
	}

	// Under AnyAllow and AllAllow "no match at all" and "no deciding match"
	// are indistinguishable; the mismatch decision applies to FirstMatch only.
	switch strategy {
	case FirstMatch:
		decision := p.RulePolicy.MismatchDecision
		return decision, fmt.Sprintf("No matched rule found, use mismatch_decision: %s", decisionString(decision))
	case AnyAllow:
		return false, "All matched rules denied"
	case AllAllow:
		return true, "All matched rules allowed"
	default:
		panic("unreachable")
	}
}

func (t Triple) matches(roles, resources nameSet, action string) bool {
	return roles.has(t.Role) &&
		(t.Resource == Wildcard || resources.has(t.Resource)) &&
		(t.Action == Wildcard || t.Action == action)
}

func firstMatchReason(name string, t Triple, isAllowed bool) string {
	not := ""
	if !isAllowed {
		not = "not "
	}
	action := t.Action
	if action == Wildcard {
		action = "any action"
	}
	return fmt.Sprintf("[rules.%s] %q is %sallowed to do %q on %q", name, t.Role, not, action, t.Resource)
}

// Reason strings render the decision capitalized, "True" or "False".
func decisionString(allowed bool) string {
	if allowed {
		return "True"
	}
	return "False"
}
