// The aclgate-package decides whether a subject may perform an action on a
// resource, based on a declarative policy document of nested groups, roles,
// resource groups and ordered allow/deny rules.
//
// A policy document in TOML:
//
//	# user groups (may be nested, cycles are fine)
//	[groups]
//	g1 = ['user1', 'user2']
//	g4 = ['g5', 'g1']
//	g5 = ['g4']
//
//	# roles and their members (never nested into other roles)
//	[roles]
//	admin = ['g4', 'user3']
//
//	# resource groups (may be nested)
//	[resources]
//	res1 = ['part_a', 'part_b']
//
//	# rules are evaluated in declaration order
//	[rules.r1]
//	allow = [
//	  ['admin', 'res1', '*'],
//	]
//
//	[rule_policy]
//	strategy = 'FIRST_MATCH'
//	mismatch_decision = 'allow'
//
// The engine itself never touches disk or parses serialization formats; the
// [conf] subpackage is the collaborator turning TOML/YAML/JSON/JSONC bytes
// into the generic ordered tree [NewPolicy] consumes:
//
//	tree, _ := conf.Parse(data, conf.FormatTOML)
//	policy, err := aclgate.NewPolicy(tree)
//	if err != nil {
//		// structurally invalid document, e.g. unknown strategy
//	}
//
//	// user1 reaches 'admin' via g1 -> g4, so this returns:
//	// true, `[rules.r1] "admin" is allowed to do "any action" on "part_a"`-style reason
//	allowed, reason := policy.Check("user1", "part_a", "GET")
//
// A [Policy] is immutable after construction and Check is safe to call from
// concurrent goroutines. Compiled policies can be persisted by name using a
// [Store]-implementation from store/pebble, store/sqlite3 or store/postgres.
package aclgate
