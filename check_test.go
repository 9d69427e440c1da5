package aclgate_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aclgate/aclgate"
	"github.com/aclgate/aclgate/conf"
	"github.com/aclgate/aclgate/testsuite"
)

func mustPolicy(t *testing.T, strategy, mismatch string) *aclgate.Policy {
	t.Helper()
	policy, err := testsuite.PolicyWithStrategy(strategy, mismatch)
	require.NoError(t, err)
	return policy
}

func TestFirstMatch(t *testing.T) {
	policy := mustPolicy(t, "FIRST_MATCH", "allow")

	for name, tc := range map[string]struct {
		subject, resource, action string

		allowed bool
		reason  string
	}{
		"unknown_user":     {"user0", "part_a", "GET", true, "No matched rule found, use mismatch_decision: True"},
		"unknown_resource": {"user1", "part_x", "GET", true, "No matched rule found, use mismatch_decision: True"},
		"unknown_action":   {"user5", "part_c", "XXX", true, "No matched rule found, use mismatch_decision: True"},
		"rule_mismatch":    {"user1", "part_c", "GET", true, "No matched rule found, use mismatch_decision: True"},
		"allow":            {"user1", "part_b", "GET", true, `[rules.r1] "admin" is allowed to do "any action" on "res1"`},
		"deny":             {"user3", "part_c", "PUT", false, `[rules.r2] "reader" is not allowed to do "PUT" on "res2"`},
	} {
		t.Run(name, func(t *testing.T) {
			allowed, reason := policy.Check(tc.subject, tc.resource, tc.action)
			require.Equal(t, tc.allowed, allowed)
			require.Equal(t, tc.reason, reason)
		})
	}
}

func TestAllAllow(t *testing.T) {
	policy := mustPolicy(t, "ALL_ALLOW", "allow")

	allowed, reason := policy.Check("user1", "part_a", "PUT")
	require.True(t, allowed)
	require.Equal(t, "All matched rules allowed", reason)

	allowed, reason = policy.Check("user5", "part_a", "POST")
	require.False(t, allowed)
	require.Equal(t, `[rules.r2] "reader" is not allowed to do "POST" on "res2"`, reason)
}

func TestAnyAllow(t *testing.T) {
	policy := mustPolicy(t, "ANY_ALLOW", "allow")

	allowed, reason := policy.Check("user1", "part_a", "POST")
	require.True(t, allowed)
	require.Equal(t, `[rules.r1] "admin" is allowed to do "*" on "res1"`, reason)

	allowed, reason = policy.Check("user5", "part_c", "POST")
	require.False(t, allowed)
	require.Equal(t, "All matched rules denied", reason)
}

func TestMismatchDecisionDeny(t *testing.T) {
	policy := mustPolicy(t, "FIRST_MATCH", "deny")

	allowed, reason := policy.Check("user0", "part_a", "GET")
	require.False(t, allowed)
	require.Equal(t, "No matched rule found, use mismatch_decision: False", reason)
}

// The mismatch decision only applies under FIRST_MATCH; ANY_ALLOW and
// ALL_ALLOW keep their fixed exhaustion verdicts no matter how it is set.
func TestMismatchDecisionIgnoredByAggregates(t *testing.T) {
	anyAllow := mustPolicy(t, "ANY_ALLOW", "allow")
	allowed, reason := anyAllow.Check("user0", "part_a", "GET")
	require.False(t, allowed)
	require.Equal(t, "All matched rules denied", reason)

	allAllow := mustPolicy(t, "ALL_ALLOW", "deny")
	allowed, reason = allAllow.Check("user0", "part_a", "GET")
	require.True(t, allowed)
	require.Equal(t, "All matched rules allowed", reason)
}

func TestRuleOrderDecidesFirstMatch(t *testing.T) {
	denyFirst := `
[roles]
reader = ['user1']
[rules.block]
deny = [['reader', 'part_a', 'GET']]
[rules.open]
allow = [['reader', 'part_a', 'GET']]
`
	allowFirst := `
[roles]
reader = ['user1']
[rules.open]
allow = [['reader', 'part_a', 'GET']]
[rules.block]
deny = [['reader', 'part_a', 'GET']]
`
	for doc, want := range map[string]bool{denyFirst: false, allowFirst: true} {
		tree, err := conf.Parse([]byte(doc), conf.FormatTOML)
		require.NoError(t, err)
		policy, err := aclgate.NewPolicy(tree)
		require.NoError(t, err)

		allowed, _ := policy.Check("user1", "part_a", "GET")
		require.Equal(t, want, allowed)
	}
}

func TestPositionalRules(t *testing.T) {
	doc := `
[[rules]]
allow = [
  ['user1', 'res_a', 'GET'],
]
deny = [
  ['user1', 'res_a', 'POST'],
]
`
	tree, err := conf.Parse([]byte(doc), conf.FormatTOML)
	require.NoError(t, err)
	policy, err := aclgate.NewPolicy(tree)
	require.NoError(t, err)

	allowed, reason := policy.Check("user1", "res_a", "GET")
	require.True(t, allowed)
	require.Equal(t, `[rules.1] "user1" is allowed to do "GET" on "res_a"`, reason)

	allowed, reason = policy.Check("user1", "res_a", "POST")
	require.False(t, allowed)
	require.Equal(t, `[rules.1] "user1" is not allowed to do "POST" on "res_a"`, reason)
}

func TestEmptyDocument(t *testing.T) {
	policy, err := aclgate.NewPolicy(conf.NewMap())
	require.NoError(t, err)

	allowed, reason := policy.Check("anyone", "anything", "GET")
	require.True(t, allowed)
	require.Equal(t, "No matched rule found, use mismatch_decision: True", reason)
}

func TestConcurrentChecks(t *testing.T) {
	policy := mustPolicy(t, "FIRST_MATCH", "allow")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				allowed, reason := policy.Check("user1", "part_b", "GET")
				if !allowed || reason != `[rules.r1] "admin" is allowed to do "any action" on "res1"` {
					t.Errorf("unexpected decision: %v %q", allowed, reason)
					return
				}
			}
		}()
	}
	wg.Wait()
}
