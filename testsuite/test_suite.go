package testsuite

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slices"

	"github.com/aclgate/aclgate"
	"github.com/aclgate/aclgate/conf"
)

// ConfigBase is the canonical policy document shared by all backend tests:
// a cyclic group graph (g4 <-> g5), two roles, two resource groups and two
// ordered rules.
const ConfigBase = `
# user groups (could be nested)
[groups]
g1 = ['user1', 'user2']
g2 = ['user2', 'user3']
g3 = ['g1', 'user5']
g4 = ['g5', 'g1']
g5 = ['g4']

# role and members
[roles]
admin = ['g4', 'user3']
reader = ['g2', 'user5']

# resource groups
[resources]
res1 = ['part_a', 'part_b']
res2 = ['part_a', 'part_c']

# permission rules, checked one by one in order
[rules.r1]
allow = [
  ['reader', 'res1', 'GET'],
  ['admin',  'res1', '*'],
]

[rules.r2]
deny = [
  ['reader', 'res1', 'GET'],
  ['reader', 'res2', 'PUT'],
  ['reader', 'res2', 'POST'],
]
`

// PolicyWithStrategy builds the canonical policy with the given strategy and
// mismatch decision appended as a [rule_policy] block.
func PolicyWithStrategy(strategy, mismatch string) (*aclgate.Policy, error) {
	doc := ConfigBase + fmt.Sprintf("\n[rule_policy]\nstrategy = '%s'\nmismatch_decision = '%s'\n", strategy, mismatch)
	tree, err := conf.Parse([]byte(doc), conf.FormatTOML)
	if err != nil {
		return nil, err
	}
	return aclgate.NewPolicy(tree)
}

var strategies = []string{"FIRST_MATCH", "ALL_ALLOW", "ANY_ALLOW"}

// Load writes the canonical policy into the store once per strategy, keyed by
// the strategy name.
func Load(ctx context.Context, store aclgate.Store) error {
	if _, _, err := store.Get(ctx, "ANY_ALLOW"); err == nil {
		fmt.Println(">>> WARN  Policies already exist, skipping loading of test data!")
		return nil
	}

	for _, strategy := range strategies {
		policy, err := PolicyWithStrategy(strategy, "allow")
		if err != nil {
			return err
		}
		if _, err := store.Put(ctx, strategy, policy); err != nil {
			return err
		}
	}
	return nil
}

type TestConfig struct {
	Store aclgate.Store
}

func RunTestAll(t *testing.T, configs map[string]TestConfig) {
	for name, config := range configs {
		t.Run(name, func(t *testing.T) {
			RunTest(t, config.Store)
		})
	}
}

type decision struct {
	subject, resource, action string

	allowed bool
	reason  string
}

var decisions = map[string][]decision{
	"FIRST_MATCH": {
		{"user0", "part_a", "GET", true, "No matched rule found, use mismatch_decision: True"},
		{"user1", "part_b", "GET", true, `[rules.r1] "admin" is allowed to do "any action" on "res1"`},
		{"user3", "part_c", "PUT", false, `[rules.r2] "reader" is not allowed to do "PUT" on "res2"`},
	},
	"ALL_ALLOW": {
		{"user1", "part_a", "PUT", true, "All matched rules allowed"},
		{"user5", "part_a", "POST", false, `[rules.r2] "reader" is not allowed to do "POST" on "res2"`},
	},
	"ANY_ALLOW": {
		{"user1", "part_a", "POST", true, `[rules.r1] "admin" is allowed to do "*" on "res1"`},
		{"user5", "part_c", "POST", false, "All matched rules denied"},
	},
}

// RunTest replays the canonical decision table against policies round-tripped
// through the store.
func RunTest(t *testing.T, store aclgate.Store) {
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		names, err := store.List(ctx)
		require.NoError(t, err)
		for _, strategy := range strategies {
			require.True(t, slices.Contains(names, strategy), "expected %s in %v", strategy, names)
		}
	})

	t.Run("checks", func(t *testing.T) {
		for strategy, cases := range decisions {
			policy, _, err := store.Get(ctx, strategy)
			require.NoError(t, err)
			for _, d := range cases {
				allowed, reason := policy.Check(d.subject, d.resource, d.action)
				require.Equal(t, d.allowed, allowed, "%s: check(%s, %s, %s)", strategy, d.subject, d.resource, d.action)
				require.Equal(t, d.reason, reason)
			}
		}
	})

	t.Run("revisions", func(t *testing.T) {
		policy, first, err := store.Get(ctx, "FIRST_MATCH")
		require.NoError(t, err)
		second, err := store.Put(ctx, "FIRST_MATCH", policy)
		require.NoError(t, err)
		require.NotEqual(t, first, second)

		_, current, err := store.Get(ctx, "FIRST_MATCH")
		require.NoError(t, err)
		require.Equal(t, second, current)
	})

	t.Run("missing", func(t *testing.T) {
		_, _, err := store.Get(ctx, "no-such-policy")
		require.ErrorIs(t, err, aclgate.ErrNotFound)
	})
}

func RunBenchmarkAll(b *testing.B, stores map[string]aclgate.Store) {
	for name, store := range stores {
		b.Run(name, func(b *testing.B) {
			RunBenchmark(b, store)
		})
	}
}

func RunBenchmark(b *testing.B, store aclgate.Store) {
	policy, _, err := store.Get(context.Background(), "FIRST_MATCH")
	require.NoError(b, err)

	b.Run("role_via_group_cycle", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			allowed, _ := policy.Check("user1", "part_b", "GET")
			require.True(b, allowed)
		}
	})
	b.Run("mismatch", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			allowed, _ := policy.Check("user0", "part_a", "GET")
			require.True(b, allowed)
		}
	})
}
