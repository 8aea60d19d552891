package expr

import (
	"errors"
	"testing"

	"memory_console/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(values map[string]models.Scalar) models.Snapshot {
	return models.NewSnapshot(values)
}

func TestRewrite(t *testing.T) {
	text, refs := rewrite(`[room.temp] > 20.0 && [zone-2] && "[not.an.alias]" == 'x' && 1 in [1, 2]`)
	assert.Equal(t, []string{"room.temp", "zone-2"}, refs)
	assert.Contains(t, text, ident("room.temp"))
	assert.Contains(t, text, `"[not.an.alias]"`)
	assert.Contains(t, text, "[1, 2]")
}

func TestReferences_DeduplicatesInOrder(t *testing.T) {
	assert.Equal(t, []string{"b", "a"}, References("[b] > [a] || [b] < 0.0"))
}

func TestEvaluate(t *testing.T) {
	e := NewEvaluator()
	env := snap(map[string]models.Scalar{
		"v1":   models.Number(60),
		"a":    models.Bool(true),
		"b":    models.Bool(false),
		"sp":   models.Number(55.5),
		"zone": models.Number(2),
	})

	cases := []struct {
		cond string
		want bool
	}{
		{"[v1] >= 50", true},
		{"[v1] >= 50.0", true},
		{"[v1] < [sp]", false},
		{"[a] && [b]", false},
		{"[a] || [b]", true},
		{"![b]", true},
		{"[zone] == 2.0", true},
		{"([v1] - [sp]) > 4.0 && [a]", true},
		{"true", true},
	}
	for _, c := range cases {
		got, err := e.Evaluate(c.cond, env)
		require.NoError(t, err, c.cond)
		assert.Equal(t, c.want, got, c.cond)
	}
}

func TestEvaluate_Errors(t *testing.T) {
	e := NewEvaluator()
	env := snap(map[string]models.Scalar{"v": models.Number(1)})

	_, err := e.Evaluate("   ", env)
	assert.ErrorIs(t, err, ErrEmptyCondition)

	_, err = e.Evaluate("[missing] > 1", env)
	assert.ErrorIs(t, err, ErrUnknownAlias)

	_, err = e.Evaluate("[v] + 1.0", env)
	assert.ErrorIs(t, err, ErrNotBoolean)

	_, err = e.Evaluate("[v] >", env)
	require.Error(t, err)
	var eerr *EvalError
	require.True(t, errors.As(err, &eerr))
	assert.Equal(t, "[v] >", eerr.Condition)
	assert.NotContains(t, err.Error(), identPrefix+"76", "generated identifiers are not leaked")
}

func TestEvaluate_TypeFollowsBinding(t *testing.T) {
	e := NewEvaluator()

	ok, err := e.Evaluate("[x]", snap(map[string]models.Scalar{"x": models.Bool(true)}))
	require.NoError(t, err)
	assert.True(t, ok)

	// Same text, different binding type: compiled separately.
	ok, err = e.Evaluate("[x] > 0.5", snap(map[string]models.Scalar{"x": models.Number(1)}))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = e.Evaluate("[x]", snap(map[string]models.Scalar{"x": models.Number(1)}))
	assert.ErrorIs(t, err, ErrNotBoolean)
}

func TestCheck(t *testing.T) {
	e := NewEvaluator()
	kinds := map[string]models.ScalarKind{"t": models.KindNumber, "on": models.KindBool}

	assert.NoError(t, e.Check("[t] > 20 && [on]", kinds))
	assert.ErrorIs(t, e.Check("[nope]", kinds), ErrUnknownAlias)
	assert.ErrorIs(t, e.Check("[t]", kinds), ErrNotBoolean)
	assert.Error(t, e.Check("[on] > 'a'", kinds))
}
